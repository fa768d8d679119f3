package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

const scheduleID = "sched-1"

func slot(id, courseID, teacherID, roomID, day, start, end string) models.ScheduleSlot {
	return models.ScheduleSlot{
		ID: id, ScheduleID: scheduleID, CourseID: courseID, TeacherID: teacherID,
		RoomID: roomID, DayOfWeek: day,
		StartMin: models.ParseClock(start), EndMin: models.ParseClock(end),
	}
}

func ofType(conflicts []models.Conflict, t models.ConflictType) []models.Conflict {
	var out []models.Conflict
	for _, c := range conflicts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectTeacherDoubleBooking(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r2", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	overloads := ofType(conflicts, models.ConflictTeacherOverload)
	require.Len(t, overloads, 1, "exactly one double-booking conflict")
	assert.Equal(t, models.SeverityCritical, overloads[0].Severity)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string(overloads[0].SlotIDs))
	require.NotNil(t, overloads[0].TeacherID)
	assert.Equal(t, "t1", *overloads[0].TeacherID)
}

func TestDetectRoomCapacityExceeded(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "World History", Subject: "History", Enrollment: 32, Active: true},
	}
	rooms := []models.Room{
		{ID: "r1", Number: "204", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, courses, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	capacity := ofType(conflicts, models.ConflictRoomCapacityExceeded)
	require.Len(t, capacity, 1)
	assert.Equal(t, models.SeverityHigh, capacity[0].Severity)
	assert.Contains(t, capacity[0].Description, "32")
	assert.Contains(t, capacity[0].Description, "30")
}

func TestDetectMissingLunchBreak(t *testing.T) {
	// Five contiguous 50-minute periods, 09:00 through 13:10.
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "09:50", "10:40"),
		slot("s3", "c3", "t1", "r1", "MONDAY", "10:40", "11:30"),
		slot("s4", "c4", "t1", "r1", "MONDAY", "11:30", "12:20"),
		slot("s5", "c5", "t1", "r1", "MONDAY", "12:20", "13:10"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	lunch := ofType(conflicts, models.ConflictMissingLunchBreak)
	require.Len(t, lunch, 1)
	assert.Equal(t, models.SeverityMedium, lunch[0].Severity)
}

func TestDetectLunchBreakPresent(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "08:00", "08:50"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "08:55", "09:45"),
		slot("s3", "c3", "t1", "r1", "MONDAY", "09:50", "10:40"),
		slot("s4", "c4", "t1", "r1", "MONDAY", "10:45", "11:35"),
		// 40-minute gap inside the lunch window.
		slot("s5", "c5", "t1", "r1", "MONDAY", "12:15", "13:05"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)
	assert.Empty(t, ofType(conflicts, models.ConflictMissingLunchBreak))
}

func TestDetectSharedRoomWithinLimit(t *testing.T) {
	rooms := []models.Room{
		{ID: "r1", Number: "GYM", Capacity: 120, Type: models.RoomTypeGymnasium,
			AllowSharing: true, MaxConcurrentClasses: 2, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t2", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, nil, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)
	assert.Empty(t, ofType(conflicts, models.ConflictRoomDoubleBooking))
}

func TestDetectSharedRoomOverLimit(t *testing.T) {
	rooms := []models.Room{
		{ID: "r1", Number: "GYM", Capacity: 120, Type: models.RoomTypeGymnasium,
			AllowSharing: true, MaxConcurrentClasses: 2, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t2", "r1", "MONDAY", "09:00", "09:50"),
		slot("s3", "c3", "t3", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, nil, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	double := ofType(conflicts, models.ConflictRoomDoubleBooking)
	require.Len(t, double, 1)
	assert.Len(t, double[0].SlotIDs, 3)
}

func TestDetectStudentScheduleConflict(t *testing.T) {
	students := []models.Student{{ID: "st1", FullName: "Ada", GradeLevel: 9, Active: true}}
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "st1", CourseID: "c1", Active: true},
		{ID: "e2", StudentID: "st1", CourseID: "c2", Active: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "TUESDAY", "10:00", "10:50"),
		slot("s2", "c2", "t2", "r2", "TUESDAY", "10:00", "10:50"),
	}
	inv := inventory.New(nil, nil, nil, students, enrollments)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	studentConflicts := ofType(conflicts, models.ConflictStudentConflict)
	require.Len(t, studentConflicts, 1)
	assert.Equal(t, models.SeverityCritical, studentConflicts[0].Severity)
	require.NotNil(t, studentConflicts[0].StudentID)
	assert.Equal(t, "st1", *studentConflicts[0].StudentID)
}

func TestDetectRoomTypeMismatchForLabCourse(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "Chemistry", Subject: "Chemistry", RequiresLab: true, Active: true},
	}
	rooms := []models.Room{
		{ID: "r1", Number: "101", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, courses, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	mismatch := ofType(conflicts, models.ConflictRoomTypeMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, models.SeverityMedium, mismatch[0].Severity)
}

func TestDetectHeuristicRoomMismatchIsLow(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "Ceramics", Subject: "Art", Active: true},
	}
	rooms := []models.Room{
		{ID: "r1", Number: "101", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, courses, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	mismatch := ofType(conflicts, models.ConflictRoomTypeMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, models.SeverityLow, mismatch[0].Severity)
}

func TestTeacherOverlapAlwaysReported(t *testing.T) {
	// Any same-teacher same-day overlapping pair must be referenced by a
	// TEACHER_OVERLOAD conflict naming both slots.
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "WEDNESDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r2", "WEDNESDAY", "09:30", "10:20"),
		slot("s3", "c3", "t1", "r3", "WEDNESDAY", "11:00", "11:50"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if !slots[i].Overlaps(slots[j]) {
				continue
			}
			found := false
			for _, c := range ofType(conflicts, models.ConflictTeacherOverload) {
				if containsAll(c.SlotIDs, slots[i].ID, slots[j].ID) {
					found = true
				}
			}
			assert.True(t, found, "pair %s/%s not reported", slots[i].ID, slots[j].ID)
		}
	}
}

func TestIncrementalSubsetOfBatch(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "Algebra", Subject: "Math", Enrollment: 28, Active: true},
		{ID: "c2", Name: "Geometry", Subject: "Math", Enrollment: 35, Active: true},
	}
	rooms := []models.Room{
		{ID: "r1", Number: "101", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
	}
	existing := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	candidate := slot("s2", "c2", "t1", "r1", "MONDAY", "09:00", "09:50")
	inv := inventory.New(nil, courses, rooms, nil, nil)
	d := New(models.DefaultSchedulerConfiguration())

	incremental := d.DetectForSlot(scheduleID, candidate, existing, inv)
	batch := d.DetectAll(scheduleID, append(existing, candidate), inv)

	for _, inc := range incremental {
		found := false
		for _, full := range batch {
			if inc.Type == full.Type && referencesSlot(full, candidate.ID) == referencesSlot(inc, candidate.ID) {
				found = true
			}
		}
		assert.True(t, found, "incremental conflict %s missing from batch", inc.Type)
	}
}

func TestDetectBackToBackWithoutBreak(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "09:50", "10:40"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	breaks := ofType(conflicts, models.ConflictMissingBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, models.SeverityLow, breaks[0].Severity)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string(breaks[0].SlotIDs))
}

func TestDetectExcessiveConsecutiveClasses(t *testing.T) {
	// Four periods separated only by passing time; the default cap is three.
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "TUESDAY", "08:00", "08:50"),
		slot("s2", "c2", "t1", "r1", "TUESDAY", "08:55", "09:45"),
		slot("s3", "c3", "t1", "r1", "TUESDAY", "09:50", "10:40"),
		slot("s4", "c4", "t1", "r1", "TUESDAY", "10:45", "11:35"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	runs := ofType(conflicts, models.ConflictExcessiveConsecutive)
	require.Len(t, runs, 1)
	assert.Equal(t, models.SeverityMedium, runs[0].Severity)
	assert.Len(t, runs[0].SlotIDs, 4)
}

func TestDetectExcessiveTeacherHours(t *testing.T) {
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Mr. Part-Time", MaxPeriodsPerDay: 2, Active: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "08:00", "08:50"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "10:00", "10:50"),
		slot("s3", "c3", "t1", "r1", "MONDAY", "13:00", "13:50"),
	}
	inv := inventory.New(teachers, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	hours := ofType(conflicts, models.ConflictExcessiveTeacherHours)
	require.Len(t, hours, 1)
	assert.Equal(t, models.SeverityHigh, hours[0].Severity)
	assert.Contains(t, hours[0].Description, "3 periods")
	assert.Contains(t, hours[0].Description, "max 2")
}

func TestDetectMissingPrepPeriod(t *testing.T) {
	// A full eight-period day leaves no preparation period.
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "07:30", "08:20"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "08:25", "09:15"),
		slot("s3", "c3", "t1", "r1", "MONDAY", "09:20", "10:10"),
		slot("s4", "c4", "t1", "r1", "MONDAY", "10:15", "11:05"),
		slot("s5", "c5", "t1", "r1", "MONDAY", "11:10", "12:00"),
		slot("s6", "c6", "t1", "r1", "MONDAY", "12:05", "12:55"),
		slot("s7", "c7", "t1", "r1", "MONDAY", "13:00", "13:50"),
		slot("s8", "c8", "t1", "r1", "MONDAY", "13:55", "14:45"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	prep := ofType(conflicts, models.ConflictMissingPrepPeriod)
	require.Len(t, prep, 1)
	assert.Equal(t, models.SeverityMedium, prep[0].Severity)
	assert.Len(t, prep[0].SlotIDs, 8)
}

func TestDetectSubjectMismatch(t *testing.T) {
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Ms. Noether", Department: "Math", Active: true},
	}
	courses := []models.Course{
		{ID: "c1", Name: "World Literature", Subject: "English", Active: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	mismatch := ofType(conflicts, models.ConflictSubjectMismatch)
	require.Len(t, mismatch, 1)
	assert.Equal(t, models.SeverityLow, mismatch[0].Severity)
	assert.Contains(t, mismatch[0].Description, "Math department")
}

func TestDetectBuildingTravelWithoutTime(t *testing.T) {
	rooms := []models.Room{
		{ID: "r1", Number: "101", Building: "A", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
		{ID: "r2", Number: "201", Building: "B", Capacity: 30, Type: models.RoomTypeClassroom, Available: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "FRIDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r2", "FRIDAY", "09:55", "10:45"),
	}
	inv := inventory.New(nil, nil, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	travel := ofType(conflicts, models.ConflictBuildingTravel)
	require.Len(t, travel, 1)
	assert.Equal(t, models.SeverityLow, travel[0].Severity)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string(travel[0].SlotIDs))
}

func TestDetectEnrollmentLimits(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "Biology", Subject: "Biology", Enrollment: 30, MaxStudents: 25, Active: true},
		{ID: "c2", Name: "Latin", Subject: "Latin", Enrollment: 5, MinEnrollment: 10, Active: true},
	}
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t2", "r2", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, courses, nil, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, slots, inv)

	limits := ofType(conflicts, models.ConflictEnrollmentLimit)
	require.Len(t, limits, 2)
	assert.Equal(t, models.SeverityHigh, limits[0].Severity, "over-enrollment outranks under-enrollment")
	assert.Contains(t, limits[0].Description, "over its limit of 25")
	assert.Equal(t, models.SeverityMedium, limits[1].Severity)
	assert.Contains(t, limits[1].Description, "below the minimum of 10")
}

func TestDetectDuplicateEnrollments(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "st1", CourseID: "c1", Active: true},
		{ID: "e2", StudentID: "st1", CourseID: "c1", Active: true},
		{ID: "e3", StudentID: "st2", CourseID: "c1", Active: true},
	}
	inv := inventory.New(nil, nil, nil, nil, enrollments)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectAll(scheduleID, nil, inv)

	dupes := ofType(conflicts, models.ConflictDuplicateEnrollment)
	require.Len(t, dupes, 1)
	assert.Equal(t, models.SeverityHigh, dupes[0].Severity)
	require.NotNil(t, dupes[0].StudentID)
	assert.Equal(t, "st1", *dupes[0].StudentID)
	assert.Contains(t, dupes[0].Description, "2 times")
}

func TestDetectForSlotSharedRoomOverLimit(t *testing.T) {
	rooms := []models.Room{
		{ID: "r1", Number: "GYM", Capacity: 120, Type: models.RoomTypeGymnasium,
			AllowSharing: true, MaxConcurrentClasses: 2, Available: true},
	}
	existing := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t2", "r1", "MONDAY", "09:00", "09:50"),
	}
	candidate := slot("s3", "c3", "t3", "r1", "MONDAY", "09:00", "09:50")
	inv := inventory.New(nil, nil, rooms, nil, nil)
	d := New(models.DefaultSchedulerConfiguration())

	conflicts := d.DetectForSlot(scheduleID, candidate, existing, inv)

	double := ofType(conflicts, models.ConflictRoomDoubleBooking)
	require.Len(t, double, 1, "third concurrent section exceeds the sharing limit")
	assert.Equal(t, models.SeverityCritical, double[0].Severity)
	assert.Len(t, double[0].SlotIDs, 3)
}

func TestDetectForSlotSharedRoomWithinLimit(t *testing.T) {
	rooms := []models.Room{
		{ID: "r1", Number: "GYM", Capacity: 120, Type: models.RoomTypeGymnasium,
			AllowSharing: true, MaxConcurrentClasses: 2, Available: true},
	}
	existing := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
	}
	candidate := slot("s2", "c2", "t2", "r1", "MONDAY", "09:00", "09:50")
	inv := inventory.New(nil, nil, rooms, nil, nil)

	conflicts := New(models.DefaultSchedulerConfiguration()).DetectForSlot(scheduleID, candidate, existing, inv)
	assert.Empty(t, ofType(conflicts, models.ConflictRoomDoubleBooking))
}

func TestValidateSummary(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r2", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	summary := New(models.DefaultSchedulerConfiguration()).Validate(scheduleID, slots, inv)

	assert.False(t, summary.Valid)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 1, summary.SeverityCounts[models.SeverityCritical])
}

func TestValidateCleanSchedule(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t2", "r2", "MONDAY", "09:55", "10:45"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)

	summary := New(models.DefaultSchedulerConfiguration()).Validate(scheduleID, slots, inv)
	assert.True(t, summary.Valid)
	assert.Zero(t, summary.CriticalCount)
}

func TestDetectAllDeterministic(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("s1", "c1", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s2", "c2", "t1", "r1", "MONDAY", "09:00", "09:50"),
		slot("s3", "c3", "t2", "r1", "MONDAY", "09:00", "09:50"),
	}
	inv := inventory.New(nil, nil, nil, nil, nil)
	d := New(models.DefaultSchedulerConfiguration())

	first := d.DetectAll(scheduleID, slots, inv)
	second := d.DetectAll(scheduleID, slots, inv)
	assert.Equal(t, first, second)
}

func containsAll(ids []string, want ...string) bool {
	for _, w := range want {
		found := false
		for _, id := range ids {
			if id == w {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func referencesSlot(c models.Conflict, slotID string) bool {
	for _, id := range c.SlotIDs {
		if id == slotID {
			return true
		}
	}
	return false
}
