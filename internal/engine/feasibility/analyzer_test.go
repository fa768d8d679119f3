package feasibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

func testConfig() models.SchedulerConfiguration {
	cfg := models.DefaultSchedulerConfiguration()
	// Two periods per day, five days: ten weekly periods per room.
	cfg.EarliestStartMin = models.ParseClock("07:30")
	cfg.LatestEndMin = models.ParseClock("09:20")
	return cfg
}

func labCourse(id, name string, sessions int) models.Course {
	return models.Course{
		ID: id, Code: id, Name: name, Subject: "Science",
		RequiresLab: true, SessionsPerWeek: sessions,
		Enrollment: 20, MaxStudents: 30, Active: true,
	}
}

func TestAnalyzeInsufficientLabRooms(t *testing.T) {
	courses := []models.Course{
		labCourse("c1", "Biology", 5),
		labCourse("c2", "Chemistry", 5),
		labCourse("c3", "Physics", 5),
		labCourse("c4", "Earth Science", 5),
	}
	teacherID := "t1"
	for i := range courses {
		courses[i].TeacherID = &teacherID
	}
	rooms := []models.Room{
		{ID: "r1", Number: "101", Capacity: 30, Type: models.RoomTypeScienceLab, MaxConcurrentClasses: 1, Available: true},
	}
	teachers := []models.Teacher{
		{ID: teacherID, FullName: "Dr. Grey", Department: "Science", CertifiedSubjects: []string{"Science"}, Active: true},
	}
	inv := inventory.New(teachers, courses, rooms, nil, nil)

	report := New(testConfig()).Analyze(inv)

	var found *Violation
	for i := range report.Violations {
		if report.Violations[i].Type == ViolationInsufficientRooms {
			found = &report.Violations[i]
			break
		}
	}
	require.NotNil(t, found, "expected an INSUFFICIENT_ROOMS violation")
	assert.Equal(t, models.SeverityHigh, found.Severity, "more than three sections affected")
	assert.Contains(t, found.Description, "shortfall 10")

	require.GreaterOrEqual(t, len(found.Actions), 3)
	assert.Equal(t, ActionAddRooms, found.Actions[0].Type)
	assert.Contains(t, found.Actions[0].Description, "add 1 more")
	assert.Contains(t, found.Actions[0].Description, "2 total needed")
	assert.Equal(t, ActionEnableSharing, found.Actions[1].Type)
	assert.Equal(t, "2", found.Actions[1].Params["max_concurrent_classes"])
	assert.Equal(t, ActionSplitSections, found.Actions[2].Type)
}

func TestAnalyzeRoomSupplySufficient(t *testing.T) {
	courses := []models.Course{labCourse("c1", "Biology", 5)}
	teacherID := "t1"
	courses[0].TeacherID = &teacherID
	rooms := []models.Room{
		{ID: "r1", Number: "101", Capacity: 30, Type: models.RoomTypeScienceLab, MaxConcurrentClasses: 1, Available: true},
	}
	inv := inventory.New(nil, courses, rooms, nil, nil)

	report := New(testConfig()).Analyze(inv)
	for _, v := range report.Violations {
		assert.NotEqual(t, ViolationInsufficientRooms, v.Type)
	}
}

func TestAnalyzeNoCertifiedTeacher(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "French I", Subject: "French", SessionsPerWeek: 5, Active: true},
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	report := New(models.DefaultSchedulerConfiguration()).Analyze(inv)

	require.Len(t, report.Violations, 1)
	v := report.Violations[0]
	assert.Equal(t, ViolationNoTeacher, v.Type)
	assert.Equal(t, models.SeverityCritical, v.Severity)
	require.Len(t, v.Actions, 1)
	assert.Equal(t, ActionHireTeacher, v.Actions[0].Type)
	assert.Equal(t, "French", v.Actions[0].Params["subject"])
	assert.Equal(t, 1, report.SeverityCounts[models.SeverityCritical])
}

func TestAnalyzeCertifiedTeachersAtCapacity(t *testing.T) {
	bound := make([]models.Course, 0, 7)
	teacherID := "t1"
	for i := 0; i < 6; i++ {
		c := models.Course{
			ID: string(rune('a' + i)), Name: "Math Section", Subject: "Math",
			SessionsPerWeek: 1, Active: true, TeacherID: &teacherID,
		}
		bound = append(bound, c)
	}
	unbound := models.Course{ID: "c-new", Name: "Algebra 2", Subject: "Math", SessionsPerWeek: 1, Active: true}
	teachers := []models.Teacher{
		{ID: teacherID, FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	inv := inventory.New(teachers, append(bound, unbound), nil, nil, nil)

	report := New(models.DefaultSchedulerConfiguration()).Analyze(inv)

	var noTeacher *Violation
	for i := range report.Violations {
		if report.Violations[i].Type == ViolationNoTeacher {
			noTeacher = &report.Violations[i]
		}
	}
	require.NotNil(t, noTeacher)
	assert.Contains(t, noTeacher.Description, "at capacity")
}

func TestAnalyzeIdempotent(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "French I", Subject: "French", SessionsPerWeek: 5, Active: true},
	}
	inv := inventory.New(nil, courses, nil, nil, nil)
	analyzer := New(models.DefaultSchedulerConfiguration())

	first := analyzer.Analyze(inv)
	second := analyzer.Analyze(inv)
	assert.Equal(t, first, second)
}

func TestAnalyzeTeacherOverload(t *testing.T) {
	overloaded := "t1"
	spare := "t2"
	courses := make([]models.Course, 0, 7)
	for i := 0; i < 7; i++ {
		courses = append(courses, models.Course{
			ID: string(rune('a' + i)), Name: "Science Section", Subject: "Science",
			SessionsPerWeek: 1, Active: true, TeacherID: &overloaded,
		})
	}
	teachers := []models.Teacher{
		{ID: overloaded, FullName: "Dr. Grey", CertifiedSubjects: []string{"Science"}, Active: true},
		{ID: spare, FullName: "Dr. Yang", CertifiedSubjects: []string{"Biology"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	report := New(models.DefaultSchedulerConfiguration()).Analyze(inv)

	var overload *Violation
	for i := range report.Violations {
		if report.Violations[i].Type == ViolationTeacherOverload {
			overload = &report.Violations[i]
		}
	}
	require.NotNil(t, overload)
	assert.Equal(t, models.SeverityHigh, overload.Severity)
	require.NotEmpty(t, overload.Actions)
	assert.Equal(t, ActionReassignCourse, overload.Actions[0].Type)
	assert.Equal(t, spare, overload.Actions[0].TargetID)
}
