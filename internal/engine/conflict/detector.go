package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/subject"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// Detector walks a concrete schedule and enumerates violations at graded
// severity. Detection is pure: conflicts are returned without identifiers,
// the repository assigns those on save. Output order is deterministic.
type Detector struct {
	cfg models.SchedulerConfiguration
}

func New(cfg models.SchedulerConfiguration) *Detector {
	return &Detector{cfg: cfg}
}

// DetectAll runs every detection category against the full slot set.
func (d *Detector) DetectAll(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	conflicts = append(conflicts, d.detectTimeOverlaps(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectMissingBreaks(scheduleID, slots)...)
	conflicts = append(conflicts, d.detectMissingLunch(scheduleID, slots)...)
	conflicts = append(conflicts, d.detectExcessiveConsecutive(scheduleID, slots)...)
	conflicts = append(conflicts, d.detectRoomCapacity(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectRoomTypeMismatch(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectExcessiveHours(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectMissingPrep(scheduleID, slots)...)
	conflicts = append(conflicts, d.detectSubjectMismatch(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectBuildingTravel(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectStudentConflicts(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectEnrollmentLimits(scheduleID, slots, inv)...)
	conflicts = append(conflicts, d.detectDuplicateEnrollments(scheduleID, inv)...)
	return conflicts
}

// DetectForSlot evaluates a candidate slot as if inserted, running only the
// overlap, capacity, room-type, and teacher-hours categories. The solver uses
// this as its per-move scoring oracle.
func (d *Detector) DetectForSlot(scheduleID string, candidate models.ScheduleSlot, existing []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict

	var roomPeers []models.ScheduleSlot
	for _, other := range existing {
		if !candidate.Overlaps(other) {
			continue
		}
		if candidate.TeacherID != "" && candidate.TeacherID == other.TeacherID {
			conflicts = append(conflicts, d.teacherOverlapConflict(scheduleID, candidate, other))
		}
		if candidate.RoomID != "" && candidate.RoomID == other.RoomID {
			roomPeers = append(roomPeers, other)
		}
	}
	if len(roomPeers) > 0 {
		limit := 1
		if room := inv.RoomByID(candidate.RoomID); room != nil {
			limit = room.ConcurrentLimit()
		}
		group := append(roomPeers, candidate)
		sortSlots(group)
		if peak := peakConcurrency(group); len(peak) > limit {
			conflicts = append(conflicts, d.roomOverlapConflict(scheduleID, candidate.RoomID, peak))
		}
	}

	all := append(append([]models.ScheduleSlot(nil), existing...), candidate)
	conflicts = append(conflicts, d.detectRoomCapacity(scheduleID, []models.ScheduleSlot{candidate}, inv)...)
	conflicts = append(conflicts, d.detectRoomTypeMismatch(scheduleID, []models.ScheduleSlot{candidate}, inv)...)

	if candidate.TeacherID != "" {
		count := 0
		for _, slot := range all {
			if slot.TeacherID == candidate.TeacherID && slot.DayOfWeek == candidate.DayOfWeek {
				count++
			}
		}
		if limit := d.teacherDayLimit(inv, candidate.TeacherID); count > limit {
			conflicts = append(conflicts, d.excessiveHoursConflict(scheduleID, candidate.TeacherID, candidate.DayOfWeek, count, limit))
		}
	}
	return conflicts
}

// Validate builds the severity summary. Valid means zero CRITICAL entries.
func (d *Detector) Validate(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) models.ValidationSummary {
	conflicts := d.DetectAll(scheduleID, slots, inv)
	return Summarize(conflicts)
}

// Summarize aggregates an existing conflict list into a ValidationSummary.
func Summarize(conflicts []models.Conflict) models.ValidationSummary {
	summary := models.ValidationSummary{
		SeverityCounts: make(map[models.ConflictSeverity]int),
		Conflicts:      conflicts,
	}
	for _, c := range conflicts {
		summary.SeverityCounts[c.Severity]++
	}
	summary.CriticalCount = summary.SeverityCounts[models.SeverityCritical]
	summary.Valid = summary.CriticalCount == 0
	return summary
}

// --- Category 1: time overlaps ---

func (d *Detector) detectTimeOverlaps(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict

	byTeacherDay := groupSlots(slots, func(s models.ScheduleSlot) string {
		if s.TeacherID == "" {
			return ""
		}
		return s.TeacherID + "|" + s.DayOfWeek
	})
	for _, key := range sortedKeys(byTeacherDay) {
		group := byTeacherDay[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Overlaps(group[j]) {
					conflicts = append(conflicts, d.teacherOverlapConflict(scheduleID, group[i], group[j]))
				}
			}
		}
	}

	byRoomDay := groupSlots(slots, func(s models.ScheduleSlot) string {
		if s.RoomID == "" {
			return ""
		}
		return s.RoomID + "|" + s.DayOfWeek
	})
	for _, key := range sortedKeys(byRoomDay) {
		group := byRoomDay[key]
		roomID := group[0].RoomID
		limit := 1
		if room := inv.RoomByID(roomID); room != nil {
			limit = room.ConcurrentLimit()
		}
		if limit == 1 {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					if group[i].Overlaps(group[j]) {
						conflicts = append(conflicts, d.roomOverlapConflict(scheduleID, roomID, []models.ScheduleSlot{group[i], group[j]}))
					}
				}
			}
			continue
		}
		// Shared rooms violate only when concurrency exceeds the limit.
		if peak := peakConcurrency(group); len(peak) > limit {
			conflicts = append(conflicts, d.roomOverlapConflict(scheduleID, roomID, peak))
		}
	}
	return conflicts
}

func (d *Detector) teacherOverlapConflict(scheduleID string, a, b models.ScheduleSlot) models.Conflict {
	teacherID := a.TeacherID
	return models.Conflict{
		ScheduleID: scheduleID,
		Type:       models.ConflictTeacherOverload,
		Severity:   models.SeverityCritical,
		Description: fmt.Sprintf("teacher %s double-booked on %s %s-%s", teacherID, a.DayOfWeek,
			models.FormatClock(maxInt(a.StartMin, b.StartMin)), models.FormatClock(minInt(a.EndMin, b.EndMin))),
		SlotIDs:   []string{a.ID, b.ID},
		TeacherID: &teacherID,
		Active:    true,
	}
}

func (d *Detector) roomOverlapConflict(scheduleID, roomID string, group []models.ScheduleSlot) models.Conflict {
	ids := make([]string, 0, len(group))
	for _, s := range group {
		ids = append(ids, s.ID)
	}
	return models.Conflict{
		ScheduleID:  scheduleID,
		Type:        models.ConflictRoomDoubleBooking,
		Severity:    models.SeverityCritical,
		Description: fmt.Sprintf("room %s hosts %d overlapping sections on %s", roomID, len(group), group[0].DayOfWeek),
		SlotIDs:     ids,
		RoomID:      &roomID,
		Active:      true,
	}
}

// peakConcurrency returns the slots active at the moment of maximum overlap.
func peakConcurrency(group []models.ScheduleSlot) []models.ScheduleSlot {
	var peak []models.ScheduleSlot
	for _, anchor := range group {
		var active []models.ScheduleSlot
		for _, s := range group {
			if s.StartMin <= anchor.StartMin && anchor.StartMin < s.EndMin {
				active = append(active, s)
			}
		}
		if len(active) > len(peak) {
			peak = active
		}
	}
	return peak
}

// --- Category 2: back-to-back without break ---

func (d *Detector) detectMissingBreaks(scheduleID string, slots []models.ScheduleSlot) []models.Conflict {
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		for i := 1; i < len(ordered); i++ {
			if ordered[i].StartMin == ordered[i-1].EndMin {
				tid := teacherID
				conflicts = append(conflicts, models.Conflict{
					ScheduleID: scheduleID,
					Type:       models.ConflictMissingBreak,
					Severity:   models.SeverityLow,
					Description: fmt.Sprintf("teacher %s has back-to-back classes on %s at %s with no %d-minute break",
						teacherID, day, models.FormatClock(ordered[i].StartMin), d.cfg.PreferredBreakMinutes),
					SlotIDs:   []string{ordered[i-1].ID, ordered[i].ID},
					TeacherID: &tid,
					Active:    true,
				})
			}
		}
	})
	return conflicts
}

// --- Category 3: missing lunch break ---

func (d *Detector) detectMissingLunch(scheduleID string, slots []models.ScheduleSlot) []models.Conflict {
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		if len(ordered) < 5 {
			return
		}
		if hasLunchGap(ordered, d.cfg.LunchWindowStartMin, d.cfg.LunchWindowEndMin, d.cfg.LunchMinimumMinutes) {
			return
		}
		tid := teacherID
		conflicts = append(conflicts, models.Conflict{
			ScheduleID: scheduleID,
			Type:       models.ConflictMissingLunchBreak,
			Severity:   models.SeverityMedium,
			Description: fmt.Sprintf("teacher %s has no %d-minute lunch gap between %s and %s on %s",
				teacherID, d.cfg.LunchMinimumMinutes,
				models.FormatClock(d.cfg.LunchWindowStartMin), models.FormatClock(d.cfg.LunchWindowEndMin), day),
			SlotIDs:   slotIDs(ordered),
			TeacherID: &tid,
			Active:    true,
		})
	})
	return conflicts
}

// hasLunchGap reports whether the busy intervals leave a free stretch of at
// least minMinutes inside the lunch window. Ordered slots must be sorted.
func hasLunchGap(ordered []models.ScheduleSlot, windowStart, windowEnd, minMinutes int) bool {
	cursor := windowStart
	for _, s := range ordered {
		if s.EndMin <= cursor {
			continue
		}
		if s.StartMin >= windowEnd {
			break
		}
		if s.StartMin-cursor >= minMinutes {
			return true
		}
		if s.EndMin > cursor {
			cursor = s.EndMin
		}
	}
	return windowEnd-cursor >= minMinutes
}

// --- Category 4: excessive consecutive classes ---

func (d *Detector) detectExcessiveConsecutive(scheduleID string, slots []models.ScheduleSlot) []models.Conflict {
	maxRun := d.cfg.MaxConsecutive
	if maxRun <= 0 {
		maxRun = 4
	}
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		run := []models.ScheduleSlot{}
		flush := func() {
			if len(run) > maxRun {
				tid := teacherID
				conflicts = append(conflicts, models.Conflict{
					ScheduleID: scheduleID,
					Type:       models.ConflictExcessiveConsecutive,
					Severity:   models.SeverityMedium,
					Description: fmt.Sprintf("teacher %s teaches %d consecutive periods on %s (limit %d)",
						teacherID, len(run), day, maxRun),
					SlotIDs:   slotIDs(run),
					TeacherID: &tid,
					Active:    true,
				})
			}
			run = run[:0]
		}
		for _, s := range ordered {
			if len(run) > 0 && s.StartMin-run[len(run)-1].EndMin > d.cfg.PassingMinutes {
				flush()
			}
			run = append(run, s)
		}
		flush()
	})
	return conflicts
}

// --- Category 5: room capacity ---

func (d *Detector) detectRoomCapacity(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		room := inv.RoomByID(slot.RoomID)
		if room == nil {
			continue
		}
		enrollment := inv.ActiveEnrollmentCount(slot.CourseID)
		if enrollment <= room.Capacity {
			continue
		}
		roomID, courseID := slot.RoomID, slot.CourseID
		conflicts = append(conflicts, models.Conflict{
			ScheduleID: scheduleID,
			Type:       models.ConflictRoomCapacityExceeded,
			Severity:   models.SeverityHigh,
			Description: fmt.Sprintf("enrollment %d exceeds room %s capacity %d",
				enrollment, room.Number, room.Capacity),
			SlotIDs:  []string{slot.ID},
			RoomID:   &roomID,
			CourseID: &courseID,
			Active:   true,
		})
	}
	return conflicts
}

// --- Category 6: room type mismatch ---

// expectedRoomTypes maps a subject family to the room types that suit it.
var expectedRoomTypes = map[subject.Family][]models.RoomType{
	subject.FamilyScience:   {models.RoomTypeScienceLab, models.RoomTypeLab, models.RoomTypeSTEMLab},
	subject.FamilyComputing: {models.RoomTypeComputerLab, models.RoomTypeLab, models.RoomTypeSTEMLab},
	subject.FamilyPE:        {models.RoomTypeGymnasium},
	subject.FamilyArts: {
		models.RoomTypeArtStudio, models.RoomTypeMusicRoom, models.RoomTypeBandRoom,
		models.RoomTypeChorusRoom, models.RoomTypeTheater, models.RoomTypeAuditorium,
	},
}

func (d *Detector) detectRoomTypeMismatch(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		course := inv.CourseByID(slot.CourseID)
		room := inv.RoomByID(slot.RoomID)
		if course == nil || room == nil {
			continue
		}
		roomID, courseID := slot.RoomID, slot.CourseID

		if course.RequiresLab && !room.Type.IsLab() {
			conflicts = append(conflicts, models.Conflict{
				ScheduleID: scheduleID,
				Type:       models.ConflictRoomTypeMismatch,
				Severity:   models.SeverityMedium,
				Description: fmt.Sprintf("course %s requires a lab but room %s is %s",
					course.Name, room.Number, room.Type),
				SlotIDs:  []string{slot.ID},
				RoomID:   &roomID,
				CourseID: &courseID,
				Active:   true,
			})
			continue
		}
		if course.RequiredRoomType != nil && room.Type != *course.RequiredRoomType {
			conflicts = append(conflicts, models.Conflict{
				ScheduleID: scheduleID,
				Type:       models.ConflictRoomTypeMismatch,
				Severity:   models.SeverityMedium,
				Description: fmt.Sprintf("course %s requires room type %s but room %s is %s",
					course.Name, *course.RequiredRoomType, room.Number, room.Type),
				SlotIDs:  []string{slot.ID},
				RoomID:   &roomID,
				CourseID: &courseID,
				Active:   true,
			})
			continue
		}
		if c := d.heuristicRoomMismatch(scheduleID, slot, *course, *room); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	return conflicts
}

func (d *Detector) heuristicRoomMismatch(scheduleID string, slot models.ScheduleSlot, course models.Course, room models.Room) *models.Conflict {
	var expected []models.RoomType
	if strings.Contains(strings.ToLower(course.Subject), "culinary") {
		expected = []models.RoomType{models.RoomTypeCulinaryLab}
	} else {
		expected = expectedRoomTypes[subject.FamilyOf(course.Subject)]
	}
	if len(expected) == 0 {
		return nil
	}
	for _, rt := range expected {
		if room.Type == rt {
			return nil
		}
	}
	roomID, courseID := slot.RoomID, slot.CourseID
	return &models.Conflict{
		ScheduleID: scheduleID,
		Type:       models.ConflictRoomTypeMismatch,
		Severity:   models.SeverityLow,
		Description: fmt.Sprintf("course %s (%s) is placed in %s room %s",
			course.Name, course.Subject, room.Type, room.Number),
		SlotIDs:  []string{slot.ID},
		RoomID:   &roomID,
		CourseID: &courseID,
		Active:   true,
	}
}

// --- Category 7: excessive teacher hours ---

func (d *Detector) teacherDayLimit(inv *inventory.Inventory, teacherID string) int {
	if teacher := inv.TeacherByID(teacherID); teacher != nil {
		return teacher.EffectiveMaxPeriodsPerDay()
	}
	return d.cfg.MaxPeriodsPerTeacher
}

func (d *Detector) detectExcessiveHours(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		limit := d.teacherDayLimit(inv, teacherID)
		if len(ordered) > limit {
			conflicts = append(conflicts, d.excessiveHoursConflict(scheduleID, teacherID, day, len(ordered), limit))
		}
	})
	return conflicts
}

func (d *Detector) excessiveHoursConflict(scheduleID, teacherID, day string, count, limit int) models.Conflict {
	tid := teacherID
	return models.Conflict{
		ScheduleID: scheduleID,
		Type:       models.ConflictExcessiveTeacherHours,
		Severity:   models.SeverityHigh,
		Description: fmt.Sprintf("teacher %s has %d periods on %s (max %d per day)",
			teacherID, count, day, limit),
		TeacherID: &tid,
		Active:    true,
	}
}

// --- Category 8: missing preparation period ---

func (d *Detector) detectMissingPrep(scheduleID string, slots []models.ScheduleSlot) []models.Conflict {
	gridPeriods := d.cfg.PeriodsPerDay()
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		if len(ordered) < 7 || len(ordered) < gridPeriods {
			return
		}
		tid := teacherID
		conflicts = append(conflicts, models.Conflict{
			ScheduleID: scheduleID,
			Type:       models.ConflictMissingPrepPeriod,
			Severity:   models.SeverityMedium,
			Description: fmt.Sprintf("teacher %s teaches all %d periods on %s with no preparation period",
				teacherID, len(ordered), day),
			SlotIDs:   slotIDs(ordered),
			TeacherID: &tid,
			Active:    true,
		})
	})
	return conflicts
}

// --- Category 9: subject mismatch ---

func (d *Detector) detectSubjectMismatch(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		teacher := inv.TeacherByID(slot.TeacherID)
		course := inv.CourseByID(slot.CourseID)
		if teacher == nil || course == nil || teacher.Department == "" {
			continue
		}
		deptFamily := subject.FamilyOf(teacher.Department)
		courseFamily := subject.FamilyOf(course.Subject)
		if deptFamily == subject.FamilyNone || courseFamily == subject.FamilyNone || deptFamily == courseFamily {
			continue
		}
		tid, courseID := slot.TeacherID, slot.CourseID
		conflicts = append(conflicts, models.Conflict{
			ScheduleID: scheduleID,
			Type:       models.ConflictSubjectMismatch,
			Severity:   models.SeverityLow,
			Description: fmt.Sprintf("teacher %s (%s department) assigned to %s",
				teacher.FullName, teacher.Department, course.Name),
			SlotIDs:   []string{slot.ID},
			TeacherID: &tid,
			CourseID:  &courseID,
			Active:    true,
		})
	}
	return conflicts
}

// --- Category 10: building travel time ---

func (d *Detector) detectBuildingTravel(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	var conflicts []models.Conflict
	forEachTeacherDay(slots, func(teacherID, day string, ordered []models.ScheduleSlot) {
		for i := 1; i < len(ordered); i++ {
			if ordered[i].StartMin-ordered[i-1].EndMin > d.cfg.PassingMinutes {
				continue
			}
			prev := inv.RoomByID(ordered[i-1].RoomID)
			next := inv.RoomByID(ordered[i].RoomID)
			if prev == nil || next == nil || prev.Building == "" || next.Building == "" || prev.Building == next.Building {
				continue
			}
			tid := teacherID
			conflicts = append(conflicts, models.Conflict{
				ScheduleID: scheduleID,
				Type:       models.ConflictBuildingTravel,
				Severity:   models.SeverityLow,
				Description: fmt.Sprintf("teacher %s must move from building %s to %s with no travel time on %s",
					teacherID, prev.Building, next.Building, day),
				SlotIDs:   []string{ordered[i-1].ID, ordered[i].ID},
				TeacherID: &tid,
				Active:    true,
			})
		}
	})
	return conflicts
}

// --- Category 11: student schedule conflicts ---

func (d *Detector) detectStudentConflicts(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	byStudent := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		for _, enr := range inv.ActiveEnrollments(slot.CourseID) {
			byStudent[enr.StudentID] = append(byStudent[enr.StudentID], slot)
		}
	}

	var conflicts []models.Conflict
	for _, studentID := range sortedKeys(byStudent) {
		group := byStudent[studentID]
		sortSlots(group)
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !group[i].Overlaps(group[j]) {
					continue
				}
				sid := studentID
				conflicts = append(conflicts, models.Conflict{
					ScheduleID: scheduleID,
					Type:       models.ConflictStudentConflict,
					Severity:   models.SeverityCritical,
					Description: fmt.Sprintf("student %s has overlapping classes on %s at %s",
						studentID, group[i].DayOfWeek, models.FormatClock(maxInt(group[i].StartMin, group[j].StartMin))),
					SlotIDs:   []string{group[i].ID, group[j].ID},
					StudentID: &sid,
					Active:    true,
				})
			}
		}
	}
	return conflicts
}

// --- Category 12: section over/under-enrollment ---

func (d *Detector) detectEnrollmentLimits(scheduleID string, slots []models.ScheduleSlot, inv *inventory.Inventory) []models.Conflict {
	seen := make(map[string]bool)
	var courseIDs []string
	for _, slot := range slots {
		if !seen[slot.CourseID] {
			seen[slot.CourseID] = true
			courseIDs = append(courseIDs, slot.CourseID)
		}
	}
	sort.Strings(courseIDs)

	var conflicts []models.Conflict
	for _, courseID := range courseIDs {
		course := inv.CourseByID(courseID)
		if course == nil {
			continue
		}
		enrollment := inv.ActiveEnrollmentCount(courseID)
		cid := courseID
		if course.MaxStudents > 0 && enrollment > course.MaxStudents {
			conflicts = append(conflicts, models.Conflict{
				ScheduleID: scheduleID,
				Type:       models.ConflictEnrollmentLimit,
				Severity:   models.SeverityHigh,
				Description: fmt.Sprintf("course %s has %d students enrolled over its limit of %d",
					course.Name, enrollment, course.MaxStudents),
				CourseID: &cid,
				Active:   true,
			})
		} else if course.MinEnrollment > 0 && enrollment < course.MinEnrollment {
			conflicts = append(conflicts, models.Conflict{
				ScheduleID: scheduleID,
				Type:       models.ConflictEnrollmentLimit,
				Severity:   models.SeverityMedium,
				Description: fmt.Sprintf("course %s has %d students enrolled, below the minimum of %d",
					course.Name, enrollment, course.MinEnrollment),
				CourseID: &cid,
				Active:   true,
			})
		}
	}
	return conflicts
}

// --- Category 13: duplicate enrollments ---

func (d *Detector) detectDuplicateEnrollments(scheduleID string, inv *inventory.Inventory) []models.Conflict {
	counts := make(map[string]int)
	for _, enr := range inv.Enrollments {
		if enr.Active {
			counts[enr.StudentID+"|"+enr.CourseID]++
		}
	}

	var conflicts []models.Conflict
	for _, key := range sortedKeys(counts) {
		if counts[key] <= 1 {
			continue
		}
		parts := strings.SplitN(key, "|", 2)
		studentID, courseID := parts[0], parts[1]
		conflicts = append(conflicts, models.Conflict{
			ScheduleID: scheduleID,
			Type:       models.ConflictDuplicateEnrollment,
			Severity:   models.SeverityHigh,
			Description: fmt.Sprintf("student %s enrolled %d times in course %s",
				studentID, counts[key], courseID),
			StudentID: &studentID,
			CourseID:  &courseID,
			Active:    true,
		})
	}
	return conflicts
}

// --- helpers ---

func groupSlots(slots []models.ScheduleSlot, keyFn func(models.ScheduleSlot) string) map[string][]models.ScheduleSlot {
	groups := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		if key := keyFn(slot); key != "" {
			groups[key] = append(groups[key], slot)
		}
	}
	for _, group := range groups {
		sortSlots(group)
	}
	return groups
}

// forEachTeacherDay invokes fn per (teacher, day) with slots sorted by start.
func forEachTeacherDay(slots []models.ScheduleSlot, fn func(teacherID, day string, ordered []models.ScheduleSlot)) {
	groups := groupSlots(slots, func(s models.ScheduleSlot) string {
		if s.TeacherID == "" {
			return ""
		}
		return s.TeacherID + "|" + s.DayOfWeek
	})
	for _, key := range sortedKeys(groups) {
		parts := strings.SplitN(key, "|", 2)
		fn(parts[0], parts[1], groups[key])
	}
}

func sortSlots(slots []models.ScheduleSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return models.WeekdayIndex(slots[i].DayOfWeek) < models.WeekdayIndex(slots[j].DayOfWeek)
		}
		if slots[i].StartMin != slots[j].StartMin {
			return slots[i].StartMin < slots[j].StartMin
		}
		return slots[i].ID < slots[j].ID
	})
}

func slotIDs(slots []models.ScheduleSlot) []string {
	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
