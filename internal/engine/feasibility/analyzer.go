package feasibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/subject"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// ViolationType classifies pre-solve supply problems.
type ViolationType string

const (
	ViolationNoTeacher          ViolationType = "NO_TEACHER"
	ViolationNoRoom             ViolationType = "NO_ROOM"
	ViolationRoomCapacity       ViolationType = "ROOM_CAPACITY"
	ViolationTeacherOverload    ViolationType = "TEACHER_OVERLOAD"
	ViolationRoomTypeMismatch   ViolationType = "ROOM_TYPE_MISMATCH"
	ViolationSchedulingConflict ViolationType = "SCHEDULING_CONFLICT"
	ViolationInsufficientRooms  ViolationType = "INSUFFICIENT_ROOMS"
)

// ActionType names a corrective action a violation suggests.
type ActionType string

const (
	ActionHireTeacher    ActionType = "hire_teacher"
	ActionAddRooms       ActionType = "add_rooms"
	ActionEnableSharing  ActionType = "enable_sharing"
	ActionSplitSections  ActionType = "split_sections"
	ActionReassignCourse ActionType = "reassign_course"
	ActionRelocateCourse ActionType = "relocate_course"
)

// SuggestedAction targets one entity with a concrete remediation.
type SuggestedAction struct {
	Type        ActionType        `json:"type"`
	TargetID    string            `json:"target_id,omitempty"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params,omitempty"`
}

// Violation is one actionable supply/demand problem.
type Violation struct {
	Type        ViolationType           `json:"type"`
	Severity    models.ConflictSeverity `json:"severity"`
	EntityID    string                  `json:"entity_id,omitempty"`
	EntityName  string                  `json:"entity_name,omitempty"`
	Description string                  `json:"description"`
	Actions     []SuggestedAction       `json:"actions,omitempty"`
}

// Report aggregates the audit outcome.
type Report struct {
	Violations     []Violation                     `json:"violations"`
	SeverityCounts map[models.ConflictSeverity]int `json:"severity_counts"`
	CanAutoFix     bool                            `json:"can_auto_fix"`
}

// Analyzer performs read-only pre-solve audits over an inventory snapshot.
type Analyzer struct {
	cfg models.SchedulerConfiguration
}

// New builds an analyzer for the given configuration.
func New(cfg models.SchedulerConfiguration) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs every audit. The call is pure: it never mutates the inventory
// and repeated invocations over the same snapshot return equal reports.
func (a *Analyzer) Analyze(inv *inventory.Inventory) Report {
	var violations []Violation
	violations = append(violations, a.auditTeacherSupply(inv)...)
	violations = append(violations, a.auditRoomSupply(inv)...)
	violations = append(violations, a.auditRoomCapacity(inv)...)
	violations = append(violations, a.auditTeacherWorkload(inv)...)

	counts := make(map[models.ConflictSeverity]int)
	canAutoFix := len(violations) > 0
	for _, v := range violations {
		counts[v.Severity]++
		if len(v.Actions) == 0 {
			canAutoFix = false
		}
	}
	return Report{Violations: violations, SeverityCounts: counts, CanAutoFix: canAutoFix}
}

// auditTeacherSupply flags active courses no teacher could cover.
func (a *Analyzer) auditTeacherSupply(inv *inventory.Inventory) []Violation {
	var violations []Violation
	workloads := snapshotWorkloads(inv, a.cfg)

	for _, course := range inv.ActiveCourses() {
		if course.TeacherID != nil && *course.TeacherID != "" {
			continue
		}
		certified := 0
		withHeadroom := 0
		for _, teacher := range inv.Teachers {
			if !teacher.Active {
				continue
			}
			if subject.BestMatch(teacher.CertifiedSubjects, course.Subject) == subject.MatchNone {
				continue
			}
			certified++
			if workloads[teacher.ID]+a.cfg.CourseWorkload(course) <= a.cfg.Thresholds.HardCap {
				withHeadroom++
			}
		}
		if withHeadroom > 0 {
			continue
		}
		v := Violation{
			Type:       ViolationNoTeacher,
			Severity:   models.SeverityCritical,
			EntityID:   course.ID,
			EntityName: course.Name,
		}
		if certified == 0 {
			v.Description = fmt.Sprintf("no teacher is certified for %s (%s)", course.Name, course.Subject)
			v.Actions = []SuggestedAction{{
				Type:        ActionHireTeacher,
				Description: fmt.Sprintf("hire a teacher certified in %s", course.Subject),
				Params:      map[string]string{"subject": course.Subject},
			}}
		} else {
			v.Description = fmt.Sprintf("all %d certified teachers for %s are at capacity", certified, course.Name)
			v.Actions = []SuggestedAction{{
				Type:        ActionSplitSections,
				TargetID:    course.ID,
				Description: fmt.Sprintf("reduce load or split %s across terms", course.Name),
			}}
		}
		violations = append(violations, v)
	}
	return violations
}

// auditRoomSupply compares weekly specialized-room demand against supply.
func (a *Analyzer) auditRoomSupply(inv *inventory.Inventory) []Violation {
	weekly := a.cfg.WeeklyPeriods()
	if weekly <= 0 {
		return nil
	}

	type classDemand struct {
		sections int
		periods  int
	}
	demand := make(map[string]classDemand)
	for _, course := range inv.ActiveCourses() {
		class := roomClassFor(course)
		if class == "" {
			continue
		}
		d := demand[class]
		d.sections++
		d.periods += course.Sessions()
		demand[class] = d
	}

	var violations []Violation
	classes := make([]string, 0, len(demand))
	for class := range demand {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		d := demand[class]
		rooms := roomsOfClass(inv, class)
		available := 0
		for _, room := range rooms {
			available += room.ConcurrentLimit() * weekly
		}
		shortfall := d.periods - available
		if shortfall <= 0 {
			continue
		}

		severity := models.SeverityMedium
		if d.sections > 3 {
			severity = models.SeverityHigh
		}

		totalNeeded := ceilDiv(d.periods, weekly)
		actions := []SuggestedAction{{
			Type:        ActionAddRooms,
			Description: fmt.Sprintf("add %d more %s room(s) (%d total needed)", totalNeeded-len(rooms), class, totalNeeded),
			Params:      map[string]string{"room_class": class, "count": fmt.Sprintf("%d", totalNeeded-len(rooms))},
		}}
		if len(rooms) > 0 {
			target := ceilDiv(d.periods, len(rooms)*weekly)
			if target < 2 {
				target = 2
			}
			actions = append(actions, SuggestedAction{
				Type:        ActionEnableSharing,
				TargetID:    rooms[0].ID,
				Description: fmt.Sprintf("enable sharing on existing %s rooms with maxConcurrentClasses=%d", class, target),
				Params:      map[string]string{"max_concurrent_classes": fmt.Sprintf("%d", target)},
			})
		}
		actions = append(actions, SuggestedAction{
			Type:        ActionSplitSections,
			Description: fmt.Sprintf("reduce or combine %d %s sections to fit available periods", d.sections, class),
		})

		violations = append(violations, Violation{
			Type:       ViolationInsufficientRooms,
			Severity:   severity,
			EntityName: class,
			Description: fmt.Sprintf("%s demand is %d weekly periods but only %d are available (shortfall %d)",
				class, d.periods, available, shortfall),
			Actions: actions,
		})
	}
	return violations
}

// auditRoomCapacity flags courses larger than the biggest standard classroom.
func (a *Analyzer) auditRoomCapacity(inv *inventory.Inventory) []Violation {
	largest := 0
	for _, room := range inv.Rooms {
		if room.Type == models.RoomTypeClassroom && room.Schedulable() && room.Capacity > largest {
			largest = room.Capacity
		}
	}
	if largest == 0 {
		return nil
	}

	var violations []Violation
	for _, course := range inv.ActiveCourses() {
		enrollment := inv.ActiveEnrollmentCount(course.ID)
		if enrollment <= largest {
			continue
		}
		severity := models.SeverityMedium
		if enrollment > largest+largest/4 {
			severity = models.SeverityHigh
		}
		var actions []SuggestedAction
		for _, room := range inv.SchedulableRooms() {
			if room.EffectiveMaxCapacity() >= enrollment {
				actions = append(actions, SuggestedAction{
					Type:        ActionRelocateCourse,
					TargetID:    room.ID,
					Description: fmt.Sprintf("move %s to room %s (capacity %d)", course.Name, room.Number, room.EffectiveMaxCapacity()),
				})
			}
		}
		violations = append(violations, Violation{
			Type:       ViolationRoomCapacity,
			Severity:   severity,
			EntityID:   course.ID,
			EntityName: course.Name,
			Description: fmt.Sprintf("%s has %d students but the largest classroom seats %d",
				course.Name, enrollment, largest),
			Actions: actions,
		})
	}
	return violations
}

// auditTeacherWorkload flags over-cap teachers and proposes reassignments.
func (a *Analyzer) auditTeacherWorkload(inv *inventory.Inventory) []Violation {
	workloads := snapshotWorkloads(inv, a.cfg)

	var violations []Violation
	for _, teacher := range inv.Teachers {
		load := workloads[teacher.ID]
		if load <= a.cfg.Thresholds.HardCap {
			continue
		}
		var actions []SuggestedAction
		for _, course := range inv.CoursesBoundTo(teacher.ID) {
			for _, candidate := range inv.Teachers {
				if candidate.ID == teacher.ID || !candidate.Active {
					continue
				}
				if subject.BestMatch(candidate.CertifiedSubjects, course.Subject) == subject.MatchNone {
					continue
				}
				if workloads[candidate.ID]+a.cfg.CourseWorkload(*course) > a.cfg.Thresholds.HardCap {
					continue
				}
				actions = append(actions, SuggestedAction{
					Type:        ActionReassignCourse,
					TargetID:    candidate.ID,
					Description: fmt.Sprintf("reassign %s to %s", course.Name, candidate.FullName),
					Params:      map[string]string{"course_id": course.ID},
				})
				break
			}
		}
		violations = append(violations, Violation{
			Type:       ViolationTeacherOverload,
			Severity:   models.SeverityHigh,
			EntityID:   teacher.ID,
			EntityName: teacher.FullName,
			Description: fmt.Sprintf("%s carries %.1f workload units, above the cap of %.1f",
				teacher.FullName, load, a.cfg.Thresholds.HardCap),
			Actions: actions,
		})
	}
	return violations
}

func snapshotWorkloads(inv *inventory.Inventory, cfg models.SchedulerConfiguration) map[string]float64 {
	result := make(map[string]float64, len(inv.Teachers))
	for _, teacher := range inv.Teachers {
		var load float64
		for _, course := range inv.CoursesBoundTo(teacher.ID) {
			load += cfg.CourseWorkload(*course)
		}
		result[teacher.ID] = load
	}
	return result
}

// roomClassFor maps a course onto the specialized room class it demands.
// Empty string means any standard classroom will do.
func roomClassFor(course models.Course) string {
	if course.RequiredRoomType != nil {
		return string(*course.RequiredRoomType)
	}
	if course.RequiresLab {
		return string(models.RoomTypeScienceLab)
	}
	switch subject.FamilyOf(course.Subject) {
	case subject.FamilyComputing:
		return string(models.RoomTypeComputerLab)
	case subject.FamilyPE:
		return string(models.RoomTypeGymnasium)
	case subject.FamilyArts:
		if strings.Contains(strings.ToLower(course.Subject), "music") ||
			strings.Contains(strings.ToLower(course.Subject), "band") ||
			strings.Contains(strings.ToLower(course.Subject), "chorus") {
			return string(models.RoomTypeMusicRoom)
		}
		return string(models.RoomTypeArtStudio)
	}
	return ""
}

// roomsOfClass returns schedulable rooms satisfying a room class. Lab-family
// classes accept any lab type.
func roomsOfClass(inv *inventory.Inventory, class string) []models.Room {
	want := models.RoomType(class)
	var result []models.Room
	for _, room := range inv.SchedulableRooms() {
		if room.Type == want {
			result = append(result, room)
			continue
		}
		if want.IsLab() && room.Type.IsLab() {
			result = append(result, room)
		}
		switch want {
		case models.RoomTypeMusicRoom:
			if room.Type == models.RoomTypeBandRoom || room.Type == models.RoomTypeChorusRoom {
				result = append(result, room)
			}
		}
	}
	return result
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
