package models

import (
	"time"

	"github.com/lib/pq"
)

// ConflictSeverity grades detected violations. CRITICAL blocks publication.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityLow      ConflictSeverity = "LOW"
	SeverityInfo     ConflictSeverity = "INFO"
)

// ConflictType enumerates detector categories.
type ConflictType string

const (
	ConflictTeacherOverload       ConflictType = "TEACHER_OVERLOAD"
	ConflictRoomDoubleBooking     ConflictType = "ROOM_DOUBLE_BOOKING"
	ConflictStudentConflict       ConflictType = "STUDENT_SCHEDULE_CONFLICT"
	ConflictMissingBreak          ConflictType = "MISSING_BREAK"
	ConflictMissingLunchBreak     ConflictType = "MISSING_LUNCH_BREAK"
	ConflictExcessiveConsecutive  ConflictType = "EXCESSIVE_CONSECUTIVE_CLASSES"
	ConflictRoomCapacityExceeded  ConflictType = "ROOM_CAPACITY_EXCEEDED"
	ConflictRoomTypeMismatch      ConflictType = "ROOM_TYPE_MISMATCH"
	ConflictExcessiveTeacherHours ConflictType = "EXCESSIVE_TEACHER_HOURS"
	ConflictMissingPrepPeriod     ConflictType = "MISSING_PREP_PERIOD"
	ConflictSubjectMismatch       ConflictType = "SUBJECT_MISMATCH"
	ConflictBuildingTravel        ConflictType = "BUILDING_TRAVEL_TIME"
	ConflictEnrollmentLimit       ConflictType = "ENROLLMENT_LIMIT"
	ConflictDuplicateEnrollment   ConflictType = "DUPLICATE_ENROLLMENT"
)

// Conflict records one detected violation against a schedule.
type Conflict struct {
	ID          string           `db:"id" json:"id"`
	ScheduleID  string           `db:"schedule_id" json:"schedule_id"`
	Type        ConflictType     `db:"conflict_type" json:"conflict_type"`
	Severity    ConflictSeverity `db:"severity" json:"severity"`
	Description string           `db:"description" json:"description"`
	SlotIDs     pq.StringArray   `db:"slot_ids" json:"slot_ids"`
	TeacherID   *string          `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID      *string          `db:"room_id" json:"room_id,omitempty"`
	CourseID    *string          `db:"course_id" json:"course_id,omitempty"`
	StudentID   *string          `db:"student_id" json:"student_id,omitempty"`
	Active      bool             `db:"active" json:"active"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// ValidationSummary aggregates conflicts by severity.
type ValidationSummary struct {
	Valid          bool                     `json:"valid"`
	SeverityCounts map[ConflictSeverity]int `json:"severity_counts"`
	CriticalCount  int                      `json:"critical_count"`
	Conflicts      []Conflict               `json:"conflicts"`
}
