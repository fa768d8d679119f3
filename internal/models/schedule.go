package models

import "time"

// ScheduleStatus represents lifecycle phases for master schedules.
type ScheduleStatus string

const (
	ScheduleStatusDraft      ScheduleStatus = "DRAFT"
	ScheduleStatusInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleStatusReview     ScheduleStatus = "REVIEW"
	ScheduleStatusPublished  ScheduleStatus = "PUBLISHED"
	ScheduleStatusArchived   ScheduleStatus = "ARCHIVED"
)

// Schedule is a versioned master timetable.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Status    ScheduleStatus `db:"status" json:"status"`
	Score     float64        `db:"score" json:"score"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleSlot is a concrete (course, teacher, room, day, time) placement.
// Times are minutes since midnight; intervals are half-open [start, end).
type ScheduleSlot struct {
	ID         string    `db:"id" json:"id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	DayOfWeek  string    `db:"day_of_week" json:"day_of_week"`
	StartMin   int       `db:"start_min" json:"start_min"`
	EndMin     int       `db:"end_min" json:"end_min"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Overlaps reports whether two slots share a day and intersecting intervals.
func (s ScheduleSlot) Overlaps(other ScheduleSlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartMin < other.EndMin && other.StartMin < s.EndMin
}

// SlotDetail joins a slot with its resolved course, teacher, and room.
type SlotDetail struct {
	ScheduleSlot
	Course  Course  `db:"course" json:"course"`
	Teacher Teacher `db:"teacher" json:"teacher"`
	Room    Room    `db:"room" json:"room"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	Status   ScheduleStatus
	Search   string
	Page     int
	PageSize int
}
