package models

import "time"

// Course represents one section of a course offering cached from the SIS.
// The engine only ever mutates the teacher and room bindings.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	Subject          string    `db:"subject" json:"subject"`
	RequiresLab      bool      `db:"requires_lab" json:"requires_lab"`
	RequiredRoomType *RoomType `db:"required_room_type" json:"required_room_type,omitempty"`
	Enrollment       int       `db:"enrollment" json:"enrollment"`
	MaxStudents      int       `db:"max_students" json:"max_students"`
	MinEnrollment    int       `db:"min_enrollment" json:"min_enrollment"`
	SessionsPerWeek  int       `db:"sessions_per_week" json:"sessions_per_week"`
	Credits          *float64  `db:"credits" json:"credits,omitempty"`
	PriorityLevel    *int      `db:"priority_level" json:"priority_level,omitempty"`
	TeacherID        *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID           *string   `db:"room_id" json:"room_id,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Sessions returns the weekly session count, never below one.
func (c Course) Sessions() int {
	if c.SessionsPerWeek > 0 {
		return c.SessionsPerWeek
	}
	return 1
}

// Priority returns the configured priority level, defaulting to the lowest.
func (c Course) Priority() int {
	if c.PriorityLevel != nil {
		return *c.PriorityLevel
	}
	return 0
}
