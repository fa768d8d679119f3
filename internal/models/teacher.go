package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record cached from the SIS.
type Teacher struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Department        string         `db:"department" json:"department"`
	CertifiedSubjects pq.StringArray `db:"certified_subjects" json:"certified_subjects"`
	PlanningDay       *string        `db:"planning_day" json:"planning_day,omitempty"`
	PlanningStartMin  *int           `db:"planning_start_min" json:"planning_start_min,omitempty"`
	PlanningEndMin    *int           `db:"planning_end_min" json:"planning_end_min,omitempty"`
	MaxPeriodsPerDay  int            `db:"max_periods_per_day" json:"max_periods_per_day"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`

	// Derived from the current course binding; never persisted.
	AssignedCourses int `db:"-" json:"assigned_courses,omitempty"`
	TeachingPeriods int `db:"-" json:"teaching_periods,omitempty"`
}

// EffectiveMaxPeriodsPerDay falls back to the default daily cap.
func (t Teacher) EffectiveMaxPeriodsPerDay() int {
	if t.MaxPeriodsPerDay > 0 {
		return t.MaxPeriodsPerDay
	}
	return 7
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	PageSize   int
}
