package models

import "time"

// Student represents a learner cached from the SIS. The engine touches
// students only through enrollment tuples and counts.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	GradeLevel int       `db:"grade_level" json:"grade_level"`
	GPA        *float64  `db:"gpa" json:"gpa,omitempty"`
	HasIEP     bool      `db:"has_iep" json:"has_iep"`
	Has504     bool      `db:"has_504" json:"has_504"`
	Gifted     bool      `db:"gifted" json:"gifted"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Enrollment links a student to one course section.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
