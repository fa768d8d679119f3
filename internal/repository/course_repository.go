package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// CourseRepository manages the locally cached course records. Courses are
// owned by the SIS; the engine only mutates the teacher binding.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch replaces cached course rows with a fresh SIS snapshot.
func (r *CourseRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, courses []models.Course) error {
	const query = `
INSERT INTO courses (id, code, name, subject, requires_lab, required_room_type, enrollment, max_students, min_enrollment, sessions_per_week, credits, priority_level, teacher_id, room_id, active, created_at, updated_at)
VALUES (:id, :code, :name, :subject, :requires_lab, :required_room_type, :enrollment, :max_students, :min_enrollment, :sessions_per_week, :credits, :priority_level, :teacher_id, :room_id, :active, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
	code = EXCLUDED.code, name = EXCLUDED.name, subject = EXCLUDED.subject,
	requires_lab = EXCLUDED.requires_lab,
	required_room_type = EXCLUDED.required_room_type, enrollment = EXCLUDED.enrollment,
	max_students = EXCLUDED.max_students, min_enrollment = EXCLUDED.min_enrollment,
	sessions_per_week = EXCLUDED.sessions_per_week, credits = EXCLUDED.credits,
	priority_level = EXCLUDED.priority_level, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range courses {
		course := &courses[i]
		if course.CreatedAt.IsZero() {
			course.CreatedAt = now
		}
		course.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, course); err != nil {
			return fmt.Errorf("upsert course %s: %w", course.ID, err)
		}
	}
	return nil
}

// List returns all cached courses.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, code, name, subject, requires_lab, required_room_type, enrollment, max_students, min_enrollment, sessions_per_week, credits, priority_level, teacher_id, room_id, active, created_at, updated_at
FROM courses ORDER BY id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// UpdateTeacherBinding writes the matcher's course-to-teacher assignment.
func (r *CourseRepository) UpdateTeacherBinding(ctx context.Context, exec sqlx.ExtContext, courseID string, teacherID *string) error {
	const query = `UPDATE courses SET teacher_id = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, teacherID, time.Now().UTC(), courseID)
	if err != nil {
		return fmt.Errorf("update course teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course binding rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
