package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// TeacherRepository manages the locally cached teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch replaces cached teacher rows with a fresh SIS snapshot.
func (r *TeacherRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, teachers []models.Teacher) error {
	const query = `
INSERT INTO teachers (id, full_name, department, certified_subjects, planning_day, planning_start_min, planning_end_min, max_periods_per_day, active, created_at, updated_at)
VALUES (:id, :full_name, :department, :certified_subjects, :planning_day, :planning_start_min, :planning_end_min, :max_periods_per_day, :active, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
	full_name = EXCLUDED.full_name, department = EXCLUDED.department,
	certified_subjects = EXCLUDED.certified_subjects, planning_day = EXCLUDED.planning_day,
	planning_start_min = EXCLUDED.planning_start_min, planning_end_min = EXCLUDED.planning_end_min,
	max_periods_per_day = EXCLUDED.max_periods_per_day, active = EXCLUDED.active,
	updated_at = EXCLUDED.updated_at`
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range teachers {
		teacher := &teachers[i]
		if teacher.CreatedAt.IsZero() {
			teacher.CreatedAt = now
		}
		teacher.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, teacher); err != nil {
			return fmt.Errorf("upsert teacher %s: %w", teacher.ID, err)
		}
	}
	return nil
}

// List returns teachers matching the filter.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT id, full_name, department, certified_subjects, planning_day, planning_start_min, planning_end_min, max_periods_per_day, active, created_at, updated_at
FROM teachers WHERE %s ORDER BY full_name LIMIT %d OFFSET %d`, where, size, (page-1)*size)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM teachers WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}
