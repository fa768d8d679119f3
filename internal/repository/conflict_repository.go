package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// ConflictRepository persists detected conflicts per schedule.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a ConflictRepository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

func (r *ConflictRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Save inserts conflicts, assigning identifiers to fresh detections.
func (r *ConflictRepository) Save(ctx context.Context, exec sqlx.ExtContext, conflicts []models.Conflict) error {
	const query = `
INSERT INTO conflicts (id, schedule_id, conflict_type, severity, description, slot_ids, teacher_id, room_id, course_id, student_id, active, created_at)
VALUES (:id, :schedule_id, :conflict_type, :severity, :description, :slot_ids, :teacher_id, :room_id, :course_id, :student_id, :active, :created_at)`
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range conflicts {
		c := &conflicts[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, c); err != nil {
			return fmt.Errorf("insert conflict: %w", err)
		}
	}
	return nil
}

// FindBySchedule returns every active conflict attached to a schedule.
func (r *ConflictRepository) FindBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error) {
	const query = `SELECT id, schedule_id, conflict_type, severity, description, slot_ids, teacher_id, room_id, course_id, student_id, active, created_at
FROM conflicts WHERE schedule_id = $1 AND active = true ORDER BY severity, conflict_type, id`
	var conflicts []models.Conflict
	if err := r.db.SelectContext(ctx, &conflicts, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return conflicts, nil
}

// DeleteBySchedule removes all conflicts of a schedule.
func (r *ConflictRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM conflicts WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete conflicts: %w", err)
	}
	return nil
}

// CountActiveBySchedule answers hasConflicts in O(1) for the lifecycle gate.
func (r *ConflictRepository) CountActiveBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM conflicts WHERE schedule_id = $1 AND active = true`
	var total int
	if err := r.db.GetContext(ctx, &total, query, scheduleID); err != nil {
		return 0, fmt.Errorf("count conflicts: %w", err)
	}
	return total, nil
}

// CountCriticalBySchedule counts active CRITICAL conflicts.
func (r *ConflictRepository) CountCriticalBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM conflicts WHERE schedule_id = $1 AND active = true AND severity = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, scheduleID, models.SeverityCritical); err != nil {
		return 0, fmt.Errorf("count critical conflicts: %w", err)
	}
	return total, nil
}
