package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// ScheduleRepository persists master schedules and their slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DB exposes the handle for callers coordinating transactions.
func (r *ScheduleRepository) DB() *sqlx.DB {
	return r.db
}

// Create inserts a schedule, assigning an identifier when absent.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `
INSERT INTO schedules (id, name, status, score, created_at, updated_at)
VALUES (:id, :name, :status, :score, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// FindByID loads a schedule by its identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, name, status, score, created_at, updated_at FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns schedules matching the filter plus the total count.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, name, status, score, created_at, updated_at FROM schedules
WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, (page-1)*size)

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// UpdateStatus moves a schedule through its lifecycle.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error {
	const query = `UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateScore records the solver score for a schedule.
func (r *ScheduleRepository) UpdateScore(ctx context.Context, exec sqlx.ExtContext, id string, score float64) error {
	const query = `UPDATE schedules SET score = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, score, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update schedule score: %w", err)
	}
	return nil
}

// Delete removes a schedule cascading to its slots and conflicts.
func (r *ScheduleRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM conflicts WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule conflicts: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule slots: %w", err)
	}
	result, err := target.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceSlots swaps the full slot set of a schedule.
func (r *ScheduleRepository) ReplaceSlots(ctx context.Context, exec sqlx.ExtContext, scheduleID string, slots []models.ScheduleSlot) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM schedule_slots WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear schedule slots: %w", err)
	}
	return r.insertSlots(ctx, target, scheduleID, slots)
}

// InsertSlots appends slots to a schedule.
func (r *ScheduleRepository) InsertSlots(ctx context.Context, exec sqlx.ExtContext, scheduleID string, slots []models.ScheduleSlot) error {
	return r.insertSlots(ctx, r.exec(exec), scheduleID, slots)
}

func (r *ScheduleRepository) insertSlots(ctx context.Context, target sqlx.ExtContext, scheduleID string, slots []models.ScheduleSlot) error {
	const query = `
INSERT INTO schedule_slots (id, schedule_id, course_id, teacher_id, room_id, day_of_week, start_min, end_min, created_at)
VALUES (:id, :schedule_id, :course_id, :teacher_id, :room_id, :day_of_week, :start_min, :end_min, :created_at)`
	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.ScheduleID = scheduleID
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert schedule slot: %w", err)
		}
	}
	return nil
}

// SlotsBySchedule returns the raw slots of a schedule.
func (r *ScheduleRepository) SlotsBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error) {
	const query = `SELECT id, schedule_id, course_id, teacher_id, room_id, day_of_week, start_min, end_min, created_at
FROM schedule_slots WHERE schedule_id = $1 ORDER BY day_of_week, start_min, id`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// SlotDetails returns slots joined with their course, teacher, and room.
func (r *ScheduleRepository) SlotDetails(ctx context.Context, scheduleID string) ([]models.SlotDetail, error) {
	const query = `SELECT
	sl.id, sl.schedule_id, sl.course_id, sl.teacher_id, sl.room_id, sl.day_of_week, sl.start_min, sl.end_min, sl.created_at,
	c.name AS "course.name", c.subject AS "course.subject", c.code AS "course.code",
	t.full_name AS "teacher.full_name", t.department AS "teacher.department",
	rm.number AS "room.number", rm.building AS "room.building", rm.room_type AS "room.room_type"
FROM schedule_slots sl
JOIN courses c ON c.id = sl.course_id
LEFT JOIN teachers t ON t.id = sl.teacher_id
LEFT JOIN rooms rm ON rm.id = sl.room_id
WHERE sl.schedule_id = $1
ORDER BY sl.day_of_week, sl.start_min, sl.id`
	var details []models.SlotDetail
	if err := r.db.SelectContext(ctx, &details, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list slot details: %w", err)
	}
	return details, nil
}
