package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/internal/repository"
	"github.com/noah-isme/k12-scheduler-api/internal/sis"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
)

// TeacherWriter persists the teacher cache.
type TeacherWriter interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, teachers []models.Teacher) error
}

// CourseWriter persists the course cache.
type CourseWriter interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, courses []models.Course) error
}

// SnapshotRefresher forces a fresh SIS read.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*sis.Snapshot, error)
}

// SyncResult summarizes one cache refresh.
type SyncResult struct {
	Teachers    int `json:"teachers"`
	Courses     int `json:"courses"`
	Rooms       int `json:"rooms"`
	Students    int `json:"students"`
	Enrollments int `json:"enrollments"`
}

// SyncService mirrors SIS teachers and courses into the local cache tables so
// the engine can annotate them (teacher bindings, room pins) without writing
// back to the SIS.
type SyncService struct {
	snapshots SnapshotRefresher
	teachers  TeacherWriter
	courses   CourseWriter
	db        *sqlx.DB
	logger    *zap.Logger
}

// NewSyncService builds the cache synchronizer. db may be nil in tests.
func NewSyncService(snapshots SnapshotRefresher, teachers TeacherWriter, courses CourseWriter, db *sqlx.DB, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{snapshots: snapshots, teachers: teachers, courses: courses, db: db, logger: logger}
}

// Sync pulls a fresh snapshot and upserts teachers and courses in one
// transaction.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	snap, err := s.snapshots.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "SIS returned no data to sync")
	}

	upsert := func(exec sqlx.ExtContext) error {
		if err := s.teachers.UpsertBatch(ctx, exec, snap.Teachers); err != nil {
			return err
		}
		return s.courses.UpsertBatch(ctx, exec, snap.Courses)
	}
	if s.db == nil {
		err = upsert(nil)
	} else {
		err = repository.Transact(ctx, s.db, func(tx *sqlx.Tx) error { return upsert(tx) })
	}
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Teachers:    len(snap.Teachers),
		Courses:     len(snap.Courses),
		Rooms:       len(snap.Rooms),
		Students:    len(snap.Students),
		Enrollments: len(snap.Enrollments),
	}
	s.logger.Info("sis cache synced",
		zap.Int("teachers", result.Teachers),
		zap.Int("courses", result.Courses),
		zap.Int("rooms", result.Rooms))
	return result, nil
}
