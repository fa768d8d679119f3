package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/internal/sis"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
)

type fakeRefresher struct {
	snap *sis.Snapshot
}

func (f *fakeRefresher) Refresh(context.Context) (*sis.Snapshot, error) { return f.snap, nil }

type recordingWriter struct {
	teachers []models.Teacher
}

func (w *recordingWriter) UpsertBatch(_ context.Context, _ sqlx.ExtContext, teachers []models.Teacher) error {
	w.teachers = teachers
	return nil
}

type recordingCourseWriter struct {
	courses []models.Course
}

func (w *recordingCourseWriter) UpsertBatch(_ context.Context, _ sqlx.ExtContext, courses []models.Course) error {
	w.courses = courses
	return nil
}

func TestSyncMirrorsSnapshot(t *testing.T) {
	snap := serviceSnapshot()
	teachers := &recordingWriter{}
	courses := &recordingCourseWriter{}
	svc := NewSyncService(&fakeRefresher{snap: snap}, teachers, courses, nil, nil)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Teachers)
	assert.Equal(t, 2, result.Courses)
	assert.Len(t, teachers.teachers, 2)
	assert.Len(t, courses.courses, 2)
}

func TestSyncRefusesEmptySnapshot(t *testing.T) {
	svc := NewSyncService(&fakeRefresher{snap: &sis.Snapshot{FetchedAt: time.Now()}}, &recordingWriter{}, &recordingCourseWriter{}, nil, nil)

	_, err := svc.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
