package sis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/k12-scheduler-api/pkg/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.SISConfig{BaseURL: baseURL, Timeout: time.Second}, nil)
}

func TestClientFetchesEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/teachers":
			w.Write([]byte(`[{"id":"t1","full_name":"Mr. Euler","certified_subjects":["Math"],"active":true}]`))
		case "/courses":
			w.Write([]byte(`[{"id":"c1","name":"Algebra","subject":"Math","sessions_per_week":5,"active":true}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx := context.Background()

	teachers := c.Teachers(ctx)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Mr. Euler", teachers[0].FullName)
	assert.Equal(t, []string{"Math"}, []string(teachers[0].CertifiedSubjects))

	courses := c.Courses(ctx)
	require.Len(t, courses, 1)
	assert.Equal(t, 5, courses[0].SessionsPerWeek)

	assert.Empty(t, c.Students(ctx))
}

func TestClientReturnsEmptyListOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	teachers := c.Teachers(context.Background())
	assert.NotNil(t, teachers)
	assert.Empty(t, teachers)
}

func TestClientReturnsEmptyListWhenUnreachable(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")

	assert.Empty(t, c.Teachers(context.Background()))
	assert.Empty(t, c.Enrollments(context.Background()))
}

func TestClientReturnsEmptyListOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	assert.Empty(t, newTestClient(srv.URL).Courses(context.Background()))
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.True(t, newTestClient(srv.URL).Health(context.Background()))
	assert.False(t, newTestClient("http://127.0.0.1:1").Health(context.Background()))
}

func TestStoreServesCachedSnapshotWithinTTL(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/teachers" {
			calls++
		}
		w.Write([]byte(`[{"id":"t1","active":true}]`))
	}))
	defer srv.Close()

	store := NewStore(newTestClient(srv.URL), nil, "sis:snapshot", time.Minute, nil)
	ctx := context.Background()

	first, err := store.Current(ctx)
	require.NoError(t, err)
	second, err := store.Current(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls, "second read must come from the in-memory cache")
}

func TestStoreRefreshReplacesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"t1","active":true}]`))
	}))
	defer srv.Close()

	store := NewStore(newTestClient(srv.URL), nil, "sis:snapshot", time.Minute, nil)
	ctx := context.Background()

	first, err := store.Refresh(ctx)
	require.NoError(t, err)
	second, err := store.Refresh(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Len(t, second.Teachers, 1)
}

func TestSnapshotInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/teachers":
			w.Write([]byte(`[{"id":"t1","active":true}]`))
		case "/courses":
			w.Write([]byte(`[{"id":"c1","subject":"Math","active":true}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	store := NewStore(newTestClient(srv.URL), nil, "", time.Minute, nil)
	snap, err := store.Refresh(context.Background())
	require.NoError(t, err)

	inv := snap.Inventory()
	assert.NotNil(t, inv.TeacherByID("t1"))
	assert.NotNil(t, inv.CourseByID("c1"))
	assert.False(t, snap.Empty())
}
