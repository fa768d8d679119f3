package sis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// Snapshot is one consistent read of every SIS entity set.
type Snapshot struct {
	Teachers     []models.Teacher             `json:"teachers"`
	Students     []models.Student             `json:"students"`
	Courses      []models.Course              `json:"courses"`
	Rooms        []models.Room                `json:"rooms"`
	Enrollments  []models.Enrollment          `json:"enrollments"`
	Lunches      []models.LunchAssignment     `json:"lunches"`
	Availability []models.TeacherAvailability `json:"availability"`
	FetchedAt    time.Time                    `json:"fetched_at"`
}

// Inventory materializes the snapshot into the engine's indexed view.
func (s *Snapshot) Inventory() *inventory.Inventory {
	return inventory.New(s.Teachers, s.Courses, s.Rooms, s.Students, s.Enrollments).
		WithAvailability(s.Availability)
}

// Empty reports whether the snapshot carries no scheduling substrate at all.
func (s *Snapshot) Empty() bool {
	return len(s.Teachers) == 0 && len(s.Courses) == 0 && len(s.Rooms) == 0
}

// Store caches the latest snapshot in memory with a Redis warm store behind
// it, so a restarted instance can serve schedules while the SIS is down.
type Store struct {
	client *Client
	redis  *redis.Client
	key    string
	ttl    time.Duration
	log    *zap.Logger

	mu      sync.RWMutex
	current *Snapshot
}

func NewStore(client *Client, rdb *redis.Client, key string, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if key == "" {
		key = "sis:snapshot"
	}
	return &Store{client: client, redis: rdb, key: key, ttl: ttl, log: log}
}

// Current returns the freshest usable snapshot: memory if within TTL, else a
// refresh, falling back to the warm store when the SIS yields nothing.
func (s *Store) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	cached := s.current
	s.mu.RUnlock()
	if cached != nil && time.Since(cached.FetchedAt) < s.ttl {
		return cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh pulls every entity set from the SIS and replaces the cache. When
// the SIS returns nothing the warm store is consulted before giving up.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Teachers:     s.client.Teachers(ctx),
		Students:     s.client.Students(ctx),
		Courses:      s.client.Courses(ctx),
		Rooms:        s.client.Rooms(ctx),
		Enrollments:  s.client.Enrollments(ctx),
		Lunches:      s.client.LunchAssignments(ctx),
		Availability: s.client.TeacherAvailability(ctx),
		FetchedAt:    time.Now(),
	}

	if snap.Empty() {
		if warm := s.loadWarm(ctx); warm != nil {
			s.log.Warn("sis snapshot empty, serving warm store copy",
				zap.Time("fetched_at", warm.FetchedAt))
			s.swap(warm)
			return warm, nil
		}
	}

	s.swap(snap)
	s.storeWarm(ctx, snap)
	s.log.Info("sis snapshot refreshed",
		zap.Int("teachers", len(snap.Teachers)),
		zap.Int("students", len(snap.Students)),
		zap.Int("courses", len(snap.Courses)),
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("enrollments", len(snap.Enrollments)))
	return snap, nil
}

// Healthy proxies the SIS health endpoint.
func (s *Store) Healthy(ctx context.Context) bool {
	return s.client.Health(ctx)
}

func (s *Store) swap(snap *Snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}

func (s *Store) loadWarm(ctx context.Context) *Snapshot {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn("warm store snapshot corrupt", zap.Error(err))
		return nil
	}
	return &snap
}

func (s *Store) storeWarm(ctx context.Context, snap *Snapshot) {
	if s.redis == nil || snap.Empty() {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	// Warm copies outlive the in-memory TTL so restarts can bridge outages.
	if err := s.redis.Set(ctx, s.key, raw, 24*time.Hour).Err(); err != nil {
		s.log.Warn("warm store write failed", zap.Error(err))
	}
}
