package sis

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/pkg/config"
)

// Client talks to the external student information system. The SIS owns
// teachers, students, courses, and enrollments; we only read.
//
// Fetch methods never fail the caller: on any transport or decode error they
// log and return an empty list, so a degraded SIS yields an empty snapshot
// rather than a broken scheduling run.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.SISConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

func (c *Client) Students(ctx context.Context) []models.Student {
	return fetchList[models.Student](ctx, c, "/students")
}

func (c *Client) Teachers(ctx context.Context) []models.Teacher {
	return fetchList[models.Teacher](ctx, c, "/teachers")
}

func (c *Client) Courses(ctx context.Context) []models.Course {
	return fetchList[models.Course](ctx, c, "/courses")
}

func (c *Client) Rooms(ctx context.Context) []models.Room {
	return fetchList[models.Room](ctx, c, "/rooms")
}

func (c *Client) Enrollments(ctx context.Context) []models.Enrollment {
	return fetchList[models.Enrollment](ctx, c, "/enrollments")
}

func (c *Client) LunchAssignments(ctx context.Context) []models.LunchAssignment {
	return fetchList[models.LunchAssignment](ctx, c, "/lunch-assignments")
}

func (c *Client) TeacherAvailability(ctx context.Context) []models.TeacherAvailability {
	return fetchList[models.TeacherAvailability](ctx, c, "/teacher-availability")
}

// Health reports whether the SIS answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func fetchList[T any](ctx context.Context, c *Client, path string) []T {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.log.Warn("sis request build failed", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("sis unreachable", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("sis returned non-200", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return []T{}
	}

	var out []T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("sis payload decode failed", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	c.log.Debug("sis fetch", zap.String("path", path), zap.Int("count", len(out)))
	return out
}
