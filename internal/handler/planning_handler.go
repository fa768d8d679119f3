package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/k12-scheduler-api/internal/dto"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/feasibility"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/matcher"
	"github.com/noah-isme/k12-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
	"github.com/noah-isme/k12-scheduler-api/pkg/response"
)

type planningService interface {
	MatchTeachers(ctx context.Context, req dto.MatchTeachersRequest) (*matcher.Result, error)
	AnalyzeFeasibility(ctx context.Context) (*feasibility.Report, error)
}

type cacheSyncer interface {
	Sync(ctx context.Context) (*service.SyncResult, error)
}

// PlanningHandler exposes the pre-solve planning endpoints: feasibility
// audits, teacher-course matching, and SIS cache synchronization.
type PlanningHandler struct {
	planning planningService
	sync     cacheSyncer
}

// NewPlanningHandler constructs the handler.
func NewPlanningHandler(planning *service.ScheduleService, sync *service.SyncService) *PlanningHandler {
	return &PlanningHandler{planning: planning, sync: sync}
}

// MatchTeachers runs the teacher-course matcher over the current snapshot.
func (h *PlanningHandler) MatchTeachers(c *gin.Context) {
	var req dto.MatchTeachersRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid match payload"))
		return
	}
	result, err := h.planning.MatchTeachers(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Feasibility audits supply against demand before any solve.
func (h *PlanningHandler) Feasibility(c *gin.Context) {
	report, err := h.planning.AnalyzeFeasibility(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Sync refreshes the SIS snapshot and mirrors teachers and courses into the
// local cache tables.
func (h *PlanningHandler) Sync(c *gin.Context) {
	result, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
