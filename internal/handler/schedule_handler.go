package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/k12-scheduler-api/internal/dto"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
	"github.com/noah-isme/k12-scheduler-api/pkg/response"
)

type scheduleLifecycle interface {
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, req dto.ListSchedulesRequest) ([]models.Schedule, *models.Pagination, error)
	Slots(ctx context.Context, id string) ([]models.SlotDetail, error)
	Conflicts(ctx context.Context, id string) ([]models.Conflict, error)
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	ValidateSchedule(ctx context.Context, id string) (models.ValidationSummary, error)
	DetectForSlot(ctx context.Context, id string, req dto.ValidateSlotRequest) ([]models.Conflict, error)
	Publish(ctx context.Context, id string) (*models.Schedule, error)
	Archive(ctx context.Context, id string) (*models.Schedule, error)
	Clone(ctx context.Context, id string, req dto.CloneScheduleRequest) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler exposes the schedule lifecycle endpoints.
type ScheduleHandler struct {
	service scheduleLifecycle
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Create opens a new draft schedule.
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewScheduleResponse(*schedule))
}

// List returns schedules matching the query filters.
func (h *ScheduleHandler) List(c *gin.Context) {
	var req dto.ListSchedulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid list filters"))
		return
	}
	schedules, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, dto.NewScheduleResponse(s))
	}
	response.JSON(c, http.StatusOK, out, pagination)
}

// Get returns one schedule by ID.
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewScheduleResponse(*schedule), nil)
}

// Slots returns the resolved slot details of a schedule.
func (h *ScheduleHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Conflicts returns the persisted conflicts of a schedule.
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.Conflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Generate runs the solver. Async requests return 202 with the schedule ID
// to poll; synchronous requests block until the solve completes.
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil && result == nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if req.Async {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result, nil)
}

// Validate re-runs conflict detection and returns the severity summary.
func (h *ScheduleHandler) Validate(c *gin.Context) {
	summary, err := h.service.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ValidateSlot probes one candidate placement against the stored schedule
// without persisting it. Only the as-if-inserted categories run.
func (h *ScheduleHandler) ValidateSlot(c *gin.Context) {
	var req dto.ValidateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	conflicts, err := h.service.DetectForSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Publish promotes a reviewed schedule to PUBLISHED.
func (h *ScheduleHandler) Publish(c *gin.Context) {
	schedule, err := h.service.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewScheduleResponse(*schedule), nil)
}

// Archive retires a schedule.
func (h *ScheduleHandler) Archive(c *gin.Context) {
	schedule, err := h.service.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewScheduleResponse(*schedule), nil)
}

// Clone duplicates a schedule into a new draft.
func (h *ScheduleHandler) Clone(c *gin.Context) {
	var req dto.CloneScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid clone payload"))
		return
	}
	clone, err := h.service.Clone(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewScheduleResponse(*clone))
}

// Delete removes a draft or archived schedule.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
