package dto

import (
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// CreateScheduleRequest opens a new draft schedule.
type CreateScheduleRequest struct {
	Name string `json:"name" validate:"required,min=3,max=120"`
}

// GenerateScheduleRequest starts a solver run for a schedule. AcceptPartial
// persists an incomplete timetable when the solver cannot place everything;
// without it an infeasible run leaves the schedule as an empty draft.
type GenerateScheduleRequest struct {
	Name              string `json:"name" validate:"required,min=3,max=120"`
	Algorithm         string `json:"algorithm" validate:"omitempty,oneof=greedy local_search annealing"`
	TimeBudgetSeconds int    `json:"timeBudgetSeconds" validate:"omitempty,min=1,max=3600"`
	UnimprovedSeconds int    `json:"unimprovedSeconds" validate:"omitempty,min=1,max=600"`
	Seed              int64  `json:"seed"`
	Async             bool   `json:"async"`
	AcceptPartial     bool   `json:"acceptPartial"`
}

// GenerateScheduleResponse reports the schedule created for the run and, for
// synchronous runs, the solve outcome.
type GenerateScheduleResponse struct {
	ScheduleID string                `json:"scheduleId"`
	Status     models.ScheduleStatus `json:"status"`
	Score      *float64              `json:"score,omitempty"`
	Feasible   *bool                 `json:"feasible,omitempty"`
	Unplaced   int                   `json:"unplaced,omitempty"`
	Blocking   string                `json:"blocking,omitempty"`
	SlotCount  int                   `json:"slotCount,omitempty"`
}

// ValidateSlotRequest probes one candidate placement against a schedule
// without persisting it.
type ValidateSlotRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	TeacherID string `json:"teacherId" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	DayOfWeek string `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartMin  int    `json:"startMin" validate:"min=0,max=1439"`
	EndMin    int    `json:"endMin" validate:"min=1,max=1440,gtfield=StartMin"`
}

// Slot converts the request into a domain slot.
func (r ValidateSlotRequest) Slot() models.ScheduleSlot {
	return models.ScheduleSlot{
		CourseID:  r.CourseID,
		TeacherID: r.TeacherID,
		RoomID:    r.RoomID,
		DayOfWeek: r.DayOfWeek,
		StartMin:  r.StartMin,
		EndMin:    r.EndMin,
	}
}

// CloneScheduleRequest names the draft copy.
type CloneScheduleRequest struct {
	Name string `json:"name" validate:"omitempty,min=3,max=120"`
}

// MatchTeachersRequest runs the teacher-course matcher.
type MatchTeachersRequest struct {
	Persist bool `json:"persist"`
}

// ListSchedulesRequest carries list filters from query params.
type ListSchedulesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=DRAFT IN_PROGRESS REVIEW PUBLISHED ARCHIVED"`
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ScheduleResponse is the public shape of a schedule.
type ScheduleResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Status    models.ScheduleStatus `json:"status"`
	Score     float64               `json:"score"`
	CreatedAt string                `json:"createdAt"`
	UpdatedAt string                `json:"updatedAt"`
}

// NewScheduleResponse maps a schedule model for transport.
func NewScheduleResponse(s models.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		Score:     s.Score,
		CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
