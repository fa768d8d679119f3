package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/dto"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/conflict"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/feasibility"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/matcher"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/solver"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/internal/repository"
	"github.com/noah-isme/k12-scheduler-api/internal/sis"
	"github.com/noah-isme/k12-scheduler-api/pkg/config"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
	"github.com/noah-isme/k12-scheduler-api/pkg/jobs"
)

// ScheduleStore describes the schedule persistence required by the service.
type ScheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error
	UpdateScore(ctx context.Context, exec sqlx.ExtContext, id string, score float64) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	ReplaceSlots(ctx context.Context, exec sqlx.ExtContext, scheduleID string, slots []models.ScheduleSlot) error
	InsertSlots(ctx context.Context, exec sqlx.ExtContext, scheduleID string, slots []models.ScheduleSlot) error
	SlotsBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleSlot, error)
	SlotDetails(ctx context.Context, scheduleID string) ([]models.SlotDetail, error)
}

// ConflictStore describes conflict persistence.
type ConflictStore interface {
	Save(ctx context.Context, exec sqlx.ExtContext, conflicts []models.Conflict) error
	FindBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error)
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error
	CountActiveBySchedule(ctx context.Context, scheduleID string) (int, error)
	CountCriticalBySchedule(ctx context.Context, scheduleID string) (int, error)
}

// CourseBinder persists matcher decisions onto cached courses.
type CourseBinder interface {
	UpdateTeacherBinding(ctx context.Context, exec sqlx.ExtContext, courseID string, teacherID *string) error
}

// SnapshotSource provides the cached SIS view.
type SnapshotSource interface {
	Current(ctx context.Context) (*sis.Snapshot, error)
	Healthy(ctx context.Context) bool
}

// ScheduleService owns the schedule lifecycle: generation, validation,
// publication, cloning, archival, and deletion. All mutating operations on
// one schedule serialize on a per-schedule lock.
type ScheduleService struct {
	schedules ScheduleStore
	conflicts ConflictStore
	courses   CourseBinder
	snapshots SnapshotSource
	db        *sqlx.DB

	cfg       models.SchedulerConfiguration
	solverCfg config.SolverConfig

	detector *conflict.Detector
	solver   *solver.Solver
	matcher  *matcher.Matcher
	analyzer *feasibility.Analyzer

	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger

	queue *jobs.Queue

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewScheduleService wires the engine components behind the lifecycle API.
// db may be nil, in which case persistence runs without transactions.
func NewScheduleService(
	schedules ScheduleStore,
	conflicts ConflictStore,
	courses CourseBinder,
	snapshots SnapshotSource,
	db *sqlx.DB,
	cfg models.SchedulerConfiguration,
	solverCfg config.SolverConfig,
	metrics *MetricsService,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	det := conflict.New(cfg)
	s := &ScheduleService{
		schedules: schedules,
		conflicts: conflicts,
		courses:   courses,
		snapshots: snapshots,
		db:        db,
		cfg:       cfg,
		solverCfg: solverCfg,
		detector:  det,
		solver:    solver.New(cfg, det, logger),
		matcher:   matcher.New(cfg),
		analyzer:  feasibility.New(cfg),
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
	workers := solverCfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s.queue = jobs.NewQueue("solver", s.handleSolveJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// StartWorkers launches the background solve queue.
func (s *ScheduleService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains the background solve queue.
func (s *ScheduleService) StopWorkers() {
	s.queue.Stop()
}

// lock serializes mutations of a single schedule.
func (s *ScheduleService) lock(scheduleID string) func() {
	s.mu.Lock()
	m, ok := s.locks[scheduleID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[scheduleID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// withTx runs fn inside a transaction when a database handle is present.
func (s *ScheduleService) withTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return repository.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(tx)
	})
}

// Create opens a new draft schedule.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid schedule payload")
	}
	schedule := &models.Schedule{Name: req.Name, Status: models.ScheduleStatusDraft}
	if err := s.schedules.Create(ctx, nil, schedule); err != nil {
		return nil, err
	}
	s.logger.Info("schedule created", zap.String("schedule_id", schedule.ID), zap.String("name", schedule.Name))
	return schedule, nil
}

// Get loads one schedule.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithEntity(appErrors.ErrScheduleNotFound, id)
		}
		return nil, err
	}
	return schedule, nil
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, req dto.ListSchedulesRequest) ([]models.Schedule, *models.Pagination, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid list filters")
	}
	filter := models.ScheduleFilter{
		Status:   models.ScheduleStatus(req.Status),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return schedules, models.NewPagination(page, size, total), nil
}

// Slots returns the resolved slot details of a schedule.
func (s *ScheduleService) Slots(ctx context.Context, id string) ([]models.SlotDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.schedules.SlotDetails(ctx, id)
}

// Conflicts returns the persisted conflicts of a schedule.
func (s *ScheduleService) Conflicts(ctx context.Context, id string) ([]models.Conflict, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.conflicts.FindBySchedule(ctx, id)
}

// HasConflicts answers via the persisted counter without loading rows.
func (s *ScheduleService) HasConflicts(ctx context.Context, id string) (bool, error) {
	total, err := s.conflicts.CountActiveBySchedule(ctx, id)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// solveJob is the queue payload for asynchronous generation.
type solveJob struct {
	ScheduleID    string
	Options       solver.Options
	AcceptPartial bool
}

func (s *ScheduleService) handleSolveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(solveJob)
	if !ok {
		return fmt.Errorf("unexpected solve payload %T", job.Payload)
	}
	_, err := s.runSolve(ctx, payload.ScheduleID, payload.Options, payload.AcceptPartial)
	if err != nil && appErrors.FromError(err).Code == appErrors.ErrInfeasible.Code {
		// Infeasible is a reported outcome, not a retryable failure.
		return nil
	}
	return err
}

// Generate creates a schedule and solves it. With Async set the solve runs
// on the worker queue and the caller polls the schedule status.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid generate payload")
	}

	schedule := &models.Schedule{Name: req.Name, Status: models.ScheduleStatusDraft}
	if err := s.schedules.Create(ctx, nil, schedule); err != nil {
		return nil, err
	}
	if err := s.schedules.UpdateStatus(ctx, nil, schedule.ID, models.ScheduleStatusInProgress); err != nil {
		return nil, err
	}

	opts := s.solverOptions(req)
	if req.Async {
		job := jobs.Job{ID: uuid.NewString(), Type: "solve", Payload: solveJob{ScheduleID: schedule.ID, Options: opts, AcceptPartial: req.AcceptPartial}}
		if err := s.queue.Enqueue(job); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue solve")
		}
		return &dto.GenerateScheduleResponse{ScheduleID: schedule.ID, Status: models.ScheduleStatusInProgress}, nil
	}

	result, err := s.runSolve(ctx, schedule.ID, opts, req.AcceptPartial)
	if err != nil && result == nil {
		return nil, err
	}

	status := models.ScheduleStatusReview
	if err != nil && !req.AcceptPartial && solveOutcomeError(err) {
		// A rejected partial result leaves the schedule as an empty draft.
		status = models.ScheduleStatusDraft
	}
	resp := &dto.GenerateScheduleResponse{ScheduleID: schedule.ID, Status: status}
	if result != nil {
		resp.Score = &result.Score
		resp.Feasible = &result.Feasible
		resp.Unplaced = result.Unplaced
		resp.Blocking = result.Blocking
		resp.SlotCount = len(result.Slots)
	}
	return resp, err
}

func (s *ScheduleService) solverOptions(req dto.GenerateScheduleRequest) solver.Options {
	opts := solver.Options{
		Algorithm:        s.solverCfg.Algorithm,
		TimeBudget:       s.solverCfg.TimeBudget,
		UnimprovedBudget: s.solverCfg.UnimprovedBudget,
		Seed:             req.Seed,
	}
	if req.Algorithm != "" {
		opts.Algorithm = req.Algorithm
	}
	if req.TimeBudgetSeconds > 0 {
		opts.TimeBudget = time.Duration(req.TimeBudgetSeconds) * time.Second
	}
	if req.UnimprovedSeconds > 0 {
		opts.UnimprovedBudget = time.Duration(req.UnimprovedSeconds) * time.Second
	}
	return opts
}

// solveOutcomeError reports whether err is a solver verdict rather than an
// infrastructure failure.
func solveOutcomeError(err error) bool {
	code := appErrors.FromError(err).Code
	return code == appErrors.ErrInfeasible.Code || code == appErrors.ErrCancelled.Code
}

// resetToDraft returns a schedule stranded in IN_PROGRESS to DRAFT so it can
// be regenerated or deleted.
func (s *ScheduleService) resetToDraft(ctx context.Context, scheduleID string) {
	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.ScheduleStatusDraft); err != nil {
		s.logger.Error("failed to reset schedule to draft",
			zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}

// runSolve executes the solver for a schedule and persists the outcome:
// slots, score, refreshed conflicts, and the REVIEW status. A solve that ends
// without a feasible result is persisted only when the operator opted into
// keeping the partial timetable; otherwise the stored schedule is left
// untouched and returns to DRAFT.
func (s *ScheduleService) runSolve(ctx context.Context, scheduleID string, opts solver.Options, acceptPartial bool) (*solver.Result, error) {
	unlock := s.lock(scheduleID)
	defer unlock()

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		s.resetToDraft(ctx, scheduleID)
		return nil, err
	}
	if snap.Empty() {
		if s.metrics != nil {
			s.metrics.RecordSISFetchFailure()
		}
		s.resetToDraft(ctx, scheduleID)
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "SIS snapshot is empty; nothing to schedule")
	}
	inv := snap.Inventory()

	result, solveErr := s.solver.Solve(ctx, scheduleID, inv, opts)
	if result == nil {
		s.resetToDraft(ctx, scheduleID)
		return nil, solveErr
	}

	outcome := "feasible"
	if solveErr != nil {
		outcome = "infeasible"
		if appErrors.FromError(solveErr).Code == appErrors.ErrCancelled.Code {
			outcome = "cancelled"
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveSolverRun(result.Algorithm, outcome, result.Elapsed, result.Score)
	}

	if solveErr != nil && !acceptPartial {
		s.logger.Warn("discarding partial solve result",
			zap.String("schedule_id", scheduleID),
			zap.String("outcome", outcome),
			zap.Int("unplaced", result.Unplaced))
		s.resetToDraft(ctx, scheduleID)
		return result, solveErr
	}

	detected := s.detector.DetectAll(scheduleID, result.Slots, inv)
	persistErr := s.withTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.schedules.ReplaceSlots(ctx, exec, scheduleID, result.Slots); err != nil {
			return err
		}
		if err := s.schedules.UpdateScore(ctx, exec, scheduleID, result.Score); err != nil {
			return err
		}
		if err := s.conflicts.DeleteBySchedule(ctx, exec, scheduleID); err != nil {
			return err
		}
		if err := s.conflicts.Save(ctx, exec, detected); err != nil {
			return err
		}
		return s.schedules.UpdateStatus(ctx, exec, scheduleID, models.ScheduleStatusReview)
	})
	if persistErr != nil {
		return result, persistErr
	}
	return result, solveErr
}

// RefreshConflicts re-detects and atomically replaces the persisted conflict
// set of a schedule: clear, detect, save under one transaction.
func (s *ScheduleService) RefreshConflicts(ctx context.Context, scheduleID string) (models.ValidationSummary, error) {
	unlock := s.lock(scheduleID)
	defer unlock()
	return s.refreshConflictsLocked(ctx, scheduleID)
}

func (s *ScheduleService) refreshConflictsLocked(ctx context.Context, scheduleID string) (models.ValidationSummary, error) {
	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return models.ValidationSummary{}, err
	}
	if schedule.Status == models.ScheduleStatusArchived {
		return models.ValidationSummary{}, appErrors.WithEntity(appErrors.ErrScheduleImmutable, scheduleID)
	}

	slots, err := s.schedules.SlotsBySchedule(ctx, scheduleID)
	if err != nil {
		return models.ValidationSummary{}, err
	}
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return models.ValidationSummary{}, err
	}
	inv := snap.Inventory()

	detected := s.detector.DetectAll(scheduleID, slots, inv)
	err = s.withTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.conflicts.DeleteBySchedule(ctx, exec, scheduleID); err != nil {
			return err
		}
		return s.conflicts.Save(ctx, exec, detected)
	})
	if err != nil {
		return models.ValidationSummary{}, err
	}

	summary := conflict.Summarize(detected)
	if s.metrics != nil {
		s.metrics.RecordConflictSummary(summary)
	}
	return summary, nil
}

// ValidateSchedule re-runs detection, persists the conflict set, and returns
// the severity summary.
func (s *ScheduleService) ValidateSchedule(ctx context.Context, scheduleID string) (models.ValidationSummary, error) {
	return s.RefreshConflicts(ctx, scheduleID)
}

// DetectForSlot evaluates one candidate slot against the stored schedule
// without persisting anything.
func (s *ScheduleService) DetectForSlot(ctx context.Context, scheduleID string, req dto.ValidateSlotRequest) ([]models.Conflict, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid slot payload")
	}
	if _, err := s.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	candidate := req.Slot()
	slots, err := s.schedules.SlotsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.detector.DetectForSlot(scheduleID, candidate, slots, snap.Inventory()), nil
}

// Publish moves a REVIEW schedule to PUBLISHED iff it carries zero CRITICAL
// conflicts. On refusal the status is left untouched.
func (s *ScheduleService) Publish(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	unlock := s.lock(scheduleID)
	defer unlock()

	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleStatusReview {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("schedule must be in REVIEW to publish, is %s", schedule.Status))
	}

	summary, err := s.refreshConflictsLocked(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if summary.CriticalCount > 0 {
		s.logger.Warn("publish refused",
			zap.String("schedule_id", scheduleID),
			zap.Int("critical_count", summary.CriticalCount))
		return nil, appErrors.WithEntity(appErrors.ErrCriticalConflicts, scheduleID)
	}

	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.ScheduleStatusPublished); err != nil {
		return nil, err
	}
	schedule.Status = models.ScheduleStatusPublished
	s.logger.Info("schedule published", zap.String("schedule_id", scheduleID))
	return schedule, nil
}

// Archive moves any non-archived schedule to ARCHIVED. Terminal.
func (s *ScheduleService) Archive(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	unlock := s.lock(scheduleID)
	defer unlock()

	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == models.ScheduleStatusArchived {
		return nil, appErrors.WithEntity(appErrors.ErrScheduleImmutable, scheduleID)
	}
	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.ScheduleStatusArchived); err != nil {
		return nil, err
	}
	schedule.Status = models.ScheduleStatusArchived
	return schedule, nil
}

// Clone produces a new DRAFT schedule with deep-copied slots and no
// conflicts.
func (s *ScheduleService) Clone(ctx context.Context, scheduleID string, req dto.CloneScheduleRequest) (*models.Schedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid clone payload")
	}

	source, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	slots, err := s.schedules.SlotsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = source.Name + " (copy)"
	}
	clone := &models.Schedule{Name: name, Status: models.ScheduleStatusDraft, Score: source.Score}

	copies := make([]models.ScheduleSlot, len(slots))
	for i, slot := range slots {
		copies[i] = slot
		copies[i].ID = ""
		copies[i].ScheduleID = ""
		copies[i].CreatedAt = time.Time{}
	}

	err = s.withTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.schedules.Create(ctx, exec, clone); err != nil {
			return err
		}
		return s.schedules.InsertSlots(ctx, exec, clone.ID, copies)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("schedule cloned",
		zap.String("source_id", scheduleID), zap.String("clone_id", clone.ID))
	return clone, nil
}

// Delete removes a DRAFT or ARCHIVED schedule, cascading to its slots and
// conflicts.
func (s *ScheduleService) Delete(ctx context.Context, scheduleID string) error {
	unlock := s.lock(scheduleID)
	defer unlock()

	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return err
	}
	if schedule.Status != models.ScheduleStatusDraft && schedule.Status != models.ScheduleStatusArchived {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("only DRAFT or ARCHIVED schedules can be deleted, is %s", schedule.Status))
	}
	err = s.withTx(ctx, func(exec sqlx.ExtContext) error {
		return s.schedules.Delete(ctx, exec, scheduleID)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, scheduleID)
	s.mu.Unlock()
	return nil
}

// MatchTeachers binds unassigned courses to certified teachers. With Persist
// set the bindings are written back to the cached courses.
func (s *ScheduleService) MatchTeachers(ctx context.Context, req dto.MatchTeachersRequest) (*matcher.Result, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	result := s.matcher.Assign(snap.Inventory())

	if s.metrics != nil {
		for _, failure := range result.Failures {
			s.metrics.RecordMatcherFailure(failure.Code)
		}
	}
	if req.Persist && s.courses != nil {
		err = s.withTx(ctx, func(exec sqlx.ExtContext) error {
			for _, a := range result.Assignments {
				teacherID := a.TeacherID
				if err := s.courses.UpdateTeacherBinding(ctx, exec, a.CourseID, &teacherID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// AnalyzeFeasibility audits supply versus demand on the current snapshot.
func (s *ScheduleService) AnalyzeFeasibility(ctx context.Context) (*feasibility.Report, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	report := s.analyzer.Analyze(snap.Inventory())
	return &report, nil
}

// SISHealthy reports gateway reachability for readiness probes.
func (s *ScheduleService) SISHealthy(ctx context.Context) bool {
	return s.snapshots.Healthy(ctx)
}
