package solver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/conflict"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
)

const (
	StrategyGreedy      = "greedy"
	StrategyLocalSearch = "local_search"
	StrategyAnnealing   = "annealing"
)

// Options tune a single solve run.
type Options struct {
	Algorithm        string
	TimeBudget       time.Duration
	UnimprovedBudget time.Duration
	Seed             int64
}

// Result is the outcome of a solve: the best assignment found, its score,
// and whether it satisfies every hard constraint.
type Result struct {
	Slots          []models.ScheduleSlot `json:"slots"`
	Score          float64               `json:"score"`
	Feasible       bool                  `json:"feasible"`
	HardViolations int                   `json:"hard_violations"`
	Unplaced       int                   `json:"unplaced"`
	Blocking       string                `json:"blocking,omitempty"`
	Algorithm      string                `json:"algorithm"`
	Elapsed        time.Duration         `json:"elapsed"`
}

// Solver searches for a full slot assignment minimizing weighted soft
// penalties under hard feasibility constraints.
type Solver struct {
	cfg models.SchedulerConfiguration
	det *conflict.Detector
	log *zap.Logger
}

func New(cfg models.SchedulerConfiguration, det *conflict.Detector, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{cfg: cfg, det: det, log: log}
}

// Solve seeds greedily and then improves with the selected strategy until a
// budget elapses or the context is cancelled. It always returns the best
// state reached; infeasibility and cancellation are signalled via the error.
func (s *Solver) Solve(ctx context.Context, scheduleID string, inv *inventory.Inventory, opts Options) (*Result, error) {
	started := time.Now()
	if opts.Algorithm == "" {
		opts.Algorithm = StrategyLocalSearch
	}
	if opts.TimeBudget <= 0 {
		opts.TimeBudget = 5 * time.Minute
	}
	if opts.UnimprovedBudget <= 0 {
		opts.UnimprovedBudget = 30 * time.Second
	}
	seed := opts.Seed
	if seed == 0 {
		seed = started.UnixNano()
	}

	p := buildProblem(s.cfg, inv)
	s.log.Info("solver started",
		zap.String("schedule_id", scheduleID),
		zap.String("algorithm", opts.Algorithm),
		zap.Int("sections", len(p.sections)),
		zap.Int("grid_slots", len(p.grid)),
		zap.Duration("time_budget", opts.TimeBudget))

	st := greedySeed(ctx, p, s.det, scheduleID)

	deadline := started.Add(opts.TimeBudget)
	rng := rand.New(rand.NewSource(seed))
	switch opts.Algorithm {
	case StrategyGreedy:
		// Seed only.
	case StrategyAnnealing:
		st = anneal(ctx, p, st, rng, deadline, opts.UnimprovedBudget)
	case StrategyLocalSearch:
		st = localSearch(ctx, p, st, rng, deadline, opts.UnimprovedBudget)
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("unknown solver algorithm %q", opts.Algorithm))
	}

	result := &Result{
		Slots:          p.materialize(scheduleID, st),
		Score:          st.score(),
		Feasible:       st.feasible(),
		HardViolations: st.hardViolations(),
		Algorithm:      opts.Algorithm,
		Elapsed:        time.Since(started),
	}
	for _, pl := range st.assign {
		if pl.slot < 0 {
			result.Unplaced++
		}
	}

	if ctx.Err() != nil {
		s.log.Warn("solver cancelled", zap.String("schedule_id", scheduleID), zap.Duration("elapsed", result.Elapsed))
		return result, appErrors.Wrap(ctx.Err(), appErrors.ErrCancelled.Code, appErrors.ErrCancelled.Status, "solve cancelled")
	}
	if !result.Feasible {
		result.Blocking = firstBlocking(p, st)
		s.log.Warn("solver infeasible within budget",
			zap.String("schedule_id", scheduleID),
			zap.Int("hard_violations", result.HardViolations),
			zap.String("blocking", result.Blocking))
		return result, appErrors.Clone(appErrors.ErrInfeasible, result.Blocking)
	}

	s.log.Info("solver finished",
		zap.String("schedule_id", scheduleID),
		zap.Float64("score", result.Score),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// firstBlocking names the first hard constraint preventing feasibility.
func firstBlocking(p *problem, st *state) string {
	for si, pl := range st.assign {
		if pl.slot >= 0 {
			continue
		}
		sec := p.sections[si]
		if sec.Teacher < 0 && len(sec.CandidateTeachers) == 0 {
			return fmt.Sprintf("course %s has no certified teacher", sec.CourseID)
		}
		if len(sec.CandidateRooms) == 0 {
			return fmt.Sprintf("course %s has no room satisfying capacity and type requirements", sec.CourseID)
		}
		return fmt.Sprintf("course %s session %d has no conflict-free (time, room) placement", sec.CourseID, sec.Session+1)
	}
	nGrid := len(p.grid)
	for t := range p.teachers {
		for slot := 0; slot < nGrid; slot++ {
			if st.teacherAt[t*nGrid+slot] > 1 {
				return fmt.Sprintf("teacher %s double-booked on %s at %s",
					p.teachers[t].ID, p.grid[slot].Day, models.FormatClock(p.grid[slot].StartMin))
			}
		}
	}
	for r := range p.rooms {
		for slot := 0; slot < nGrid; slot++ {
			if st.roomAt[r*nGrid+slot] > p.roomLimit[r] {
				return fmt.Sprintf("room %s over concurrency limit on %s at %s",
					p.rooms[r].ID, p.grid[slot].Day, models.FormatClock(p.grid[slot].StartMin))
			}
		}
	}
	return "student enrollment overlap"
}
