package models

// WorkloadMode selects how teacher load is measured against caps.
type WorkloadMode string

const (
	WorkloadByCourses  WorkloadMode = "courses"
	WorkloadByCredits  WorkloadMode = "credits"
	WorkloadBySessions WorkloadMode = "sessions"
)

// WorkloadThresholds define optimal, warning, and hard-cap levels per mode.
type WorkloadThresholds struct {
	Optimal float64
	Warning float64
	HardCap float64
}

// DefaultThresholds returns the standard thresholds for a workload mode.
func DefaultThresholds(mode WorkloadMode) WorkloadThresholds {
	switch mode {
	case WorkloadByCourses:
		return WorkloadThresholds{Optimal: 4, Warning: 5, HardCap: 6}
	case WorkloadByCredits:
		return WorkloadThresholds{Optimal: 5, Warning: 6, HardCap: 7}
	default:
		return WorkloadThresholds{Optimal: 5, Warning: 5, HardCap: 6}
	}
}

// SchedulerConfiguration carries every solver and detector knob.
type SchedulerConfiguration struct {
	Weekdays              []string
	EarliestStartMin      int
	LatestEndMin          int
	PeriodMinutes         int
	PassingMinutes        int
	MinPeriodsPerTeacher  int
	MaxPeriodsPerTeacher  int
	MaxConsecutive        int
	PreferredBreakMinutes int
	LunchWindowStartMin   int
	LunchWindowEndMin     int
	LunchMinimumMinutes   int
	WorkloadMode          WorkloadMode
	Thresholds            WorkloadThresholds
	Weights               ConstraintWeights
}

// ConstraintWeights holds soft-penalty weights per constraint class.
type ConstraintWeights struct {
	WorkloadBalance  float64
	StudentGaps      float64
	LunchBreak       float64
	BuildingMoves    float64
	Preferences      float64
	MorningPlacement float64
	SubjectGrouping  float64
}

// DefaultWeights mirror the standard configuration shipped with the engine.
func DefaultWeights() ConstraintWeights {
	return ConstraintWeights{
		WorkloadBalance:  50,
		StudentGaps:      30,
		LunchBreak:       20,
		BuildingMoves:    10,
		Preferences:      15,
		MorningPlacement: 10,
		SubjectGrouping:  5,
	}
}

// DefaultSchedulerConfiguration returns the stock configuration.
func DefaultSchedulerConfiguration() SchedulerConfiguration {
	return SchedulerConfiguration{
		Weekdays:              []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"},
		EarliestStartMin:      ParseClock("07:30"),
		LatestEndMin:          ParseClock("15:30"),
		PeriodMinutes:         50,
		PassingMinutes:        5,
		MinPeriodsPerTeacher:  4,
		MaxPeriodsPerTeacher:  7,
		MaxConsecutive:        3,
		PreferredBreakMinutes: 15,
		LunchWindowStartMin:   ParseClock("11:00"),
		LunchWindowEndMin:     ParseClock("13:00"),
		LunchMinimumMinutes:   30,
		WorkloadMode:          WorkloadBySessions,
		Thresholds:            DefaultThresholds(WorkloadBySessions),
		Weights:               DefaultWeights(),
	}
}

// PeriodsPerDay derives how many periods fit the school-day window,
// accounting for passing time between adjacent periods.
func (c SchedulerConfiguration) PeriodsPerDay() int {
	window := c.LatestEndMin - c.EarliestStartMin
	if window <= 0 || c.PeriodMinutes <= 0 {
		return 0
	}
	return (window + c.PassingMinutes) / (c.PeriodMinutes + c.PassingMinutes)
}

// WeeklyPeriods is the total period slots a single room offers per week.
func (c SchedulerConfiguration) WeeklyPeriods() int {
	return c.PeriodsPerDay() * len(c.Weekdays)
}

// CourseWorkload measures one course in the configured mode. Credit mode
// falls back to session weighting when the course carries no credit value.
func (c SchedulerConfiguration) CourseWorkload(course Course) float64 {
	switch c.WorkloadMode {
	case WorkloadByCourses:
		return 1
	case WorkloadByCredits:
		if course.Credits != nil && *course.Credits > 0 {
			return *course.Credits
		}
		return float64(course.Sessions())
	default:
		return float64(course.Sessions())
	}
}
