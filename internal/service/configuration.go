package service

import (
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	"github.com/noah-isme/k12-scheduler-api/pkg/config"
)

// SchedulerConfigurationFrom translates environment configuration into the
// engine's configuration value, falling back to stock defaults per field.
func SchedulerConfigurationFrom(cfg config.SchedulerConfig) models.SchedulerConfiguration {
	out := models.DefaultSchedulerConfiguration()

	if len(cfg.Weekdays) > 0 {
		out.Weekdays = cfg.Weekdays
	}
	if v := models.ParseClock(cfg.EarliestStart); v >= 0 {
		out.EarliestStartMin = v
	}
	if v := models.ParseClock(cfg.LatestEnd); v >= 0 {
		out.LatestEndMin = v
	}
	if cfg.PeriodMinutes > 0 {
		out.PeriodMinutes = cfg.PeriodMinutes
	}
	if cfg.PassingMinutes > 0 {
		out.PassingMinutes = cfg.PassingMinutes
	}
	if cfg.MinPeriodsPerTeacher > 0 {
		out.MinPeriodsPerTeacher = cfg.MinPeriodsPerTeacher
	}
	if cfg.MaxPeriodsPerTeacher > 0 {
		out.MaxPeriodsPerTeacher = cfg.MaxPeriodsPerTeacher
	}
	if cfg.MaxConsecutive > 0 {
		out.MaxConsecutive = cfg.MaxConsecutive
	}
	if cfg.PreferredBreakMinutes > 0 {
		out.PreferredBreakMinutes = cfg.PreferredBreakMinutes
	}
	if v := models.ParseClock(cfg.LunchWindowStart); v >= 0 {
		out.LunchWindowStartMin = v
	}
	if v := models.ParseClock(cfg.LunchWindowEnd); v >= 0 {
		out.LunchWindowEndMin = v
	}
	if cfg.LunchMinimumMinutes > 0 {
		out.LunchMinimumMinutes = cfg.LunchMinimumMinutes
	}
	if cfg.WorkloadMode != "" {
		out.WorkloadMode = models.WorkloadMode(cfg.WorkloadMode)
		out.Thresholds = models.DefaultThresholds(out.WorkloadMode)
	}
	return out
}
