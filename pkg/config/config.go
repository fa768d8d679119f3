package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	SIS       SISConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Solver    SolverConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SISConfig points at the read-only student information system gateway.
type SISConfig struct {
	BaseURL      string
	Timeout      time.Duration
	SnapshotTTL  time.Duration
	WarmStoreKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig carries the timetable shape and detection thresholds.
type SchedulerConfig struct {
	Weekdays              []string
	EarliestStart         string
	LatestEnd             string
	PeriodMinutes         int
	PassingMinutes        int
	MinPeriodsPerTeacher  int
	MaxPeriodsPerTeacher  int
	MaxConsecutive        int
	PreferredBreakMinutes int
	LunchWindowStart      string
	LunchWindowEnd        string
	LunchMinimumMinutes   int
	WorkloadMode          string
}

// SolverConfig governs search budgets and strategy selection.
type SolverConfig struct {
	Algorithm        string
	TimeBudget       time.Duration
	UnimprovedBudget time.Duration
	Workers          int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.SIS = SISConfig{
		BaseURL:      v.GetString("SIS_BASE_URL"),
		Timeout:      parseDuration(v.GetString("SIS_TIMEOUT"), 10*time.Second),
		SnapshotTTL:  parseDuration(v.GetString("SIS_SNAPSHOT_TTL"), 15*time.Minute),
		WarmStoreKey: v.GetString("SIS_WARM_STORE_KEY"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Weekdays:              splitAndTrim(v.GetString("SCHEDULER_WEEKDAYS")),
		EarliestStart:         v.GetString("SCHEDULER_EARLIEST_START"),
		LatestEnd:             v.GetString("SCHEDULER_LATEST_END"),
		PeriodMinutes:         v.GetInt("SCHEDULER_PERIOD_MINUTES"),
		PassingMinutes:        v.GetInt("SCHEDULER_PASSING_MINUTES"),
		MinPeriodsPerTeacher:  v.GetInt("SCHEDULER_MIN_PERIODS_PER_TEACHER"),
		MaxPeriodsPerTeacher:  v.GetInt("SCHEDULER_MAX_PERIODS_PER_TEACHER"),
		MaxConsecutive:        v.GetInt("SCHEDULER_MAX_CONSECUTIVE"),
		PreferredBreakMinutes: v.GetInt("SCHEDULER_PREFERRED_BREAK_MINUTES"),
		LunchWindowStart:      v.GetString("SCHEDULER_LUNCH_WINDOW_START"),
		LunchWindowEnd:        v.GetString("SCHEDULER_LUNCH_WINDOW_END"),
		LunchMinimumMinutes:   v.GetInt("SCHEDULER_LUNCH_MINIMUM_MINUTES"),
		WorkloadMode:          v.GetString("SCHEDULER_WORKLOAD_MODE"),
	}

	cfg.Solver = SolverConfig{
		Algorithm:        v.GetString("SOLVER_ALGORITHM"),
		TimeBudget:       parseDuration(v.GetString("SOLVER_TIME_BUDGET"), 5*time.Minute),
		UnimprovedBudget: parseDuration(v.GetString("SOLVER_UNIMPROVED_BUDGET"), 30*time.Second),
		Workers:          v.GetInt("SOLVER_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "k12_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SIS_BASE_URL", "http://localhost:9090")
	v.SetDefault("SIS_TIMEOUT", "10s")
	v.SetDefault("SIS_SNAPSHOT_TTL", "15m")
	v.SetDefault("SIS_WARM_STORE_KEY", "sis:snapshot")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_WEEKDAYS", "MONDAY,TUESDAY,WEDNESDAY,THURSDAY,FRIDAY")
	v.SetDefault("SCHEDULER_EARLIEST_START", "07:30")
	v.SetDefault("SCHEDULER_LATEST_END", "15:30")
	v.SetDefault("SCHEDULER_PERIOD_MINUTES", 50)
	v.SetDefault("SCHEDULER_PASSING_MINUTES", 5)
	v.SetDefault("SCHEDULER_MIN_PERIODS_PER_TEACHER", 4)
	v.SetDefault("SCHEDULER_MAX_PERIODS_PER_TEACHER", 7)
	v.SetDefault("SCHEDULER_MAX_CONSECUTIVE", 3)
	v.SetDefault("SCHEDULER_PREFERRED_BREAK_MINUTES", 15)
	v.SetDefault("SCHEDULER_LUNCH_WINDOW_START", "11:00")
	v.SetDefault("SCHEDULER_LUNCH_WINDOW_END", "13:00")
	v.SetDefault("SCHEDULER_LUNCH_MINIMUM_MINUTES", 30)
	v.SetDefault("SCHEDULER_WORKLOAD_MODE", "sessions")

	v.SetDefault("SOLVER_ALGORITHM", "local_search")
	v.SetDefault("SOLVER_TIME_BUDGET", "5m")
	v.SetDefault("SOLVER_UNIMPROVED_BUDGET", "30s")
	v.SetDefault("SOLVER_WORKERS", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
