package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`
	StorageDriver string `env:"STORAGE_DRIVER" default:"sqlite"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" default:"schedwise.db"`
	RedisURL      string `env:"REDIS_URL"`
	UserID        string `env:"USER_ID" default:"local"`
	Timezone      string `env:"TIMEZONE" default:"Local"`
	DayStart      string `env:"DAY_START" default:"06:00"`
	DayEnd        string `env:"DAY_END" default:"22:00"`
	DefaultDay    string `env:"DEFAULT_DAY"`

	SkillGoalMinutes int `env:"SKILL_GOAL_MINUTES" default:"300"`

	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL"`
	SuggestionTimeout time.Duration `env:"SUGGESTION_TIMEOUT" default:"20s"`
	SuggestionRate    float64       `env:"SUGGESTION_RATE" default:"0.5"` // provider calls per second
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) UsesOpenAI() bool { return c.OpenAIAPIKey != "" }

// Window, Location and Weekday assume the config passed validate.

func (c *Config) Window() domain.DayWindow {
	start, _ := domain.ParseClock(c.DayStart)
	end, _ := domain.ParseClock(c.DayEnd)
	return domain.DayWindow{Start: start, End: end}
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Weekday is the configured default day, nil when DEFAULT_DAY is unset.
func (c *Config) Weekday() *domain.Weekday {
	if c.DefaultDay == "" {
		return nil
	}
	day, ok := domain.ParseWeekday(c.DefaultDay)
	if !ok {
		return nil
	}
	return &day
}

func validate(cfg *Config) error {
	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageSQLite, cfg.StorageDriver)
	}

	if cfg.UserID == "" {
		return errors.New("USER_ID is required")
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is not a known location: %w", err)
	}

	start, err := domain.ParseClock(cfg.DayStart)
	if err != nil {
		return fmt.Errorf("DAY_START: %w", err)
	}
	end, err := domain.ParseClock(cfg.DayEnd)
	if err != nil {
		return fmt.Errorf("DAY_END: %w", err)
	}
	if !(domain.DayWindow{Start: start, End: end}).Valid() {
		return fmt.Errorf("DAY_START (%s) must be before DAY_END (%s)", cfg.DayStart, cfg.DayEnd)
	}

	if cfg.DefaultDay != "" {
		if _, ok := domain.ParseWeekday(cfg.DefaultDay); !ok {
			return fmt.Errorf("DEFAULT_DAY must be a weekday name, got %q", cfg.DefaultDay)
		}
	}

	if cfg.SkillGoalMinutes <= 0 {
		return fmt.Errorf("SKILL_GOAL_MINUTES must be positive, got %d", cfg.SkillGoalMinutes)
	}
	if cfg.SuggestionTimeout <= 0 {
		return fmt.Errorf("SUGGESTION_TIMEOUT must be positive, got %s", cfg.SuggestionTimeout)
	}
	if cfg.SuggestionRate <= 0 {
		return fmt.Errorf("SUGGESTION_RATE must be positive, got %g", cfg.SuggestionRate)
	}

	return nil
}
