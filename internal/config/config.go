package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"timed-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" validate:"required,numeric"`
		Mode string `yaml:"mode" validate:"oneof=debug release"`
	} `yaml:"server"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
		MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
		MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret" validate:"required"`
		Issuer    string        `yaml:"issuer"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" validate:"gte=0"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL             string        `yaml:"url"`
		ConnectAttempts int           `yaml:"connect_attempts" validate:"min=1"`
		ConnectBackoff  time.Duration `yaml:"connect_backoff"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionCount int           `yaml:"question_count" validate:"min=1,max=50"`
		Duration      time.Duration `yaml:"duration"`
		WarningAt     time.Duration `yaml:"warning_at"`
		SummaryTTL    time.Duration `yaml:"summary_ttl"`
	} `yaml:"quiz"`
	Trivia struct {
		BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
		Type        string        `yaml:"type" validate:"omitempty,oneof=multiple boolean"`
		Timeout     time.Duration `yaml:"timeout"`
		MinInterval time.Duration `yaml:"min_interval"`
		Offline     bool          `yaml:"offline"`
	} `yaml:"trivia"`
}

// Default returns the configuration used for every unset field.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "release"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 5
	cfg.Log.MaxAgeDays = 30
	cfg.Auth.Issuer = "timed-quiz-service"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Redis.TTL = 10 * time.Minute
	cfg.Postgres.ConnectAttempts = 5
	cfg.Postgres.ConnectBackoff = 2 * time.Second
	cfg.Quiz.QuestionCount = 15
	cfg.Quiz.Duration = 30 * time.Minute
	cfg.Quiz.WarningAt = 5 * time.Minute
	cfg.Quiz.SummaryTTL = time.Minute
	cfg.Trivia.BaseURL = "https://opentdb.com"
	cfg.Trivia.Type = "multiple"
	cfg.Trivia.Timeout = 10 * time.Second
	cfg.Trivia.MinInterval = 5 * time.Second
	return cfg
}

// Load reads YAML config from path over the defaults, applies environment overrides and validates.
// A missing file is not an error; the service can run from defaults and environment alone.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"PORT":         &cfg.Server.Port,
		"POSTGRES_URL": &cfg.Postgres.URL,
		"REDIS_ADDR":   &cfg.Redis.Addr,
		"JWT_SECRET":   &cfg.Auth.JWTSecret,
	}
	for key, field := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*field = v
		}
	}
}

var validate = validator.New()

// Validate checks field constraints and the relations between durations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Quiz.Duration <= 0 {
		return fmt.Errorf("%w: quiz.duration must be positive", domain.ErrInvalidConfig)
	}
	if c.Quiz.WarningAt < 0 || c.Quiz.WarningAt >= c.Quiz.Duration {
		return fmt.Errorf("%w: quiz.warning_at must be within quiz.duration", domain.ErrInvalidConfig)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", domain.ErrInvalidConfig)
	}
	if c.Postgres.ConnectBackoff < 0 {
		return fmt.Errorf("%w: postgres.connect_backoff must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
