package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: s3cret
quiz:
  duration: 10m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quiz.Duration != 10*time.Minute {
		t.Fatalf("expected duration override, got %v", cfg.Quiz.Duration)
	}
	if cfg.Quiz.QuestionCount != 15 || cfg.Quiz.WarningAt != 5*time.Minute {
		t.Fatalf("expected quiz defaults, got %+v", cfg.Quiz)
	}
	if cfg.Postgres.ConnectAttempts != 5 || cfg.Postgres.ConnectBackoff != 2*time.Second {
		t.Fatalf("expected connect defaults, got %+v", cfg.Postgres)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("POSTGRES_URL", "postgres://quiz@localhost/quiz")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6380" || cfg.Postgres.URL != "postgres://quiz@localhost/quiz" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing secret": `quiz: {question_count: 15}`,
		"count too large": `
auth: {jwt_secret: x}
quiz: {question_count: 51}`,
		"warning after end": `
auth: {jwt_secret: x}
quiz: {duration: 1m, warning_at: 5m}`,
		"bad trivia type": `
auth: {jwt_secret: x}
trivia: {type: essay}`,
		"bad mode": `
auth: {jwt_secret: x}
server: {mode: loud}`,
		"malformed yaml": `auth: [`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected invalid config, got %v", err)
			}
		})
	}
}
