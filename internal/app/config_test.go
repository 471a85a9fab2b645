package app

import (
	"testing"
	"time"

	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_MODE", "development")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("APP_BASE_URL", "https://forms.example.com/")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "")
	t.Setenv("LOGIN_LOCKOUT_MINUTES", "")
	t.Setenv("ANALYTICS_CACHE_TTL_MINUTES", "")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWTSecretKey != devJWTSecret {
		t.Fatalf("secret: got=%q want dev secret", cfg.JWTSecretKey)
	}
	if cfg.AppBaseURL != "https://forms.example.com" {
		t.Fatalf("base url: got=%q", cfg.AppBaseURL)
	}
	if cfg.Session.MaxAttempts != 5 || cfg.Session.Lockout != 15*time.Minute {
		t.Fatalf("session: got=%+v", cfg.Session)
	}
	if cfg.AnalyticsCacheTTL != time.Hour {
		t.Fatalf("analytics ttl: got=%s want=1h", cfg.AnalyticsCacheTTL)
	}
}

func TestLoadConfigProductionNeedsSecret(t *testing.T) {
	t.Setenv("LOG_MODE", "production")
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := LoadConfig(testLogger(t)); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY in production")
	}

	t.Setenv("JWT_SECRET_KEY", "s3cret")
	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Production() || cfg.JWTSecretKey != "s3cret" {
		t.Fatalf("got production=%v secret=%q", cfg.Production(), cfg.JWTSecretKey)
	}
}
