package app

import (
	"errors"
	"strings"
	"time"

	"github.com/yungbote/formcraft-backend/internal/platform/envutil"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

const devJWTSecret = "formcraft-dev-secret"

type Config struct {
	Port       string
	LogMode    string
	AppBaseURL string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AnalyticsCacheTTL time.Duration
	Session           services.SessionConfig
	GoogleClientID    string

	AllowedOrigins []string
	MetricsAddr    string
}

func (c Config) Production() bool { return c.LogMode == "production" }

// LoadConfig reads the process environment once. A missing JWT secret is fatal in
// production and replaced by a fixed development secret otherwise.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:       envutil.String("PORT", "8080"),
		LogMode:    envutil.String("LOG_MODE", "development"),
		AppBaseURL: strings.TrimRight(envutil.String("APP_BASE_URL", "http://localhost:5173"), "/"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour),

		AnalyticsCacheTTL: envutil.Minutes("ANALYTICS_CACHE_TTL_MINUTES", services.DefaultAnalyticsTTL),
		Session: services.SessionConfig{
			MaxAttempts: envutil.Int("LOGIN_MAX_ATTEMPTS", 5),
			Lockout:     envutil.Minutes("LOGIN_LOCKOUT_MINUTES", 15*time.Minute),
			Timeout:     envutil.Minutes("SESSION_TIMEOUT_MINUTES", 30*time.Minute),
		},
		GoogleClientID: envutil.String("GOOGLE_OIDC_CLIENT_ID", ""),

		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsAddr:    envutil.String("METRICS_ADDR", ":9090"),
	}
	if cfg.JWTSecretKey == "" {
		if cfg.Production() {
			return Config{}, errors.New("JWT_SECRET_KEY is required in production")
		}
		log.Warn("JWT_SECRET_KEY not set; using the development secret")
		cfg.JWTSecretKey = devJWTSecret
	}
	return cfg, nil
}
