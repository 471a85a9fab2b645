package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/formcraft-backend/internal/clients/redis"
	"github.com/yungbote/formcraft-backend/internal/platform/gcp"
	"github.com/yungbote/formcraft-backend/internal/platform/llm"
	"github.com/yungbote/formcraft-backend/internal/platform/llmprovider"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/platform/sendgrid"
	"github.com/yungbote/formcraft-backend/internal/services"
)

// Clients holds the optional outside services. Every field may be nil: the matching
// feature then runs in its degraded mode.
type Clients struct {
	LLM           llm.Provider
	LLMCredential string
	Redis         *goredis.Client
	Mailer        sendgrid.Client
	Uploads       gcp.UploadBucket
	OIDC          services.OIDCVerifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	provider, credential, err := llmprovider.FromEnv(ctx, log)
	if err != nil {
		return Clients{}, err
	}
	out.LLM, out.LLMCredential = provider, credential

	// Redis
	if rcfg := redis.ConfigFromEnv(); rcfg.Enabled() {
		rdb, err := redis.NewClient(ctx, log, rcfg)
		if err != nil {
			log.Warn("Redis unavailable; session state stays in memory", "error", err)
		} else {
			out.Redis = rdb
		}
	}

	// SendGrid
	if mcfg := sendgrid.ConfigFromEnv(); mcfg.Configured() {
		mailer, err := sendgrid.New(log, mcfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		out.Mailer = mailer
	} else {
		log.Warn("SendGrid not configured; password reset links are logged")
	}

	// GCS uploads
	ucfg, err := gcp.UploadsConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("uploads config: %w", err)
	}
	bucket, err := gcp.NewUploadBucket(ctx, log, ucfg)
	switch {
	case errors.Is(err, gcp.ErrUploadsDisabled):
		log.Info("File uploads disabled")
	case err != nil:
		return Clients{}, fmt.Errorf("init uploads bucket: %w", err)
	default:
		out.Uploads = bucket
	}

	// Google sign-in
	if cfg.GoogleClientID != "" {
		v, err := services.NewOIDCVerifier(ctx, nil, cfg.GoogleClientID)
		if err != nil {
			return Clients{}, fmt.Errorf("init oidc verifier: %w", err)
		}
		out.OIDC = v
	}
	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
