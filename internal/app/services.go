package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/clients/redis"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type Services struct {
	AI            formgen.Service
	Auth          services.AuthService
	Sessions      services.SessionStore
	Forms         services.FormService
	Submissions   services.SubmissionService
	Analytics     services.AnalyticsService
	Conversations services.ConversationService
	Uploads       services.UploadService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, r Repos) Services {
	log.Info("Wiring services...")

	ai := formgen.New(log, clients.LLM, formgen.WithCredentialName(clients.LLMCredential))

	auth := services.NewAuthService(
		db,
		log,
		services.AuthConfig{
			JWTSecretKey: cfg.JWTSecretKey,
			AccessTTL:    cfg.AccessTokenTTL,
			RefreshTTL:   cfg.RefreshTokenTTL,
			AppBaseURL:   cfg.AppBaseURL,
		},
		r.User,
		r.UserToken,
		r.UserIdentity,
		r.OAuthNonce,
		r.PasswordResetToken,
		clients.OIDC,
		clients.Mailer,
	)

	sessionCfg := cfg.Session
	var (
		attempts services.AttemptTracker
		activity services.ActivityStore
	)
	def := services.DefaultSessionConfig()
	lockout, idle := sessionCfg.Lockout, sessionCfg.Timeout
	if lockout <= 0 {
		lockout = def.Lockout
	}
	if idle <= 0 {
		idle = def.Timeout
	}
	if clients.Redis != nil {
		store := redis.NewSessionStore(clients.Redis, redis.ConfigFromEnv().Prefix, lockout, idle)
		attempts, activity = store, store
	} else {
		store := services.NewMemorySessionStore(lockout, idle)
		attempts, activity = store, store
	}
	sessions := services.NewSessionStore(log, sessionCfg, auth, attempts, activity)

	forms := services.NewFormService(db, log, r.Form, r.Submission, r.AnalyticsCache)

	return Services{
		AI:            ai,
		Auth:          auth,
		Sessions:      sessions,
		Forms:         forms,
		Submissions:   services.NewSubmissionService(log, r.Form, r.Submission),
		Analytics:     services.NewAnalyticsService(log, cfg.AnalyticsCacheTTL, r.Form, r.Submission, r.AnalyticsCache, ai),
		Conversations: services.NewConversationService(log, r.Conversation, r.ChatMessage, forms, ai),
		Uploads:       services.NewUploadService(log, clients.Uploads, forms),
	}
}
