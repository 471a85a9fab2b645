package app

import (
	apphttp "github.com/yungbote/formcraft-backend/internal/http"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers, mw Middleware) *apphttp.Server {
	return apphttp.NewServer(":"+cfg.Port, apphttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		AllowedOrigins:      cfg.AllowedOrigins,
		AuthMiddleware:      mw.Auth,
		HealthHandler:       h.Health,
		AuthHandler:         h.Auth,
		FormHandler:         h.Forms,
		PublicFormHandler:   h.PublicForms,
		AIHandler:           h.AI,
		ConversationHandler: h.Conversations,
	})
}
