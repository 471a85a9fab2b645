package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/formcraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/formcraft-backend/internal/http/middleware"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

const serviceName = "formcraft-backend"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	FormHandler         *httpH.FormHandler
	PublicFormHandler   *httpH.PublicFormHandler
	AIHandler           *httpH.AIHandler
	ConversationHandler *httpH.ConversationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Public form links
	if cfg.PublicFormHandler != nil {
		r.GET("/form/:id", cfg.PublicFormHandler.GetForm)
	}

	api := r.Group("/api")
	{
		if cfg.PublicFormHandler != nil {
			api.GET("/public/forms/:id", cfg.PublicFormHandler.GetForm)
			api.POST("/public/forms/:id/submissions", cfg.PublicFormHandler.Submit)
			api.POST("/public/forms/:id/uploads", cfg.PublicFormHandler.Upload)
		}

		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.SignUp)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
			api.POST("/auth/oauth/nonce", cfg.AuthHandler.OAuthNonce)
			api.POST("/auth/oauth/google", cfg.AuthHandler.OAuthGoogle)
			api.POST("/auth/password/forgot", cfg.AuthHandler.ForgotPassword)
			api.POST("/auth/password/reset", cfg.AuthHandler.ResetPassword)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		if cfg.AIHandler != nil {
			protected.GET("/ai/status", cfg.AIHandler.Status)
			protected.POST("/ai/forms/generate", cfg.AIHandler.Generate)
			protected.POST("/ai/forms/refine", cfg.AIHandler.Refine)
			protected.POST("/ai/forms/translate", cfg.AIHandler.Translate)
		}

		// Forms
		if cfg.FormHandler != nil {
			protected.GET("/forms", cfg.FormHandler.ListForms)
			protected.POST("/forms", cfg.FormHandler.CreateForm)
			protected.GET("/forms/published-ids", cfg.FormHandler.PublishedIDs)
			protected.GET("/forms/:id", cfg.FormHandler.GetForm)
			protected.PUT("/forms/:id", cfg.FormHandler.UpdateForm)
			protected.DELETE("/forms/:id", cfg.FormHandler.DeleteForm)
			protected.POST("/forms/:id/publish", cfg.FormHandler.PublishForm)
			protected.POST("/forms/:id/unpublish", cfg.FormHandler.UnpublishForm)
			protected.GET("/forms/:id/submissions", cfg.FormHandler.ListSubmissions)
			protected.GET("/forms/:id/analytics", cfg.FormHandler.GetAnalytics)
			protected.POST("/forms/:id/insights", cfg.FormHandler.AskInsights)
			protected.GET("/stats", cfg.FormHandler.Stats)
		}

		// Dashboard chat
		if cfg.ConversationHandler != nil {
			protected.GET("/conversations", cfg.ConversationHandler.List)
			protected.POST("/conversations", cfg.ConversationHandler.Create)
			protected.PATCH("/conversations/:id", cfg.ConversationHandler.Rename)
			protected.GET("/conversations/:id/messages", cfg.ConversationHandler.Messages)
			protected.POST("/conversations/:id/messages", cfg.ConversationHandler.SendPrompt)
		}
	}

	return r
}
