package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	sessions    services.SessionStore
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, sessions services.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
		sessions:    sessions,
	}
}

// RequireAuth accepts "Authorization: Bearer <access token>" and attaches the caller's
// RequestData. Each authenticated request rolls the session's last activity forward.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		rd, err := am.authService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if _, ok := apierr.From(err); !ok {
				am.log.Error("Token check failed", "error", err)
			}
			response.RespondAPIError(c, err)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		if am.sessions != nil {
			if err := am.sessions.Touch(ctx); err != nil {
				am.log.Warn("Session touch failed", "session_id", rd.SessionID, "error", err)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
