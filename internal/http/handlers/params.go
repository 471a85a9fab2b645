package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

var errUnauthorized = errors.New("missing or invalid token")

// requireUser returns the authenticated caller or answers 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(c *gin.Context, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError logs errors that carry no HTTP mapping before they become 500s.
func respondServiceError(c *gin.Context, log *logger.Logger, op string, err error) {
	if _, ok := apierr.From(err); !ok {
		log.Error(op+" failed", "route", c.FullPath(), "error", err)
	}
	response.RespondAPIError(c, err)
}
