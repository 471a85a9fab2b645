package app

import (
	httpMW "github.com/yungbote/formcraft-backend/internal/http/middleware"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth, s.Sessions),
	}
}
