package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/formcraft-backend/internal/http/handlers"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	Auth          *httpH.AuthHandler
	Forms         *httpH.FormHandler
	PublicForms   *httpH.PublicFormHandler
	AI            *httpH.AIHandler
	Conversations *httpH.ConversationHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, s Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:        httpH.NewHealthHandler(pinger),
		Auth:          httpH.NewAuthHandler(log, s.Auth, s.Sessions),
		Forms:         httpH.NewFormHandler(log, s.Forms, s.Submissions, s.Analytics),
		PublicForms:   httpH.NewPublicFormHandler(log, s.Forms, s.Submissions, s.Uploads),
		AI:            httpH.NewAIHandler(log, s.AI),
		Conversations: httpH.NewConversationHandler(log, s.Conversations),
	}
}
