package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type Repos struct {
	User               repos.UserRepo
	UserToken          repos.UserTokenRepo
	UserIdentity       repos.UserIdentityRepo
	OAuthNonce         repos.OAuthNonceRepo
	PasswordResetToken repos.PasswordResetTokenRepo

	Form           repos.FormRepo
	Submission     repos.SubmissionRepo
	AnalyticsCache repos.AnalyticsCacheRepo

	Conversation repos.ConversationRepo
	ChatMessage  repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:               repos.NewUserRepo(db, log),
		UserToken:          repos.NewUserTokenRepo(db, log),
		UserIdentity:       repos.NewUserIdentityRepo(db, log),
		OAuthNonce:         repos.NewOAuthNonceRepo(db, log),
		PasswordResetToken: repos.NewPasswordResetTokenRepo(db, log),

		Form:           repos.NewFormRepo(db, log),
		Submission:     repos.NewSubmissionRepo(db, log),
		AnalyticsCache: repos.NewAnalyticsCacheRepo(db, log),

		Conversation: repos.NewConversationRepo(db, log),
		ChatMessage:  repos.NewChatMessageRepo(db, log),
	}
}
