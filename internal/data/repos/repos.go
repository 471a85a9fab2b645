package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/data/repos/auth"
	"github.com/yungbote/formcraft-backend/internal/data/repos/chat"
	"github.com/yungbote/formcraft-backend/internal/data/repos/forms"
	"github.com/yungbote/formcraft-backend/internal/data/repos/user"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type UserIdentityRepo = auth.UserIdentityRepo
type OAuthNonceRepo = auth.OAuthNonceRepo
type PasswordResetTokenRepo = auth.PasswordResetTokenRepo

type FormRepo = forms.FormRepo
type SubmissionRepo = forms.SubmissionRepo
type AnalyticsCacheRepo = forms.AnalyticsCacheRepo

type ConversationRepo = chat.ConversationRepo
type ChatMessageRepo = chat.ChatMessageRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}
func NewUserIdentityRepo(db *gorm.DB, baseLog *logger.Logger) UserIdentityRepo {
	return auth.NewUserIdentityRepo(db, baseLog)
}
func NewOAuthNonceRepo(db *gorm.DB, baseLog *logger.Logger) OAuthNonceRepo {
	return auth.NewOAuthNonceRepo(db, baseLog)
}
func NewPasswordResetTokenRepo(db *gorm.DB, baseLog *logger.Logger) PasswordResetTokenRepo {
	return auth.NewPasswordResetTokenRepo(db, baseLog)
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo { return forms.NewFormRepo(db, baseLog) }
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return forms.NewSubmissionRepo(db, baseLog)
}
func NewAnalyticsCacheRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsCacheRepo {
	return forms.NewAnalyticsCacheRepo(db, baseLog)
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}
