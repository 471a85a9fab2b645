package domain

import (
	"github.com/yungbote/formcraft-backend/internal/domain/auth"
	"github.com/yungbote/formcraft-backend/internal/domain/chat"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/domain/user"
)

type User = user.User

type UserToken = auth.UserToken
type UserIdentity = auth.UserIdentity
type OAuthNonce = auth.OAuthNonce
type PasswordResetToken = auth.PasswordResetToken

type Form = forms.Form
type FormSubmission = forms.FormSubmission
type AnalyticsCache = forms.AnalyticsCache

type Conversation = chat.Conversation
type ChatMessage = chat.ChatMessage

// Models lists every table, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&UserIdentity{},
		&OAuthNonce{},
		&PasswordResetToken{},

		&Form{},
		&FormSubmission{},
		&AnalyticsCache{},

		&Conversation{},
		&ChatMessage{},
	}
}
