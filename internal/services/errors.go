package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
)

var (
	ErrFormNotFound = apierr.NotFound("Form not found")
	// ErrFormNotPublished answers the public routes exactly like a missing form.
	ErrFormNotPublished = apierr.NotFound("Form not found")
	ErrForbidden        = apierr.New(http.StatusForbidden, "forbidden", errors.New("You do not have access to this resource"))

	ErrConversationNotFound = apierr.NotFound("Conversation not found")

	ErrInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("Invalid email or password"))
	ErrInvalidToken       = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("Invalid or expired token"))
	ErrEmailTaken         = apierr.New(http.StatusConflict, "email_taken", errors.New("An account with this email already exists"))
	ErrInvalidResetToken  = apierr.New(http.StatusBadRequest, "invalid_reset_token", errors.New("Reset link is invalid or has expired"))
	ErrOAuthDisabled      = apierr.New(http.StatusServiceUnavailable, "oauth_disabled", errors.New("OAuth sign-in is not configured"))
	ErrUploadsDisabled    = apierr.New(http.StatusServiceUnavailable, "uploads_disabled", errors.New("File uploads are not configured"))

	// Kinds matched with errors.Is; the returned errors carry a user-facing message.
	ErrAccountLocked = errors.New("account locked")
	ErrWeakPassword  = errors.New("weak password")
	ErrInvalidInput  = errors.New("invalid input")
)

type detailError struct {
	msg  string
	kind error
}

func (e *detailError) Error() string { return e.msg }
func (e *detailError) Unwrap() error { return e.kind }

func accountLocked(minutes int) error {
	return apierr.New(http.StatusTooManyRequests, "account_locked", &detailError{
		msg:  fmt.Sprintf("Account temporarily locked. Please try again in %d minutes.", minutes),
		kind: ErrAccountLocked,
	})
}

func weakPassword(msg string) error {
	return apierr.New(http.StatusBadRequest, "weak_password", &detailError{msg: msg, kind: ErrWeakPassword})
}

func invalidInput(msg string) error {
	return apierr.New(http.StatusBadRequest, "invalid_request", &detailError{msg: msg, kind: ErrInvalidInput})
}
