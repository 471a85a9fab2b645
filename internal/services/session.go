package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type SessionConfig struct {
	MaxAttempts int
	Lockout     time.Duration
	Timeout     time.Duration
	// RecentWindow is how fresh the last activity must be to count as recent.
	RecentWindow time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAttempts:  5,
		Lockout:      15 * time.Minute,
		Timeout:      30 * time.Minute,
		RecentWindow: 5 * time.Minute,
	}
}

type SessionStatus struct {
	SessionValid            bool       `json:"sessionValid"`
	LastActivity            *time.Time `json:"lastActivity"`
	LastActivityRecent      bool       `json:"lastActivityRecent"`
	SessionTimeoutRemaining int        `json:"sessionTimeoutRemaining"`
	FailedAttempts          int        `json:"failedAttempts"`
	AccountAgeDays          int        `json:"accountAgeDays"`
}

// SessionStore is the one place request handlers ask about the signed-in user. It adds
// failed-attempt lockout and last-activity tracking on top of AuthService. Both are
// advisory.
type SessionStore interface {
	CurrentUser(ctx context.Context) (*types.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	Touch(ctx context.Context) error
	Status(ctx context.Context) (SessionStatus, error)
}

type sessionStore struct {
	log      *logger.Logger
	cfg      SessionConfig
	auth     AuthService
	attempts AttemptTracker
	activity ActivityStore
	now      func() time.Time
}

func NewSessionStore(log *logger.Logger, cfg SessionConfig, auth AuthService, attempts AttemptTracker, activity ActivityStore) SessionStore {
	def := DefaultSessionConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = def.Lockout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = def.RecentWindow
	}
	return &sessionStore{
		log:      log.With("service", "SessionStore"),
		cfg:      cfg,
		auth:     auth,
		attempts: attempts,
		activity: activity,
		now:      time.Now,
	}
}

func (s *sessionStore) CurrentUser(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return s.auth.GetUser(ctx, rd.UserID)
}

// SignIn refuses locked emails before checking the password. Only wrong credentials
// count as failed attempts.
func (s *sessionStore) SignIn(ctx context.Context, email, password string) (*Session, error) {
	now := s.now()
	count, last, err := s.attempts.Failures(ctx, email)
	if err != nil {
		s.log.Warn("Attempt tracker read failed", "error", err)
	} else if count >= s.cfg.MaxAttempts {
		if since := now.Sub(last); since < s.cfg.Lockout {
			minutes := int(math.Ceil(float64(s.cfg.Lockout-since) / float64(time.Minute)))
			return nil, accountLocked(minutes)
		}
	}

	session, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if _, rerr := s.attempts.RecordFailure(ctx, email, now); rerr != nil {
				s.log.Warn("Attempt tracker write failed", "error", rerr)
			}
		}
		return nil, err
	}
	if err := s.attempts.Clear(ctx, email); err != nil {
		s.log.Warn("Attempt tracker clear failed", "error", err)
	}
	if err := s.activity.Touch(ctx, session.SessionID.String(), now); err != nil {
		s.log.Warn("Activity touch failed", "error", err)
	}
	return session, nil
}

// SignOut ends the current session and forgets the user's failed attempts.
func (s *sessionStore) SignOut(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return ErrInvalidToken
	}
	if err := s.auth.SignOut(ctx, rd.TokenString); err != nil {
		return err
	}
	if err := s.activity.Forget(ctx, rd.SessionID.String()); err != nil {
		s.log.Warn("Activity forget failed", "error", err)
	}
	if user, err := s.auth.GetUser(ctx, rd.UserID); err == nil {
		if err := s.attempts.Clear(ctx, user.Email); err != nil {
			s.log.Warn("Attempt tracker clear failed", "error", err)
		}
	}
	return nil
}

func (s *sessionStore) Touch(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		return nil
	}
	return s.activity.Touch(ctx, rd.SessionID.String(), s.now())
}

func (s *sessionStore) Status(ctx context.Context) (SessionStatus, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return SessionStatus{}, err
	}
	rd := ctxutil.GetRequestData(ctx)
	now := s.now()
	st := SessionStatus{SessionValid: true}

	if at, ok, err := s.activity.LastActivity(ctx, rd.SessionID.String()); err != nil {
		s.log.Warn("Activity read failed", "error", err)
	} else if ok {
		since := now.Sub(at)
		st.LastActivity = &at
		st.LastActivityRecent = since < s.cfg.RecentWindow
		if remaining := s.cfg.Timeout - since; remaining > 0 {
			st.SessionTimeoutRemaining = int(remaining.Seconds())
		}
	}
	if count, _, err := s.attempts.Failures(ctx, user.Email); err == nil {
		st.FailedAttempts = count
	}
	if !user.CreatedAt.IsZero() && now.After(user.CreatedAt) {
		st.AccountAgeDays = int(now.Sub(user.CreatedAt) / (24 * time.Hour))
	}
	return st, nil
}
