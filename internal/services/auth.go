package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	userrepo "github.com/yungbote/formcraft-backend/internal/data/repos/user"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	domainauth "github.com/yungbote/formcraft-backend/internal/domain/auth"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/platform/sendgrid"
)

const minPasswordLength = 8

var weakPasswords = []string{"password", "123456", "qwerty", "admin", "letmein"}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	ResetTTL     time.Duration
	NonceTTL     time.Duration
	AppBaseURL   string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *types.User `json:"user"`
	SessionID    uuid.UUID   `json:"-"`
}

type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type JWTClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	CreateOAuthNonce(ctx context.Context) (string, time.Time, error)
	SignInWithGoogle(ctx context.Context, idToken, nonce string) (*Session, error)
	OAuthEnabled() bool
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// Authenticate checks the JWT and that its session row still exists.
	Authenticate(ctx context.Context, accessToken string) (*ctxutil.RequestData, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	cfg           AuthConfig
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	identityRepo  repos.UserIdentityRepo
	nonceRepo     repos.OAuthNonceRepo
	resetRepo     repos.PasswordResetTokenRepo
	verifier      OIDCVerifier
	mailer        sendgrid.Client
	now           func() time.Time
}

// NewAuthService accepts a nil verifier (OAuth disabled) and a nil mailer (reset links
// are logged).
func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	cfg AuthConfig,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	identityRepo repos.UserIdentityRepo,
	nonceRepo repos.OAuthNonceRepo,
	resetRepo repos.PasswordResetTokenRepo,
	verifier OIDCVerifier,
	mailer sendgrid.Client,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = 10 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		cfg:           cfg,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		identityRepo:  identityRepo,
		nonceRepo:     nonceRepo,
		resetRepo:     resetRepo,
		verifier:      verifier,
		mailer:        mailer,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ValidatePassword applies the sign-up strength rules.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return weakPassword("Password must be at least 8 characters long")
	}
	lower := strings.ToLower(password)
	for _, w := range weakPasswords {
		if lower == w {
			return weakPassword("Please choose a stronger password")
		}
	}
	return nil
}

func (as *authService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := userrepo.NormalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, invalidInput("A valid email is required")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var session *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}
		created, err := as.userRepo.Create(dbc, []*types.User{{
			Email:     email,
			Password:  string(hash),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
		}})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		session, err = as.issueSession(dbc, created[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncAuthEvent("signup")
	as.log.Info("User signed up", "user_id", session.User.ID)
	return session, nil
}

func (as *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = userrepo.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 || users[0].Password == "" {
		return nil, ErrInvalidCredentials
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	var session *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userRepo.UpdateLastLogin(dbc, user.ID, as.now()); err != nil {
			return fmt.Errorf("update last login: %w", err)
		}
		session, err = as.issueSession(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncAuthEvent("signin")
	return session, nil
}

func (as *authService) OAuthEnabled() bool { return as.verifier != nil }

// CreateOAuthNonce returns the raw nonce the client passes to Google; only its hash is stored.
func (as *authService) CreateOAuthNonce(ctx context.Context) (string, time.Time, error) {
	if as.verifier == nil {
		return "", time.Time{}, ErrOAuthDisabled
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := as.now().Add(as.cfg.NonceTTL)
	if _, err := as.nonceRepo.Create(dbctx.Context{Ctx: ctx}, []*types.OAuthNonce{{
		Provider:  domainauth.ProviderGoogle,
		NonceHash: HashNonce(nonce),
		ExpiresAt: expiresAt,
	}}); err != nil {
		return "", time.Time{}, fmt.Errorf("store nonce: %w", err)
	}
	return nonce, expiresAt, nil
}

func (as *authService) SignInWithGoogle(ctx context.Context, idToken, nonce string) (*Session, error) {
	if as.verifier == nil {
		return nil, ErrOAuthDisabled
	}
	if strings.TrimSpace(idToken) == "" || strings.TrimSpace(nonce) == "" {
		return nil, invalidInput("id_token and nonce are required")
	}
	nonceHash := HashNonce(nonce)
	ext, err := as.verifier.VerifyGoogleIDToken(ctx, idToken, nonceHash)
	if err != nil {
		as.log.Warn("Google ID token rejected", "error", err)
		return nil, apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("Google sign-in could not be verified"))
	}

	var session *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := as.nonceRepo.Consume(dbc, domainauth.ProviderGoogle, nonceHash, as.now())
		if err != nil {
			return fmt.Errorf("consume nonce: %w", err)
		}
		if !ok {
			return ErrInvalidToken
		}
		user, err := as.userForIdentity(dbc, ext)
		if err != nil {
			return err
		}
		if err := as.userRepo.UpdateLastLogin(dbc, user.ID, as.now()); err != nil {
			return fmt.Errorf("update last login: %w", err)
		}
		session, err = as.issueSession(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncAuthEvent("oauth_signin")
	return session, nil
}

// userForIdentity resolves a linked user, links an existing account with the same
// verified email, or creates a password-less account.
func (as *authService) userForIdentity(dbc dbctx.Context, ext *ExternalIdentity) (*types.User, error) {
	linked, err := as.identityRepo.GetByProviderSub(dbc, ext.Provider, ext.Sub)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if linked != nil {
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{linked.UserID})
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return nil, ErrInvalidToken
		}
		return users[0], nil
	}

	email := userrepo.NormalizeEmail(ext.Email)
	if email == "" || !ext.EmailVerified {
		return nil, apierr.New(http.StatusUnauthorized, "unverified_email", errors.New("Google account email is not verified"))
	}
	var user *types.User
	users, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) > 0 {
		user = users[0]
	} else {
		created, err := as.userRepo.Create(dbc, []*types.User{{
			Email:     email,
			FirstName: ext.FirstName,
			LastName:  ext.LastName,
		}})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		user = created[0]
	}
	if _, err := as.identityRepo.Create(dbc, []*types.UserIdentity{{
		UserID:      user.ID,
		Provider:    ext.Provider,
		ProviderSub: ext.Sub,
		Email:       email,
	}}); err != nil {
		return nil, fmt.Errorf("link identity: %w", err)
	}
	return user, nil
}

// RequestPasswordReset never reveals whether the email has an account.
func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = userrepo.NormalizeEmail(email)
	if email == "" {
		return invalidInput("Email is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	users, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		as.log.Debug("Password reset requested for unknown email")
		return nil
	}
	user := users[0]

	secret, err := randomToken(32)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), as.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash reset token: %w", err)
	}
	rows, err := as.resetRepo.Create(dbc, []*types.PasswordResetToken{{
		UserID:    user.ID,
		TokenHash: string(hash),
		ExpiresAt: as.now().Add(as.cfg.ResetTTL),
	}})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	link := as.resetLink(rows[0].ID.String() + "." + secret)

	if as.mailer == nil {
		as.log.Info("Password reset mail not configured; logging link", "user_id", user.ID, "link", link)
		return nil
	}
	_, err = as.mailer.Send(ctx, sendgrid.Message{
		To:         sendgrid.Address{Email: user.Email, Name: strings.TrimSpace(user.FirstName + " " + user.LastName)},
		Subject:    "Reset your FormCraft AI password",
		Text:       "Use the link below to choose a new password. It expires in one hour.\n\n" + link + "\n\nIf you did not ask for this, you can ignore this email.",
		HTML:       `<p>Use the link below to choose a new password. It expires in one hour.</p><p><a href="` + link + `">Reset password</a></p><p>If you did not ask for this, you can ignore this email.</p>`,
		Categories: []string{"password_reset"},
	})
	if err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	observability.Current().IncAuthEvent("password_reset_requested")
	return nil
}

func (as *authService) resetLink(token string) string {
	base := strings.TrimRight(strings.TrimSpace(as.cfg.AppBaseURL), "/")
	return base + "/auth/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword takes the "<row id>.<secret>" token from the reset link.
func (as *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	idPart, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || secret == "" {
		return ErrInvalidResetToken
	}
	rowID, err := uuid.Parse(idPart)
	if err != nil {
		return ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), as.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		now := as.now()
		row, err := as.resetRepo.GetActive(dbc, rowID, now)
		if err != nil {
			return fmt.Errorf("load reset token: %w", err)
		}
		if row == nil || bcrypt.CompareHashAndPassword([]byte(row.TokenHash), []byte(secret)) != nil {
			return ErrInvalidResetToken
		}
		used, err := as.resetRepo.MarkUsed(dbc, row.ID, now)
		if err != nil {
			return fmt.Errorf("mark reset token used: %w", err)
		}
		if !used {
			return ErrInvalidResetToken
		}
		if err := as.userRepo.UpdatePassword(dbc, row.UserID, string(hash)); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{row.UserID}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	observability.Current().IncAuthEvent("password_reset")
	return nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidToken
	}
	var session *Session
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 {
			return ErrInvalidToken
		}
		existing := found[0]
		if !existing.ExpiresAt.After(as.now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return ErrInvalidToken
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return ErrInvalidToken
		}
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}
		session, err = as.issueSession(dbc, users[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (as *authService) SignOut(ctx context.Context, accessToken string) error {
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{accessToken})
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	if err := as.userTokenRepo.FullDeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	observability.Current().IncAuthEvent("signout")
	return nil
}

func (as *authService) Authenticate(ctx context.Context, accessToken string) (*ctxutil.RequestData, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidToken
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{accessToken})
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, ErrInvalidToken
	}
	return &ctxutil.RequestData{
		TokenString: accessToken,
		UserID:      userID,
		SessionID:   found[0].ID,
	}, nil
}

func (as *authService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := as.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrInvalidToken
	}
	return users[0], nil
}

func (as *authService) AccessTTL() time.Duration { return as.cfg.AccessTTL }

func (as *authService) issueSession(dbc dbctx.Context, user *types.User) (*Session, error) {
	now := as.now()
	sessionID := uuid.New()
	claims := JWTClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh := uuid.NewString()
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{{
		ID:           sessionID,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.cfg.RefreshTTL),
	}}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(as.cfg.AccessTTL.Seconds()),
		User:         user,
		SessionID:    sessionID,
	}, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
