package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/ctxutil"
)

func TestMemorySessionStoreExpiresAttempts(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemorySessionStore(15*time.Minute, 30*time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := m.RecordFailure(ctx, " Ada@Example.com ", now)
		require.NoError(t, err)
		require.Equal(t, i, n)
	}
	count, last, err := m.Failures(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.True(t, last.Equal(now))

	now = now.Add(15 * time.Minute)
	count, _, err = m.Failures(ctx, "ada@example.com")
	require.NoError(t, err)
	if count != 0 {
		t.Fatalf("attempts after window: got=%d want=0", count)
	}

	require.NoError(t, m.Touch(ctx, "s1", now))
	at, ok, err := m.LastActivity(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, at.Equal(now))
	now = now.Add(30 * time.Minute)
	_, ok, err = m.LastActivity(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemorySessionStoreSweepsUnreadKeys(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemorySessionStore(15*time.Minute, 30*time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := m.RecordFailure(ctx, fmt.Sprintf("user%d@example.com", i), now)
		require.NoError(t, err)
		require.NoError(t, m.Touch(ctx, fmt.Sprintf("session-%d", i), now))
	}
	require.Len(t, m.attempts, 1000)
	require.Len(t, m.activity, 1000)

	now = now.Add(48 * time.Hour)
	_, err := m.RecordFailure(ctx, "late@example.com", now)
	require.NoError(t, err)
	require.NoError(t, m.Touch(ctx, "late-session", now))
	if len(m.attempts) != 1 || len(m.activity) != 1 {
		t.Fatalf("after 48h: got attempts=%d activity=%d want=1 each", len(m.attempts), len(m.activity))
	}
}

func newTestSessionStore(t *testing.T, d testDeps) (SessionStore, AuthService, *MemorySessionStore) {
	t.Helper()
	auth := newTestAuth(d, nil, nil)
	mem := NewMemorySessionStore(15*time.Minute, 30*time.Minute)
	return NewSessionStore(d.log, DefaultSessionConfig(), auth, mem, mem), auth, mem
}

func TestSessionStoreLocksAfterFiveFailures(t *testing.T) {
	d := newDeps(t)
	store, auth, _ := newTestSessionStore(t, d)
	ctx := context.Background()
	email := uniqueEmail()
	_, err := auth.SignUp(ctx, SignUpInput{Email: email, Password: "correct horse"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.SignIn(ctx, email, "wrong password")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
	}

	// Locked even with the right password.
	_, err = store.SignIn(ctx, email, "correct horse")
	require.ErrorIs(t, err, ErrAccountLocked)
	ae, ok := apierr.From(err)
	require.True(t, ok)
	require.Equal(t, 429, ae.Status)
	require.Equal(t, "Account temporarily locked. Please try again in 15 minutes.", err.Error())

	// Fourteen and a half minutes later one minute remains.
	s := store.(*sessionStore)
	start := time.Now()
	s.now = func() time.Time { return start.Add(14*time.Minute + 30*time.Second) }
	_, err = store.SignIn(ctx, email, "correct horse")
	require.Error(t, err)
	require.Contains(t, err.Error(), "in 1 minutes")
}

func TestSessionStoreSuccessClearsAttempts(t *testing.T) {
	d := newDeps(t)
	store, auth, mem := newTestSessionStore(t, d)
	ctx := context.Background()
	email := uniqueEmail()
	_, err := auth.SignUp(ctx, SignUpInput{Email: email, Password: "correct horse"})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = store.SignIn(ctx, email, "nope nope")
	}
	count, _, _ := mem.Failures(ctx, email)
	require.Equal(t, 4, count)

	session, err := store.SignIn(ctx, email, "correct horse")
	require.NoError(t, err)
	count, _, _ = mem.Failures(ctx, email)
	if count != 0 {
		t.Fatalf("attempts after success: got=%d want=0", count)
	}

	rd, err := auth.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	reqCtx := ctxutil.WithRequestData(ctx, rd)

	user, err := store.CurrentUser(reqCtx)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, user.ID)

	st, err := store.Status(reqCtx)
	require.NoError(t, err)
	require.True(t, st.SessionValid)
	require.NotNil(t, st.LastActivity)
	require.True(t, st.LastActivityRecent)
	require.Greater(t, st.SessionTimeoutRemaining, 0)
	require.Equal(t, 0, st.FailedAttempts)

	require.NoError(t, store.SignOut(reqCtx))
	_, err = auth.Authenticate(ctx, session.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, ok, _ := mem.LastActivity(ctx, rd.SessionID.String())
	require.False(t, ok)
}

// Unknown emails count like wrong passwords.
func TestSessionStoreCountsUnknownEmails(t *testing.T) {
	d := newDeps(t)
	store, _, mem := newTestSessionStore(t, d)
	ctx := context.Background()

	email := uniqueEmail()
	_, err := store.SignIn(ctx, email, "whatever1")
	require.True(t, errors.Is(err, ErrInvalidCredentials), "got=%v", err)
	count, _, _ := mem.Failures(ctx, email)
	require.Equal(t, 1, count)

	_, err = store.CurrentUser(ctx)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func newTestAuth(d testDeps, verifier OIDCVerifier, mailer *fakeMailer) AuthService {
	cfg := AuthConfig{
		JWTSecretKey: "test-secret",
		AppBaseURL:   "https://app.test",
		BcryptCost:   bcrypt.MinCost,
	}
	if mailer == nil {
		return NewAuthService(d.db, d.log, cfg, d.users, d.tokens, d.identities, d.nonces, d.resets, verifier, nil)
	}
	return NewAuthService(d.db, d.log, cfg, d.users, d.tokens, d.identities, d.nonces, d.resets, verifier, mailer)
}
