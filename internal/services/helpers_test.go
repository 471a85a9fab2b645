package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/platform/sendgrid"
)

type testDeps struct {
	db  *gorm.DB
	log *logger.Logger

	forms         repos.FormRepo
	submissions   repos.SubmissionRepo
	cache         repos.AnalyticsCacheRepo
	conversations repos.ConversationRepo
	messages      repos.ChatMessageRepo
	users         repos.UserRepo
	tokens        repos.UserTokenRepo
	identities    repos.UserIdentityRepo
	nonces        repos.OAuthNonceRepo
	resets        repos.PasswordResetTokenRepo
}

// newDeps wires repos on the shared test database. Services run their own
// transactions, so tests write through db and keep data apart with fresh ids.
func newDeps(t *testing.T) testDeps {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return testDeps{
		db:            db,
		log:           log,
		forms:         repos.NewFormRepo(db, log),
		submissions:   repos.NewSubmissionRepo(db, log),
		cache:         repos.NewAnalyticsCacheRepo(db, log),
		conversations: repos.NewConversationRepo(db, log),
		messages:      repos.NewChatMessageRepo(db, log),
		users:         repos.NewUserRepo(db, log),
		tokens:        repos.NewUserTokenRepo(db, log),
		identities:    repos.NewUserIdentityRepo(db, log),
		nonces:        repos.NewOAuthNonceRepo(db, log),
		resets:        repos.NewPasswordResetTokenRepo(db, log),
	}
}

func (d testDeps) formService() FormService {
	return NewFormService(d.db, d.log, d.forms, d.submissions, d.cache)
}

// fallbackAI has no model, so every operation answers from its fallback path.
func (d testDeps) fallbackAI() formgen.Service {
	return formgen.New(d.log, nil)
}

func (d testDeps) seedUser(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), d.db, uniqueEmail())
}

func uniqueEmail() string {
	return "user-" + uuid.NewString()[:8] + "@example.com"
}

// fakeMailer records messages instead of calling SendGrid.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sendgrid.Message
}

func (m *fakeMailer) Send(_ context.Context, msg sendgrid.Message) (*sendgrid.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return &sendgrid.SendResult{}, nil
}

func (m *fakeMailer) last() (sendgrid.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sendgrid.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// fakeBucket is an in-memory upload bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, ctypes: map[string]string{}}
}

func (b *fakeBucket) Upload(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.ctypes[key] = contentType
	return b.PublicURL(key), nil
}

func (b *fakeBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	delete(b.ctypes, key)
	return nil
}

func (b *fakeBucket) PublicURL(key string) string {
	return "https://uploads.test/" + strings.TrimPrefix(key, "/")
}
