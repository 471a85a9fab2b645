package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

func testStore(t *testing.T) *SessionStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb, err := NewClient(context.Background(), logger.Nop(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb, "fc-test-"+uuid.NewString(), time.Minute, time.Minute)
}

func TestSessionStoreAttempts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())

	if n, _, err := s.Failures(ctx, "Ann@Example.com"); err != nil || n != 0 {
		t.Fatalf("Failures before: n=%d err=%v", n, err)
	}
	for i := 1; i <= 3; i++ {
		n, err := s.RecordFailure(ctx, "ann@example.com", now)
		if err != nil || n != i {
			t.Fatalf("RecordFailure #%d: n=%d err=%v", i, n, err)
		}
	}
	n, last, err := s.Failures(ctx, " ANN@example.com")
	if err != nil || n != 3 || !last.Equal(now) {
		t.Fatalf("Failures: n=%d last=%v err=%v", n, last, err)
	}
	if err := s.Clear(ctx, "ann@example.com"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _, _ := s.Failures(ctx, "ann@example.com"); n != 0 {
		t.Fatalf("Failures after clear: got=%d", n)
	}
}

func TestSessionStoreActivity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())

	if _, ok, err := s.LastActivity(ctx, "tok"); err != nil || ok {
		t.Fatalf("LastActivity before: ok=%v err=%v", ok, err)
	}
	if err := s.Touch(ctx, "tok", now); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	got, ok, err := s.LastActivity(ctx, "tok")
	if err != nil || !ok || !got.Equal(now) {
		t.Fatalf("LastActivity: got=%v ok=%v err=%v", got, ok, err)
	}
	if err := s.Forget(ctx, "tok"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
}

func TestConfigEnabled(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	if ConfigFromEnv().Enabled() {
		t.Fatalf("expected redis disabled without REDIS_ADDR")
	}
}
