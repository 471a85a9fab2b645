package services

import (
	"context"
	"strings"
	"sync"
	"time"
)

// AttemptTracker counts failed sign-ins per email. Counters expire one lockout window
// after the last failure.
type AttemptTracker interface {
	Failures(ctx context.Context, email string) (int, time.Time, error)
	RecordFailure(ctx context.Context, email string, at time.Time) (int, error)
	Clear(ctx context.Context, email string) error
}

// ActivityStore keeps the rolling last-activity stamp per session.
type ActivityStore interface {
	Touch(ctx context.Context, key string, at time.Time) error
	LastActivity(ctx context.Context, key string) (time.Time, bool, error)
	Forget(ctx context.Context, key string) error
}

type attemptEntry struct {
	count int
	last  time.Time
}

// MemorySessionStore is the single-process AttemptTracker and ActivityStore. It is
// advisory: state is lost on restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	lockout  time.Duration
	idle     time.Duration
	now      func() time.Time
	attempts map[string]attemptEntry
	activity map[string]time.Time

	lastSweep time.Time
}

// sweepInterval bounds how often writes scan both maps for expired entries.
const sweepInterval = time.Minute

func NewMemorySessionStore(lockout, idle time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		lockout:  lockout,
		idle:     idle,
		now:      time.Now,
		attempts: map[string]attemptEntry{},
		activity: map[string]time.Time{},
	}
}

func attemptKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (m *MemorySessionStore) Failures(_ context.Context, email string) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveAttempt(attemptKey(email))
	if !ok {
		return 0, time.Time{}, nil
	}
	return e.count, e.last, nil
}

func (m *MemorySessionStore) RecordFailure(_ context.Context, email string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	key := attemptKey(email)
	e, _ := m.liveAttempt(key)
	e.count++
	e.last = at
	m.attempts[key] = e
	return e.count, nil
}

func (m *MemorySessionStore) Clear(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, attemptKey(email))
	return nil
}

func (m *MemorySessionStore) Touch(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.activity[key] = at
	return nil
}

func (m *MemorySessionStore) LastActivity(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.activity[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if m.idle > 0 && m.now().Sub(at) >= m.idle {
		delete(m.activity, key)
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (m *MemorySessionStore) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.activity, key)
	return nil
}

// liveAttempt drops entries whose window has passed. Callers hold mu.
func (m *MemorySessionStore) liveAttempt(key string) (attemptEntry, bool) {
	e, ok := m.attempts[key]
	if !ok {
		return attemptEntry{}, false
	}
	if m.lockout > 0 && m.now().Sub(e.last) >= m.lockout {
		delete(m.attempts, key)
		return attemptEntry{}, false
	}
	return e, true
}

// sweep drops every expired attempt and activity entry. Keys that are never read
// again would otherwise stay forever. Callers hold mu.
func (m *MemorySessionStore) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	if m.lockout > 0 {
		for k, e := range m.attempts {
			if now.Sub(e.last) >= m.lockout {
				delete(m.attempts, k)
			}
		}
	}
	if m.idle > 0 {
		for k, at := range m.activity {
			if now.Sub(at) >= m.idle {
				delete(m.activity, k)
			}
		}
	}
}
