package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore keeps failed-login counters and last-activity stamps in redis so every
// API replica sees the same lockout state.
type SessionStore struct {
	rdb     goredis.UniversalClient
	prefix  string
	lockout time.Duration
	idle    time.Duration
}

// NewSessionStore expires attempt counters lockout after the last failure and activity
// stamps idle after the last touch.
func NewSessionStore(rdb goredis.UniversalClient, prefix string, lockout, idle time.Duration) *SessionStore {
	if prefix == "" {
		prefix = "formcraft"
	}
	return &SessionStore{rdb: rdb, prefix: prefix, lockout: lockout, idle: idle}
}

func (s *SessionStore) attemptsKey(email string) string {
	return s.prefix + ":login_attempts:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *SessionStore) activityKey(key string) string {
	return s.prefix + ":last_activity:" + key
}

func (s *SessionStore) Failures(ctx context.Context, email string) (int, time.Time, error) {
	vals, err := s.rdb.HMGet(ctx, s.attemptsKey(email), "count", "last").Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	count := parseInt(vals[0])
	last := parseInt(vals[1])
	if count == 0 {
		return 0, time.Time{}, nil
	}
	return count, time.UnixMilli(int64(last)), nil
}

func (s *SessionStore) RecordFailure(ctx context.Context, email string, at time.Time) (int, error) {
	key := s.attemptsKey(email)
	var incr *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.HIncrBy(ctx, key, "count", 1)
		p.HSet(ctx, key, "last", at.UnixMilli())
		p.PExpire(ctx, key, s.lockout)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *SessionStore) Clear(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, s.attemptsKey(email)).Err()
}

func (s *SessionStore) Touch(ctx context.Context, key string, at time.Time) error {
	return s.rdb.Set(ctx, s.activityKey(key), at.UnixMilli(), s.idle).Err()
}

func (s *SessionStore) LastActivity(ctx context.Context, key string) (time.Time, bool, error) {
	ms, err := s.rdb.Get(ctx, s.activityKey(key)).Int64()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

func (s *SessionStore) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.activityKey(key)).Err()
}

func parseInt(v any) int {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0
	}
	return n
}
