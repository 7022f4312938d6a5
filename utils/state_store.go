package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// StateStore keeps single-use OAuth state tokens to mitigate CSRF on the callback.
// Redis is preferred so any instance can finish a login; a process-local map
// covers a nil client and Redis outages.
type StateStore struct {
	rc    redis.UniversalClient
	now   func() time.Time
	mu    sync.Mutex
	local map[string]time.Time
}

func NewStateStore(rc redis.UniversalClient) *StateStore {
	return &StateStore{rc: rc, now: time.Now, local: map[string]time.Time{}}
}

// Save registers state for ttl.
func (s *StateStore) Save(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := s.rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err()
		if err == nil {
			return
		}
		Sugar.Warnf("save oauth state in redis failed, keeping it locally: %v", err)
	}

	now := s.now()
	s.mu.Lock()
	for k, exp := range s.local {
		if !now.Before(exp) {
			delete(s.local, k)
		}
	}
	s.local[state] = now.Add(ttl)
	s.mu.Unlock()
}

// Consume reports whether state is known and unexpired, and forgets it either way.
func (s *StateStore) Consume(state string) bool {
	if state == "" {
		return false
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := s.rc.GetDel(ctx, stateKeyPrefix+state).Result()
		if err == nil {
			return v != ""
		}
	}

	s.mu.Lock()
	exp, ok := s.local[state]
	delete(s.local, state)
	s.mu.Unlock()
	return ok && s.now().Before(exp)
}
