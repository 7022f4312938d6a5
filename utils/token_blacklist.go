package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker remembers logged-out admin tokens until they expire on their own.
// Redis is used when reachable; a process-local map covers outages.
type TokenRevoker struct {
	rc    redis.UniversalClient
	now   func() time.Time
	mu    sync.Mutex
	local map[string]time.Time
}

func NewTokenRevoker(rc redis.UniversalClient) *TokenRevoker {
	return &TokenRevoker{rc: rc, now: time.Now, local: map[string]time.Time{}}
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:revoked:" + hex.EncodeToString(sum[:])
}

// Revoke blocks token until expiresAt. Expired local entries are dropped on the way.
func (r *TokenRevoker) Revoke(token string, expiresAt time.Time) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return
	}
	key := revokedKey(token)

	now := r.now()
	r.mu.Lock()
	for k, exp := range r.local {
		if !now.Before(exp) {
			delete(r.local, k)
		}
	}
	r.local[key] = expiresAt
	r.mu.Unlock()

	if r.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.rc.Set(ctx, key, "1", ttl).Err(); err != nil {
		Sugar.Warnf("revoke token in redis failed: %v", err)
	}
}

// IsRevoked reports whether token was revoked and has not expired yet.
func (r *TokenRevoker) IsRevoked(token string) bool {
	key := revokedKey(token)

	r.mu.Lock()
	exp, ok := r.local[key]
	if ok && !r.now().Before(exp) {
		delete(r.local, key)
		ok = false
	}
	r.mu.Unlock()
	if ok {
		return true
	}

	if r.rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := r.rc.Exists(ctx, key).Result()
	return err == nil && n > 0
}
