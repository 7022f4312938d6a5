package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the key only while it is under the cap, so denied calls never count.
var allowScript = redis.NewScript(`
local n = redis.call('GET', KEYS[1])
if n and tonumber(n) >= tonumber(ARGV[1]) then
	return 0
end
n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RedisWindow is the fixed-window limiter shared by every instance through Redis.
// Keys expire with their window, so no sweep is needed.
type RedisWindow struct {
	client  redis.Scripter
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedisWindow creates a shared limiter storing counters under prefix.
func NewRedisWindow(client redis.Scripter, prefix string, limit int, window time.Duration) *RedisWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisWindow{
		client:  client,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		timeout: 500 * time.Millisecond,
	}
}

// Allow reports whether key is under the cap. Redis failures fail open.
func (l *RedisWindow) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	n, err := allowScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, l.window.Milliseconds()).Int()
	if err != nil {
		return true
	}
	return n == 1
}
