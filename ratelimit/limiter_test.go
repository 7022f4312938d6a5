package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestFixedWindow_CapAndReset(t *testing.T) {
	clock := newClock()
	l := NewFixedWindow(30, time.Minute, WithClock(clock.Now))

	for i := 0; i < 30; i++ {
		require.True(t, l.Allow("site-view:1.2.3.4"), "call %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("site-view:1.2.3.4"), "31st call in the window must be rejected")

	clock.Advance(59 * time.Second)
	assert.False(t, l.Allow("site-view:1.2.3.4"), "still inside the window")

	clock.Advance(time.Second)
	assert.True(t, l.Allow("site-view:1.2.3.4"), "window elapsed, calls succeed again")
}

func TestFixedWindow_DeniedCallsDoNotCount(t *testing.T) {
	clock := newClock()
	l := NewFixedWindow(2, time.Minute, WithClock(clock.Now))

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow("k"))
	}

	l.mu.Lock()
	count := l.entries["k"].count
	l.mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	clock := newClock()
	l := NewFixedWindow(1, time.Minute, WithClock(clock.Now))

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestFixedWindow_Sweep(t *testing.T) {
	clock := newClock()
	l := NewFixedWindow(5, time.Minute, WithClock(clock.Now))

	l.Allow("old")
	clock.Advance(30 * time.Second)
	l.Allow("fresh")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, l.Sweep(), "only the expired key is evicted")
	assert.Equal(t, 1, l.Len())

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestFixedWindow_Defaults(t *testing.T) {
	l := NewFixedWindow(0, 0)
	assert.Equal(t, DefaultLimit, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}

func TestFixedWindow_ConcurrentAllow(t *testing.T) {
	l := NewFixedWindow(30, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, allowed)
}

func TestFixedWindow_StartStop(t *testing.T) {
	l := NewFixedWindow(5, 10*time.Millisecond)
	l.Allow("k")

	l.Start(context.Background())
	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)

	l.Stop()
	l.Stop()
}

func TestFixedWindow_StopWithoutStart(t *testing.T) {
	l := NewFixedWindow(5, time.Minute)
	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a limiter that was never started")
	}
}
