// Package ratelimit provides per-user token bucket rate limiting for
// carousel actions and searches.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleEvictAfter is how long an untouched user bucket survives before
// the sweeper drops it. Buckets refill to full burst well before this,
// so eviction never grants extra tokens.
const idleEvictAfter = 10 * time.Minute

// sweepInterval is how often the sweeper scans for idle buckets.
const sweepInterval = time.Minute

// UserLimiter hands each user an independent token bucket. Unlike a
// fixed keyed map, buckets are evicted after going idle, so the map
// stays proportional to the active user set rather than everyone who
// ever pressed a button.
type UserLimiter struct {
	mu      sync.Mutex
	buckets map[string]*userBucket
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserLimiter creates a limiter granting each user rps sustained
// actions per second with the given burst.
func NewUserLimiter(rps float64, burst int) *UserLimiter {
	l := &UserLimiter{
		buckets: make(map[string]*userBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go l.sweep()

	return l
}

// Allow reports whether the user may act right now. Non-blocking;
// a refusal maps to a 429 at the transport layer.
func (l *UserLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// Len returns the number of tracked user buckets.
func (l *UserLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop shuts down the idle sweeper.
func (l *UserLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

func (l *UserLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictIdle(time.Now())
		}
	}
}

func (l *UserLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for userID, b := range l.buckets {
		if now.Sub(b.lastSeen) >= idleEvictAfter {
			delete(l.buckets, userID)
		}
	}
}
