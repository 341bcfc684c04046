package session

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

// fakeClock is a virtual clock: timers fire only when Advance crosses
// their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock and fires every due, unstopped timer.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func newTestStore(t *testing.T, clock Clock) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewStore(DefaultTTL, clock, logger)
}

func rec(id string) domain.MediaRecord {
	return domain.MediaRecord{
		ID:        id,
		GuildID:   "guild-1",
		MediaURL:  "https://cdn.example.com/" + id,
		MediaType: domain.MediaTypeImage,
		Tags:      []string{"cat"},
		CreatedAt: time.Now(),
	}
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t, newFakeClock())

	s.Put("recall:user:u1", []domain.MediaRecord{rec("media-a"), rec("media-b")})

	got, ok := s.Get("recall:user:u1")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "media-a", got[0].ID)

	_, ok = s.Get("recall:user:u2")
	assert.False(t, ok)
}

func TestGet_ReturnsSnapshotCopy(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a")})

	got, ok := s.Get("k")
	require.True(t, ok)
	got[0].Tags[0] = "mutated"
	got[0].ID = "mutated"

	again, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "media-a", again[0].ID)
	assert.Equal(t, "cat", again[0].Tags[0])
}

func TestTTL_Boundaries(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	s.Put("k", []domain.MediaRecord{rec("media-a")})

	// Retrievable just before the TTL fires.
	clock.Advance(14*time.Minute + 59*time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok, "session should survive at T+14m59s")

	// Gone just after.
	clock.Advance(2 * time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok, "session should be evicted at T+15m01s")
}

func TestTTL_RePutRearmsTimer(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	s.Put("k", []domain.MediaRecord{rec("media-a")})
	clock.Advance(10 * time.Minute)

	// A new search replaces the session; the old timer must not evict
	// the fresh one.
	s.Put("k", []domain.MediaRecord{rec("media-b")})
	clock.Advance(6 * time.Minute) // old timer's deadline has passed

	got, ok := s.Get("k")
	require.True(t, ok, "replaced session must not be evicted by the stale timer")
	assert.Equal(t, "media-b", got[0].ID)

	// The fresh timer still evicts on its own schedule.
	clock.Advance(10 * time.Minute)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestRemove_Idempotent(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a")})

	s.Remove("k")
	s.Remove("k")

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestTake_SingleWinner(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a"), rec("media-b")})

	got, ok := s.Take("k")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "media-a", got[0].ID)

	// The claim evicted the session; a second taker loses.
	_, ok = s.Take("k")
	assert.False(t, ok)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestTake_StopsEvictionTimer(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	s.Put("k", []domain.MediaRecord{rec("media-a")})
	clock.Advance(10 * time.Minute)
	_, ok := s.Take("k")
	require.True(t, ok)

	// A re-put under the same key must not be evicted by the taken
	// session's timer.
	s.Put("k", []domain.MediaRecord{rec("media-b")})
	clock.Advance(6 * time.Minute) // past the taken session's deadline

	got, ok := s.Get("k")
	require.True(t, ok, "fresh session must outlive the taken session's timer")
	assert.Equal(t, "media-b", got[0].ID)
}

func TestReplaceAt(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a"), rec("media-b")})

	updated := rec("media-b")
	updated.Tags = []string{"dog"}
	assert.True(t, s.ReplaceAt("k", "media-b", updated))

	got, _ := s.Get("k")
	assert.Equal(t, []string{"dog"}, got[1].Tags)

	// Unknown item or key.
	assert.False(t, s.ReplaceAt("k", "media-x", updated))
	assert.False(t, s.ReplaceAt("missing", "media-b", updated))
}

func TestRemoveItem(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a"), rec("media-b"), rec("media-c")})

	remaining, found := s.RemoveItem("k", "media-b")
	require.True(t, found)
	assert.Equal(t, 2, remaining)

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "media-a", got[0].ID)
	assert.Equal(t, "media-c", got[1].ID)

	// Removing an already-gone item leaves the list intact.
	remaining, found = s.RemoveItem("k", "media-b")
	assert.False(t, found)
	assert.Equal(t, 2, remaining)
}

func TestRemoveItem_ExhaustionEvictsSession(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a")})

	remaining, found := s.RemoveItem("k", "media-a")
	require.True(t, found)
	assert.Equal(t, 0, remaining)

	// "Empty but present" is never observable.
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestRemoveItem_ConcurrentSingleWinner(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	s.Put("k", []domain.MediaRecord{rec("media-a"), rec("media-b")})

	const goroutines = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, found := s.RemoveItem("k", "media-a"); found {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent removal may observe the item")

	got, ok := s.Get("k")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "media-b", got[0].ID)
}

func TestRealClock_TimerFires(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := NewStore(time.Millisecond, RealClock(), logger)

	s.Put("k", []domain.MediaRecord{rec("media-a")})

	deadline := time.After(time.Second)
	for {
		if _, ok := s.Get("k"); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("session never expired under the real clock")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
