// Package session holds carousel result lists in a keyed, TTL-scoped
// in-memory store.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 15 * time.Minute

// entry is one live session. The generation tag makes eviction timers
// of replaced sessions no-ops: a timer only evicts if its generation
// still matches the entry it was armed for.
type entry struct {
	records   []domain.MediaRecord
	createdAt time.Time
	gen       uint64
	timer     Timer
}

// Store is a keyed TTL store of media snapshot lists with atomic
// per-key mutation.
//
// All operations on the store are serialized under one mutex, which is a
// stronger guarantee than the required per-key serialization: two
// concurrent RemoveItem calls on one key can never both observe the
// pre-mutation list. Nothing slow ever runs under the mutex; callers
// must finish repository and delivery I/O before committing a mutation.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	nextGen  uint64

	ttl    time.Duration
	clock  Clock
	logger *slog.Logger
}

// NewStore creates a session store. A zero ttl falls back to DefaultTTL;
// a nil clock falls back to the wall clock.
func NewStore(ttl time.Duration, clock Clock, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		clock:    clock,
		logger:   logger,
	}
}

// Put creates or overwrites the session under key and (re)arms its
// eviction timer. Overwriting bumps the generation, so the replaced
// session's pending timer becomes a no-op ("last search wins").
func (s *Store) Put(key string, records []domain.MediaRecord) {
	snapshot := make([]domain.MediaRecord, len(records))
	for i := range records {
		snapshot[i] = records[i].Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.sessions[key]; ok && old.timer != nil {
		old.timer.Stop()
	}

	s.nextGen++
	gen := s.nextGen
	e := &entry{
		records:   snapshot,
		createdAt: s.clock.Now(),
		gen:       gen,
	}
	s.sessions[key] = e
	e.timer = s.clock.AfterFunc(s.ttl, func() {
		s.evict(key, gen)
	})

	s.logger.Debug("session stored", "session_key", key, "items", len(snapshot))
}

// evict removes the session only if it is still the generation the
// timer was armed for.
func (s *Store) evict(key string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok || e.gen != gen {
		return
	}
	delete(s.sessions, key)
	s.logger.Debug("session expired", "session_key", key)
}

// Get returns a snapshot copy of the session's records, or ok=false if
// the key is absent or already evicted.
func (s *Store) Get(key string) ([]domain.MediaRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return nil, false
	}
	return cloneRecords(e.records), true
}

// Take evicts the session and returns its records in one step. At most
// one of two racing callers can take a key; the loser sees ok=false as
// if the session had already expired. Send uses this to claim a
// single-use session before delivering.
func (s *Store) Take(key string) ([]domain.MediaRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return nil, false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.sessions, key)
	s.logger.Debug("session taken", "session_key", key)
	return e.records, true
}

// Remove evicts the session immediately. Idempotent.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.sessions, key)
	s.logger.Debug("session removed", "session_key", key)
}

// ReplaceAt swaps the entry with matching id for newRecord in place.
// Reports false if the session or the item is gone.
func (s *Store) ReplaceAt(key, itemID string, newRecord domain.MediaRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return false
	}
	for i := range e.records {
		if e.records[i].ID == itemID {
			e.records[i] = newRecord.Clone()
			return true
		}
	}
	return false
}

// RemoveItem removes the entry with matching id and returns the number
// of remaining records. If the list empties, the whole session is
// evicted: an "empty but present" session is never observable. Reports
// found=false when the session or the item is already gone.
func (s *Store) RemoveItem(key, itemID string) (remaining int, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return 0, false
	}

	idx := -1
	for i := range e.records {
		if e.records[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(e.records), false
	}

	e.records = append(e.records[:idx], e.records[idx+1:]...)
	if len(e.records) == 0 {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.sessions, key)
		s.logger.Debug("session exhausted", "session_key", key)
		return 0, true
	}
	return len(e.records), true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func cloneRecords(records []domain.MediaRecord) []domain.MediaRecord {
	out := make([]domain.MediaRecord, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}
