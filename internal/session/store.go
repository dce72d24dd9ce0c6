// Package session keeps per-session conversational state in memory.
//
// State lives for the life of the process. Every session has its own lock so
// turns for different sessions never contend; the map of sessions is guarded
// by a separate read-write lock that is only held while looking entries up.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/standbot/internal/domain"
)

// DefaultHistorySize is the number of messages kept per session
const DefaultHistorySize = 10

// Counters is the admission state of one session. It is only handed out
// under the session lock, see Store.WithCounters.
type Counters struct {
	Daily  domain.DailyCount
	Window []time.Time
}

// PruneWindow drops timestamps at or before now-window and returns how many remain.
func (c *Counters) PruneWindow(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	kept := c.Window[:0]
	for _, ts := range c.Window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.Window = kept
	return len(c.Window)
}

type entry struct {
	mu         sync.Mutex
	history    []domain.Message
	lastEntity string
	counters   Counters
}

// Store maps session ids to their state
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	historySize int
	now         func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithHistorySize overrides the history cap
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty session store
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		historySize: DefaultHistorySize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID mints a fresh random session id
func NewID() string {
	return uuid.New().String()
}

// Resolve returns the session id carried by cookie, minting a new one when the
// cookie is absent or blank. The second result reports whether it was minted.
func (s *Store) Resolve(cookie string) (string, bool) {
	id := strings.TrimSpace(cookie)
	if id == "" {
		id = NewID()
		s.get(id)
		return id, true
	}
	s.get(id)
	return id, false
}

func (s *Store) get(id string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e
	}
	e = &entry{}
	s.sessions[id] = e
	return e
}

// History returns a copy of the conversation history, oldest first
func (s *Store) History(id string) []domain.Message {
	e := s.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Message, len(e.history))
	copy(out, e.history)
	return out
}

// AppendMessage appends msgs in order and evicts the oldest beyond the cap.
func (s *Store) AppendMessage(id string, msgs ...domain.Message) {
	e := s.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, msgs...)
	if over := len(e.history) - s.historySize; over > 0 {
		trimmed := make([]domain.Message, s.historySize)
		copy(trimmed, e.history[over:])
		e.history = trimmed
	}
}

// LastEntity returns the last company the session talked about
func (s *Store) LastEntity(id string) string {
	e := s.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEntity
}

// SetLastEntity remembers name as the topic of conversation. Blank names are ignored.
func (s *Store) SetLastEntity(id, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	e := s.get(id)
	e.mu.Lock()
	e.lastEntity = name
	e.mu.Unlock()
}

// TouchDailyCount atomically checks the session's count for today against
// limit and, if below, records one more request.
func (s *Store) TouchDailyCount(id string, limit int) bool {
	day := domain.DayOf(s.now())
	admitted := false
	s.WithCounters(id, func(c *Counters) {
		if c.Daily.Current(day) >= limit {
			return
		}
		c.Daily.Increment(day)
		admitted = true
	})
	return admitted
}

// WithCounters runs fn with the session's counters while holding its lock.
func (s *Store) WithCounters(id string, fn func(c *Counters)) {
	e := s.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.counters)
}

// Snapshot returns a copy of the session's state for diagnostics.
func (s *Store) Snapshot(id string, window time.Duration) domain.SessionSnapshot {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionSnapshot{ID: id}
	}

	now := s.now()
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]domain.Message, len(e.history))
	copy(history, e.history)
	daily := e.counters.Daily
	if daily.Day != domain.DayOf(now) {
		daily = domain.DailyCount{Day: domain.DayOf(now)}
	}
	return domain.SessionSnapshot{
		ID:                 id,
		History:            history,
		LastEntity:         e.lastEntity,
		DailyCount:         daily,
		RequestsThisWindow: e.counters.PruneWindow(now, window),
	}
}

// Exists reports whether id has state, without creating it
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Len returns the number of sessions seen since start
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
