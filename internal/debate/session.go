// Package debate holds the multi-round debate state machine: per-session
// transcripts, latest-target tracking and the round orchestrator.
package debate

import (
	"sync"

	"github.com/dyike/QuorumGo/models"
)

// Session owns one debate's append-only transcript and the map from persona
// to its latest stated price target. It is a process-memory cache, not a
// system of record; callers needing durability must externalize it.
type Session struct {
	mu       sync.Mutex
	id       string
	messages []models.DebateMessage
	targets  map[string]models.PriceTarget
}

func newSession(id string) *Session {
	return &Session{
		id:      id,
		targets: make(map[string]models.PriceTarget),
	}
}

func (s *Session) ID() string {
	return s.id
}

// append records a message and, when it carries a target, overwrites that
// persona's latest-target entry. Targets do not accumulate history beyond
// what the transcript already holds.
func (s *Session) append(msg models.DebateMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if msg.Target != nil {
		s.targets[msg.Persona] = *msg.Target
	}
}

// snapshot returns copies of the transcript and target map so adapters only
// ever see completed state.
func (s *Session) snapshot() ([]models.DebateMessage, map[string]models.PriceTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]models.DebateMessage, len(s.messages))
	copy(msgs, s.messages)
	targets := make(map[string]models.PriceTarget, len(s.targets))
	for k, v := range s.targets {
		targets[k] = v
	}
	return msgs, targets
}

// Messages returns a copy of the full transcript in append order.
func (s *Session) Messages() []models.DebateMessage {
	msgs, _ := s.snapshot()
	return msgs
}

// Targets returns a copy of each persona's latest price target.
func (s *Session) Targets() map[string]models.PriceTarget {
	_, targets := s.snapshot()
	return targets
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.targets = make(map[string]models.PriceTarget)
}

// SessionStore keys debate sessions by an opaque id. The in-memory
// implementation has no automatic expiry; callers own cleanup via Delete.
// The interface exists so a bounded or TTL-based store can replace it
// without touching the orchestrator.
type SessionStore interface {
	GetOrCreate(id string) *Session
	Delete(id string)
	Reset(id string)
	Len() int
}

// MemoryStore is the default process-lifetime session store. Safe for
// concurrent use across sessions; advancing the same session concurrently
// is the caller's responsibility to serialize.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id)
	m.sessions[id] = s
	return s
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *MemoryStore) Reset(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.reset()
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
