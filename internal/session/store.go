// Package session keeps one onboarding orchestrator per browser session.
// Nothing is persisted; a new session resolves its state from scratch.
package session

import (
	"sync"
	"time"

	"github.com/lores-mesh/site-admin/internal/onboarding"
)

// Factory builds the orchestrator for a new session.
type Factory func(sessionID string) *onboarding.Orchestrator

type entry struct {
	orch     *onboarding.Orchestrator
	lastSeen time.Time
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  Factory
	now      func() time.Time
}

func NewStore(factory Factory) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		factory:  factory,
		now:      time.Now,
	}
}

// Get returns the orchestrator for id, creating it on first use.
func (s *Store) Get(id string) *onboarding.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		e = &entry{orch: s.factory(id)}
		s.sessions[id] = e
	}
	e.lastSeen = s.now()
	return e.orch
}

// Lookup returns an existing orchestrator without creating one.
func (s *Store) Lookup(id string) (*onboarding.Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return e.orch, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions not seen for longer than idle and returns how
// many were removed.
func (s *Store) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
