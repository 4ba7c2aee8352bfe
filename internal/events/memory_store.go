package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the most recent events in process. Used when no redis
// address is configured.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	max    int
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = maxEventsPerList
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > s.max {
		s.events = s.events[len(s.events)-s.max:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, sessionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if sessionID == "" || s.events[i].SessionID == sessionID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, Event) error { return nil }
