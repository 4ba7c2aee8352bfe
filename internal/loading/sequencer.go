package loading

import "sync"

// Sequencer orders resolutions that may complete out of order. Every
// fetch takes a ticket before it starts; a result is applied only if no
// newer ticket has already been applied.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next issues a ticket strictly greater than every earlier one.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply runs fn under the sequencer lock if ticket is current and reports
// whether it ran. Stale tickets are discarded.
func (s *Sequencer) Apply(ticket uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.applied {
		return false
	}
	s.applied = ticket
	fn()
	return true
}

// Applied returns the newest ticket applied so far.
func (s *Sequencer) Applied() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
