package store

import "sync"

// Ticket identifies a snapshot request.
type Ticket uint64

// Sequencer discards snapshot responses that arrive out of order or that were
// requested before a local mutation.
type Sequencer struct {
	next     Ticket
	accepted Ticket
	barrier  Ticket
	mu       sync.Mutex
}

// Next returns the ticket for a new request.
func (s *Sequencer) Next() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}

// Accept returns true if the response of the ticket can be applied. An accepted
// ticket makes older ones stale.
func (s *Sequencer) Accept(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t <= s.accepted || t <= s.barrier {
		return false
	}
	s.accepted = t
	return true
}

// Barrier makes stale all the tickets issued so far.
func (s *Sequencer) Barrier() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.barrier = s.next
}
