// Package flow provides the building blocks shared by the multi-step
// transaction orchestrators: explicit nonce sequencing, per-step state
// tracking, the signature timeout policy, and the failure taxonomy.
package flow

// Sequencer hands out strictly increasing transaction order numbers for
// one flow invocation. It is created at flow start from the wallet's
// pending nonce and discarded at flow end; it is never shared across
// concurrent flows and is deliberately unsynchronized.
type Sequencer struct {
	next   uint64
	issued int
}

// NewSequencer starts a sequencer at the given order number.
func NewSequencer(start uint64) *Sequencer {
	return &Sequencer{next: start}
}

// Peek returns the order number the next submission will use without
// consuming it. A step that is never submitted must not consume a slot.
func (s *Sequencer) Peek() uint64 {
	return s.next
}

// Advance consumes the current order number after a successful submission.
func (s *Sequencer) Advance() {
	s.next++
	s.issued++
}

// Next consumes and returns the next order number.
func (s *Sequencer) Next() uint64 {
	n := s.next
	s.Advance()
	return n
}

// Issued reports how many order numbers have been consumed.
func (s *Sequencer) Issued() int {
	return s.issued
}
