package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers, starting
// above zero. A single instance is shared process-wide so that books
// for many instruments draw from one timeline; increments are safe
// from any goroutine.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer. start is the last value already consumed:
// 0 on a fresh start, the recovered value after replay.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset moves the sequencer to a specific value. Only used after
// snapshot load and WAL replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
