// Package outbox is a pebble-backed store for trade events awaiting
// publication. Entries move NEW -> SENT -> ACKED; anything not yet
// acked is rescanned by the broadcaster, giving at-least-once
// delivery across restarts.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one pending trade event plus its delivery bookkeeping.
type Entry struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeEntry(e Entry) []byte {
	buf := make([]byte, 1+4+8+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[13:], e.Payload)
	return buf
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < 13 {
		return Entry{}, errors.New("outbox: entry too short")
	}
	payload := make([]byte, len(b)-13)
	copy(payload, b[13:])
	return Entry{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// Outbox stores pending trade events durably, keyed by a sequence
// assigned on append. Safe for one writer and one scanner.
type Outbox struct {
	db      *pebble.DB
	nextSeq uint64
}

// Open opens (or creates) the outbox at dir and resumes key
// numbering after the highest existing entry.
func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	o := &Outbox{db: db, nextSeq: 1}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if iter.Last() && iter.Valid() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			_ = iter.Close()
			_ = db.Close()
			return nil, err
		}
		o.nextSeq = seq + 1
	}
	if err := iter.Close(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return o, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Append stores a new pending payload and returns its sequence.
func (o *Outbox) Append(payload []byte) (uint64, error) {
	seq := o.nextSeq
	e := Entry{State: StateNew, Payload: payload}
	if err := o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync); err != nil {
		return 0, err
	}
	o.nextSeq++
	return seq, nil
}

// Get returns the entry stored at seq.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(val)
}

// MarkSent flags an entry as handed to the producer, bumping its
// retry counter.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.transition(seq, StateSent, true)
}

// MarkAcked flags an entry as acknowledged by the broker.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.transition(seq, StateAcked, false)
}

// MarkFailed flags an entry as undeliverable.
func (o *Outbox) MarkFailed(seq uint64) error {
	return o.transition(seq, StateFailed, false)
}

func (o *Outbox) transition(seq uint64, state State, bumpRetries bool) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.LastAttempt = time.Now().UnixNano()
	if bumpRetries {
		e.Retries++
	}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// Delete removes an entry, normally after it has been acked.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// ScanPending visits entries still awaiting acknowledgement (NEW or
// SENT) in key order.
func (o *Outbox) ScanPending(fn func(seq uint64, e Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return err
		}
		if e.State != StateNew && e.State != StateSent {
			continue
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(b), "trade/%d", &seq)
	return seq, err
}
