package service

import (
	"fmt"

	"matchd/infra/wal"
	"matchd/pkg/logger"
	"matchd/snapshot"
)

// Recover rebuilds the book from the latest snapshot plus the WAL
// tail. Replayed orders go straight through the matching core so the
// book ends up exactly where it was; the outbox is not touched, so
// trades are never published twice.
func (s *OrderService) Recover(snapDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	walSeq, lastTS, err := snapshot.Load(snapDir, s.book)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.seq.Reset(lastTS)

	replayed := 0
	lastSeq, err := wal.Replay(s.wal.Dir(), walSeq, func(rec *wal.Record) error {
		if rec.Type != wal.RecordPlace {
			return fmt.Errorf("unknown record type %d at seq %d", rec.Type, rec.Seq)
		}
		side, price, qty, id, err := decodePlace(rec.Data)
		if err != nil {
			return fmt.Errorf("record seq %d: %w", rec.Seq, err)
		}
		s.book.PlaceOrder(side, price, qty, id)
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay wal: %w", err)
	}

	s.log.Info("recovery complete",
		logger.Field{Key: "snapshot_seq", Value: walSeq},
		logger.Field{Key: "wal_last_seq", Value: lastSeq},
		logger.Field{Key: "replayed", Value: replayed},
	)
	return nil
}

// WriteSnapshot persists the current book state and drops WAL segments
// the snapshot now covers.
func (s *OrderService) WriteSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	walSeq := s.wal.LastSeq()
	if err := s.snap.Write(walSeq, s.seq.Current(), s.book); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := s.wal.TruncateBefore(walSeq); err != nil {
		return fmt.Errorf("truncate wal: %w", err)
	}
	s.log.Info("snapshot written", logger.Field{Key: "wal_seq", Value: walSeq})
	return nil
}
