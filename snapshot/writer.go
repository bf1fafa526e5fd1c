package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"matchd/domain/orderbook"
)

const fileName = "snapshot.bin"

// Writer persists snapshots into a directory, atomically replacing
// the previous image.
type Writer struct {
	Dir string
}

// Write captures the book's resting state. walSeq is the last WAL
// sequence already applied; lastTimestamp is the sequencer's current
// value.
func (w *Writer) Write(walSeq, lastTimestamp uint64, book *orderbook.Book) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		WALSeq:        walSeq,
		LastTimestamp: lastTimestamp,
		Created:       time.Now(),
		Orders:        collect(book),
	}

	tmp := filepath.Join(w.Dir, fileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, fileName))
}
