package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"matchd/domain/orderbook"
)

// Load restores the latest snapshot in dir into the book and returns
// the WAL sequence and timestamp it covers. A missing snapshot is not
// an error; recovery then replays the WAL from the start.
func Load(dir string, book *orderbook.Book) (walSeq, lastTimestamp uint64, err error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, 0, err
	}

	for _, e := range s.Orders {
		book.RestoreOrder(e.Side, orderbook.Order{
			ID:        e.ID,
			Price:     e.Price,
			Quantity:  e.Quantity,
			Timestamp: e.Timestamp,
		})
	}
	return s.WALSeq, s.LastTimestamp, nil
}
