// Package snapshot persists a point-in-time image of the book so the
// WAL can be truncated. A snapshot pins the WAL sequence it covers
// and the last order timestamp issued, letting recovery resume both
// exactly where they left off.
package snapshot

import (
	"time"

	"matchd/domain/orderbook"
)

// Snapshot is the gob-encoded on-disk image.
type Snapshot struct {
	WALSeq        uint64
	LastTimestamp uint64
	Created       time.Time
	Orders        []OrderEntry
}

// OrderEntry is one resting order. Entries are stored best price
// first, FIFO within a level, so restoring in slice order rebuilds
// identical queue positions.
type OrderEntry struct {
	ID        uint64
	Side      orderbook.Side
	Price     int64
	Quantity  int64
	Timestamp uint64
}

func collect(book *orderbook.Book) []OrderEntry {
	entries := make([]OrderEntry, 0, 1024)

	book.WalkBuys(func(lvl *orderbook.PriceLevel) bool {
		lvl.Each(func(o orderbook.Order) {
			entries = append(entries, OrderEntry{
				ID: o.ID, Side: orderbook.Buy,
				Price: o.Price, Quantity: o.Quantity, Timestamp: o.Timestamp,
			})
		})
		return true
	})
	book.WalkSells(func(lvl *orderbook.PriceLevel) bool {
		lvl.Each(func(o orderbook.Order) {
			entries = append(entries, OrderEntry{
				ID: o.ID, Side: orderbook.Sell,
				Price: o.Price, Quantity: o.Quantity, Timestamp: o.Timestamp,
			})
		})
		return true
	})
	return entries
}
