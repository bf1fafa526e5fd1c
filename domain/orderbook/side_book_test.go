package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideBook_BestPriceDirection(t *testing.T) {
	buys := newSideBook(Buy)
	sells := newSideBook(Sell)

	for _, p := range []int64{9, 11, 10} {
		buys.insert(&Order{ID: 1, Price: p, Quantity: 5})
		sells.insert(&Order{ID: 2, Price: p, Quantity: 5})
	}

	p, ok := buys.bestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(11), p)

	p, ok = sells.bestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(9), p)
}

func TestSideBook_BestPriceEvictsStaleEntries(t *testing.T) {
	s := newSideBook(Buy)

	s.insert(&Order{ID: 1, Price: 10, Quantity: 5})
	s.insert(&Order{ID: 2, Price: 9, Quantity: 5})

	// Drain the level behind the index's back, then remove it.
	lvl := s.levels[10]
	lvl.reduce(5)
	lvl.popFront()
	delete(s.levels, 10)

	p, ok := s.bestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(9), p)
	// The stale entry for 10 was popped, not just skipped.
	assert.Equal(t, 1, s.index.Len())
}

func TestSideBook_InsertReusesExistingLevel(t *testing.T) {
	s := newSideBook(Sell)

	s.insert(&Order{ID: 1, Price: 10, Quantity: 5})
	s.insert(&Order{ID: 2, Price: 10, Quantity: 7})

	assert.Equal(t, 1, s.index.Len())
	q, ok := s.quantityAt(10)
	require.True(t, ok)
	assert.Equal(t, int64(12), q.Quantity)
	assert.Equal(t, 2, s.levels[10].Len())
}

func TestSideBook_RemoveLevelIfEmpty(t *testing.T) {
	s := newSideBook(Buy)

	s.insert(&Order{ID: 1, Price: 10, Quantity: 5})

	// Non-empty level stays.
	s.removeLevelIfEmpty(10)
	_, ok := s.quantityAt(10)
	assert.True(t, ok)

	lvl := s.levels[10]
	lvl.reduce(5)
	lvl.popFront()
	s.removeLevelIfEmpty(10)

	_, ok = s.quantityAt(10)
	assert.False(t, ok)
	assert.Equal(t, 0, s.index.Len())

	// Removing an absent level is fine.
	s.removeLevelIfEmpty(10)
}

func TestSideBook_QuantityAtUnknownPrice(t *testing.T) {
	s := newSideBook(Buy)
	_, ok := s.quantityAt(42)
	assert.False(t, ok)
}
