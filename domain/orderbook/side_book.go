package orderbook

import (
	"container/heap"
	"sort"
)

// priceHeap is the best-price index for one side: a max-heap of
// prices for buys, a min-heap for sells. Entries may go stale when a
// level drains; readers skip and evict them lazily.
type priceHeap struct {
	prices []int64
	desc   bool
}

func (h *priceHeap) Len() int { return len(h.prices) }

func (h *priceHeap) Less(i, j int) bool {
	if h.desc {
		return h.prices[i] > h.prices[j]
	}
	return h.prices[i] < h.prices[j]
}

func (h *priceHeap) Swap(i, j int) { h.prices[i], h.prices[j] = h.prices[j], h.prices[i] }

func (h *priceHeap) Push(x any) { h.prices = append(h.prices, x.(int64)) }

func (h *priceHeap) Pop() any {
	old := h.prices
	n := len(old)
	p := old[n-1]
	h.prices = old[:n-1]
	return p
}

// sideBook pairs the price -> level map with the best-price index
// for one side. Invariant: every price present in the map has at
// least one resting order. The index may additionally hold stale
// entries for prices that have since drained.
type sideBook struct {
	levels map[int64]*PriceLevel
	index  *priceHeap
}

func newSideBook(side Side) *sideBook {
	return &sideBook{
		levels: make(map[int64]*PriceLevel, 1024),
		index: &priceHeap{
			prices: make([]int64, 0, 1024),
			desc:   side == Buy,
		},
	}
}

// bestPrice returns the best price that still has resting orders.
// Stale top entries encountered on the way are popped.
func (s *sideBook) bestPrice() (int64, bool) {
	for s.index.Len() > 0 {
		p := s.index.prices[0]
		if lvl, ok := s.levels[p]; ok && !lvl.Empty() {
			return p, true
		}
		heap.Pop(s.index)
	}
	return 0, false
}

// insert appends the order to the back of its price's level. A price
// new to the map gets a fresh level and a best-price index entry; the
// map lookup replaces a scan of the index, keeping the check O(1).
func (s *sideBook) insert(o *Order) {
	lvl, ok := s.levels[o.Price]
	if !ok {
		lvl = newPriceLevel(o.Price)
		s.levels[o.Price] = lvl
		heap.Push(s.index, o.Price)
	}
	lvl.enqueue(o)
}

// quantityAt returns the aggregate at an exact price, or false when
// no level rests there.
func (s *sideBook) quantityAt(price int64) (Quote, bool) {
	lvl, ok := s.levels[price]
	if !ok || lvl.Empty() {
		return Quote{}, false
	}
	return Quote{Price: price, Quantity: lvl.TotalQuantity()}, true
}

// removeLevelIfEmpty drops the level at price from the map when it is
// absent or drained, popping the matching index entry if it sits on
// top. Must be called right after any operation that can empty a
// level.
func (s *sideBook) removeLevelIfEmpty(price int64) {
	if lvl, ok := s.levels[price]; ok && !lvl.Empty() {
		return
	}
	delete(s.levels, price)
	if s.index.Len() > 0 && s.index.prices[0] == price {
		heap.Pop(s.index)
	}
}

// walk visits levels best to worst. The map is sorted on demand; this
// is a snapshot/depth path, not the matching hot path.
func (s *sideBook) walk(fn func(*PriceLevel) bool) {
	prices := make([]int64, 0, len(s.levels))
	for p := range s.levels {
		prices = append(prices, p)
	}
	if s.index.desc {
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	} else {
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	}
	for _, p := range prices {
		if !fn(s.levels[p]) {
			return
		}
	}
}
