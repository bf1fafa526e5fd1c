package orderbook

// PriceLevel is a FIFO queue of resting orders at a single price on
// one side of the book. The order at the front is always matched
// first. A level that drains to empty is removed from its side's map
// immediately; it must never stay reachable through queries.
type PriceLevel struct {
	Price    int64
	orders   []*Order
	totalQty int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		orders: make([]*Order, 0, 8),
	}
}

func (l *PriceLevel) enqueue(o *Order) {
	l.orders = append(l.orders, o)
	l.totalQty += o.Quantity
}

func (l *PriceLevel) front() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

func (l *PriceLevel) popFront() {
	l.orders[0] = nil
	l.orders = l.orders[1:]
}

// reduce accounts a partial or full fill against the running total.
func (l *PriceLevel) reduce(qty int64) {
	l.totalQty -= qty
}

// Empty reports whether no orders rest at this level.
func (l *PriceLevel) Empty() bool {
	return len(l.orders) == 0
}

// Len returns the number of resting orders at this level.
func (l *PriceLevel) Len() int {
	return len(l.orders)
}

// TotalQuantity returns the exact sum of resting quantities at this
// level. The total is maintained on every mutation, so this is O(1).
func (l *PriceLevel) TotalQuantity() int64 {
	return l.totalQty
}

// Each visits the resting orders in FIFO order. Orders are passed by
// value; callers cannot mutate book state through them.
func (l *PriceLevel) Each(fn func(Order)) {
	for _, o := range l.orders {
		fn(*o)
	}
}
