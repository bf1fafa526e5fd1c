package orderbook

// Side identifies which half of the book an order belongs to.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is the resting state of one unmatched intent. It exists only
// while queued inside a price level; a fully matched order is removed
// the instant its quantity reaches zero.
//
// Timestamp is the sequence number assigned when the order first
// rested. It is audit metadata: FIFO order within a level is the
// queue's insertion order, never a timestamp comparison.
type Order struct {
	ID        uint64
	Price     int64
	Quantity  int64
	Timestamp uint64
}

// Trade is an immutable record of one match event. Price is always
// the maker's (resting) price, never the taker's.
type Trade struct {
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	MakerID  uint64 `json:"maker_id"`
	TakerID  uint64 `json:"taker_id"`
}

// Quote is the aggregate view of one price level.
type Quote struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Sequence supplies strictly increasing sequence numbers used to
// timestamp resting orders. Implementations must never repeat or
// reset a value for the lifetime of the process.
type Sequence interface {
	Next() uint64
}
