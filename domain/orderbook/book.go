package orderbook

// Book is a single-instrument limit order book with strict
// price-time priority. It owns one side book per direction and a
// reusable trade buffer. Not safe for concurrent use: callers run
// exactly one sequential feed of orders per instance.
type Book struct {
	buys   *sideBook
	sells  *sideBook
	seq    Sequence
	trades []Trade
}

// New creates an empty book. The sequence source is injected so the
// book stays self-contained and testable with a deterministic fake.
func New(seq Sequence) *Book {
	return &Book{
		buys:   newSideBook(Buy),
		sells:  newSideBook(Sell),
		seq:    seq,
		trades: make([]Trade, 0, 128),
	}
}

// PlaceOrder matches an incoming order against the opposite side and
// rests any unfilled remainder on its own side.
//
// Trades come back best price first, FIFO within a price. The
// returned slice is the book's reusable buffer: it is valid only
// until the next call on the book, and callers who need to keep it
// must copy.
//
// A zero quantity is a no-op: no state change, no sequence number
// consumed. Order IDs are taken as-is; duplicates across calls are
// matched independently.
func (b *Book) PlaceOrder(side Side, price, quantity int64, id uint64) []Trade {
	b.trades = b.trades[:0]
	if quantity <= 0 {
		return b.trades
	}

	ts := b.seq.Next()
	remaining := quantity

	own, opp := b.buys, b.sells
	if side == Sell {
		own, opp = b.sells, b.buys
	}

	for remaining > 0 {
		best, ok := opp.bestPrice()
		if !ok {
			break
		}
		if side == Buy && price < best {
			break
		}
		if side == Sell && price > best {
			break
		}

		remaining = b.fillLevel(opp.levels[best], best, remaining, id)
		opp.removeLevelIfEmpty(best)
	}

	if remaining > 0 {
		own.insert(&Order{
			ID:        id,
			Price:     price,
			Quantity:  remaining,
			Timestamp: ts,
		})
	}
	return b.trades
}

// fillLevel drains resting orders from the front of the level until
// the level or the incoming quantity is exhausted, emitting one trade
// per maker touched.
func (b *Book) fillLevel(lvl *PriceLevel, price, remaining int64, takerID uint64) int64 {
	for remaining > 0 {
		maker := lvl.front()
		if maker == nil {
			break
		}
		qty := min(maker.Quantity, remaining)
		b.trades = append(b.trades, Trade{
			Price:    price,
			Quantity: qty,
			MakerID:  maker.ID,
			TakerID:  takerID,
		})
		maker.Quantity -= qty
		remaining -= qty
		lvl.reduce(qty)
		if maker.Quantity == 0 {
			lvl.popFront()
		}
	}
	return remaining
}

// BestBuy returns the aggregate at the highest-priced buy level.
func (b *Book) BestBuy() (Quote, bool) {
	return bestQuote(b.buys)
}

// BestSell returns the aggregate at the lowest-priced sell level.
func (b *Book) BestSell() (Quote, bool) {
	return bestQuote(b.sells)
}

func bestQuote(s *sideBook) (Quote, bool) {
	p, ok := s.bestPrice()
	if !ok {
		return Quote{}, false
	}
	return s.quantityAt(p)
}

// BuyAt returns the aggregate resting at an exact buy price.
func (b *Book) BuyAt(price int64) (Quote, bool) {
	return b.buys.quantityAt(price)
}

// SellAt returns the aggregate resting at an exact sell price.
func (b *Book) SellAt(price int64) (Quote, bool) {
	return b.sells.quantityAt(price)
}

// WalkBuys visits buy levels best to worst until fn returns false.
func (b *Book) WalkBuys(fn func(*PriceLevel) bool) {
	b.buys.walk(fn)
}

// WalkSells visits sell levels best to worst until fn returns false.
func (b *Book) WalkSells(fn func(*PriceLevel) bool) {
	b.sells.walk(fn)
}

// RestoreOrder re-inserts a resting order during snapshot recovery,
// preserving its original timestamp. It bypasses matching: snapshot
// state is consistent by construction and never crosses.
func (b *Book) RestoreOrder(side Side, o Order) {
	if side == Buy {
		b.buys.insert(&o)
		return
	}
	b.sells.insert(&o)
}
