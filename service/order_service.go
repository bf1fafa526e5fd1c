package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"matchd/domain/orderbook"
	"matchd/infra/outbox"
	"matchd/infra/sequence"
	"matchd/infra/wal"
	"matchd/pkg/logger"
	"matchd/snapshot"
)

// TradeSink receives trade events synchronously as they happen, in
// addition to the durable outbox path. Used for in-process fan-out
// like the websocket hub.
type TradeSink interface {
	PublishTrades([]TradeEvent)
}

// OrderService wires the matching core to the WAL, the trade outbox,
// and the snapshotter. The book is single-threaded, so every caller
// (HTTP handlers, the order feed, the snapshot job) goes through the
// service mutex; the book itself is never touched from elsewhere.
// Queries take the lock too: reading the top of book evicts stale
// index entries.
type OrderService struct {
	mu   sync.Mutex
	book *orderbook.Book
	seq  *sequence.Sequencer
	wal  *wal.WAL
	box  *outbox.Outbox
	snap *snapshot.Writer
	log  *logger.Logger
	sink TradeSink
}

// NewOrderService wires all dependencies. No globals.
func NewOrderService(
	book *orderbook.Book,
	seq *sequence.Sequencer,
	w *wal.WAL,
	box *outbox.Outbox,
	snap *snapshot.Writer,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		book: book,
		seq:  seq,
		wal:  w,
		box:  box,
		snap: snap,
		log:  log,
	}
}

// SetTradeSink attaches an in-process trade subscriber. Must be set
// before traffic starts.
func (s *OrderService) SetTradeSink(sink TradeSink) {
	s.sink = sink
}

// PlaceOrder logs the intent, runs the matching core, and queues the
// resulting trades for publication. The returned slice is owned by
// the caller.
//
// A zero quantity short-circuits: nothing is logged, matched, or
// sequenced.
func (s *OrderService) PlaceOrder(side orderbook.Side, price, qty int64, id uint64) ([]orderbook.Trade, error) {
	if qty <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	walSeq, err := s.wal.Append(wal.RecordPlace, encodePlace(side, price, qty, id))
	if err != nil {
		return nil, fmt.Errorf("wal append: %w", err)
	}

	trades := s.book.PlaceOrder(side, price, qty, id)

	out := make([]orderbook.Trade, len(trades))
	copy(out, trades)

	if len(out) == 0 {
		return out, nil
	}

	events := make([]TradeEvent, len(out))
	for i, t := range out {
		events[i] = newTradeEvent(t, walSeq)
		payload, err := json.Marshal(events[i])
		if err != nil {
			return out, fmt.Errorf("encode trade event: %w", err)
		}
		if _, err := s.box.Append(payload); err != nil {
			return out, fmt.Errorf("outbox append: %w", err)
		}
	}

	s.log.Info("order matched",
		logger.Field{Key: "side", Value: side.String()},
		logger.Field{Key: "price", Value: price},
		logger.Field{Key: "id", Value: id},
		logger.Field{Key: "trades", Value: len(out)},
	)

	if s.sink != nil {
		s.sink.PublishTrades(events)
	}
	return out, nil
}

// BestBuy returns the top of the buy side.
func (s *OrderService) BestBuy() (orderbook.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BestBuy()
}

// BestSell returns the top of the sell side.
func (s *OrderService) BestSell() (orderbook.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BestSell()
}

// BuyAt returns the buy-side aggregate at an exact price.
func (s *OrderService) BuyAt(price int64) (orderbook.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BuyAt(price)
}

// SellAt returns the sell-side aggregate at an exact price.
func (s *OrderService) SellAt(price int64) (orderbook.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.SellAt(price)
}
