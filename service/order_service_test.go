package service

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchd/domain/orderbook"
	"matchd/infra/outbox"
	"matchd/infra/sequence"
	"matchd/infra/wal"
	"matchd/pkg/logger"
	"matchd/snapshot"
)

type serviceEnv struct {
	svc     *OrderService
	book    *orderbook.Book
	seq     *sequence.Sequencer
	wal     *wal.WAL
	box     *outbox.Outbox
	walDir  string
	boxDir  string
	snapDir string
}

func newTestEnv(t *testing.T) *serviceEnv {
	t.Helper()

	walDir := t.TempDir()
	boxDir := t.TempDir()
	snapDir := t.TempDir()

	w, err := wal.Open(wal.Config{Dir: walDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	box, err := outbox.Open(boxDir)
	require.NoError(t, err)
	t.Cleanup(func() {
		// pebble panics on double Close; recovery tests close the
		// outbox themselves before reopening.
		defer func() { _ = recover() }()
		_ = box.Close()
	})

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	seq := sequence.New(0)
	book := orderbook.New(seq)
	svc := NewOrderService(book, seq, w, box, &snapshot.Writer{Dir: snapDir}, log)

	return &serviceEnv{
		svc: svc, book: book, seq: seq, wal: w, box: box,
		walDir: walDir, boxDir: boxDir, snapDir: snapDir,
	}
}

func TestPlacePayloadRoundTrip(t *testing.T) {
	b := encodePlace(orderbook.Sell, 105, 30, 77)

	side, price, qty, id, err := decodePlace(b)
	require.NoError(t, err)
	assert.Equal(t, orderbook.Sell, side)
	assert.Equal(t, int64(105), price)
	assert.Equal(t, int64(30), qty)
	assert.Equal(t, uint64(77), id)
}

func TestDecodePlace_Invalid(t *testing.T) {
	_, _, _, _, err := decodePlace([]byte{1, 2, 3})
	assert.ErrorContains(t, err, "invalid place payload length")

	b := encodePlace(orderbook.Buy, 100, 10, 1)
	b[0] = 9
	_, _, _, _, err = decodePlace(b)
	assert.ErrorContains(t, err, "invalid side")
}

func TestOrderService_PlaceOrder(t *testing.T) {
	env := newTestEnv(t)

	trades, err := env.svc.PlaceOrder(orderbook.Sell, 100, 50, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)

	trades, err = env.svc.PlaceOrder(orderbook.Buy, 100, 30, 2)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(100), trades[0].Price)
	assert.Equal(t, int64(30), trades[0].Quantity)
	assert.Equal(t, uint64(1), trades[0].MakerID)
	assert.Equal(t, uint64(2), trades[0].TakerID)

	// both intents durable
	assert.Equal(t, uint64(2), env.wal.LastSeq())

	// the trade landed in the outbox as a pending event
	var events []TradeEvent
	err = env.box.ScanPending(func(seq uint64, e outbox.Entry) error {
		var ev TradeEvent
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].V)
	assert.Equal(t, "trade", events[0].Type)
	assert.Equal(t, int64(100), events[0].Price)
	assert.Equal(t, uint64(2), events[0].Seq)
}

func TestOrderService_ZeroQuantityNoop(t *testing.T) {
	env := newTestEnv(t)

	trades, err := env.svc.PlaceOrder(orderbook.Buy, 100, 0, 1)
	require.NoError(t, err)
	assert.Nil(t, trades)
	assert.Equal(t, uint64(0), env.wal.LastSeq())
	assert.Equal(t, uint64(0), env.seq.Current())
}

type captureSink struct {
	events []TradeEvent
}

func (c *captureSink) PublishTrades(events []TradeEvent) {
	c.events = append(c.events, events...)
}

func TestOrderService_TradeSink(t *testing.T) {
	env := newTestEnv(t)
	sink := &captureSink{}
	env.svc.SetTradeSink(sink)

	_, err := env.svc.PlaceOrder(orderbook.Sell, 100, 10, 1)
	require.NoError(t, err)
	_, err = env.svc.PlaceOrder(orderbook.Buy, 100, 10, 2)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, int64(10), sink.events[0].Quantity)
}

func TestOrderService_ConcurrentCallers(t *testing.T) {
	env := newTestEnv(t)

	// One goroutine per inbound path (HTTP handler, order feed), plus
	// queries and a snapshot racing them. The race detector must stay
	// quiet and quantity must be conserved.
	const perSide = 200
	var wg sync.WaitGroup
	traded := make([]int64, 2)

	place := func(slot int, side orderbook.Side, base uint64) {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			trades, err := env.svc.PlaceOrder(side, 100, 1, base+uint64(i))
			require.NoError(t, err)
			for _, tr := range trades {
				traded[slot] += tr.Quantity
			}
		}
	}

	wg.Add(2)
	go place(0, orderbook.Buy, 1_000)
	go place(1, orderbook.Sell, 2_000)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			env.svc.BestBuy()
			env.svc.BestSell()
			env.svc.BuyAt(100)
		}
		require.NoError(t, env.svc.WriteSnapshot())
	}()
	wg.Wait()

	tradedQty := traded[0] + traded[1]
	var restBuy, restSell int64
	if q, ok := env.svc.BuyAt(100); ok {
		restBuy = q.Quantity
	}
	if q, ok := env.svc.SellAt(100); ok {
		restSell = q.Quantity
	}
	assert.Equal(t, int64(perSide), restBuy+tradedQty)
	assert.Equal(t, int64(perSide), restSell+tradedQty)
	assert.Equal(t, uint64(2*perSide), env.wal.LastSeq())
}

func TestOrderService_RecoverFromWAL(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.PlaceOrder(orderbook.Buy, 100, 50, 1)
	require.NoError(t, err)
	_, err = env.svc.PlaceOrder(orderbook.Buy, 101, 20, 2)
	require.NoError(t, err)
	_, err = env.svc.PlaceOrder(orderbook.Sell, 101, 5, 3)
	require.NoError(t, err)
	require.NoError(t, env.wal.Close())
	require.NoError(t, env.box.Close())

	// rebuild from scratch off the same WAL directory
	w2, err := wal.Open(wal.Config{Dir: env.walDir})
	require.NoError(t, err)
	defer w2.Close()
	box2, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	defer box2.Close()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	seq2 := sequence.New(0)
	book2 := orderbook.New(seq2)
	svc2 := NewOrderService(book2, seq2, w2, box2, &snapshot.Writer{Dir: env.snapDir}, log)
	require.NoError(t, svc2.Recover(env.snapDir))

	best, ok := svc2.BestBuy()
	require.True(t, ok)
	assert.Equal(t, int64(101), best.Price)
	assert.Equal(t, int64(15), best.Quantity)

	q, ok := svc2.BuyAt(100)
	require.True(t, ok)
	assert.Equal(t, int64(50), q.Quantity)

	_, ok = svc2.BestSell()
	assert.False(t, ok)

	// replay keeps the original timeline, so new orders lose ties
	// to recovered ones
	assert.Equal(t, env.seq.Current(), seq2.Current())
}

func TestOrderService_RecoverFromSnapshotAndTail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.PlaceOrder(orderbook.Buy, 100, 50, 1)
	require.NoError(t, err)
	require.NoError(t, env.svc.WriteSnapshot())

	_, err = env.svc.PlaceOrder(orderbook.Sell, 105, 25, 2)
	require.NoError(t, err)
	require.NoError(t, env.wal.Close())
	require.NoError(t, env.box.Close())

	w2, err := wal.Open(wal.Config{Dir: env.walDir})
	require.NoError(t, err)
	defer w2.Close()
	box2, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	defer box2.Close()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	seq2 := sequence.New(0)
	book2 := orderbook.New(seq2)
	svc2 := NewOrderService(book2, seq2, w2, box2, &snapshot.Writer{Dir: env.snapDir}, log)
	require.NoError(t, svc2.Recover(env.snapDir))

	buy, ok := svc2.BestBuy()
	require.True(t, ok)
	assert.Equal(t, int64(100), buy.Price)
	assert.Equal(t, int64(50), buy.Quantity)

	sell, ok := svc2.BestSell()
	require.True(t, ok)
	assert.Equal(t, int64(105), sell.Price)
	assert.Equal(t, int64(25), sell.Quantity)
}
