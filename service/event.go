package service

import "matchd/domain/orderbook"

// TradeEvent is the published form of one match. Seq ties the event
// back to the WAL intent that produced it.
type TradeEvent struct {
	V        int    `json:"v"`
	Type     string `json:"type"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	MakerID  uint64 `json:"maker_id"`
	TakerID  uint64 `json:"taker_id"`
	Seq      uint64 `json:"seq"`
}

func newTradeEvent(t orderbook.Trade, seq uint64) TradeEvent {
	return TradeEvent{
		V:        1,
		Type:     "trade",
		Price:    t.Price,
		Quantity: t.Quantity,
		MakerID:  t.MakerID,
		TakerID:  t.TakerID,
		Seq:      seq,
	}
}
