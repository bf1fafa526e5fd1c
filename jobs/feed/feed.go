// Package feed consumes order requests from Kafka and drives them
// through the order service.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"matchd/domain/orderbook"
	"matchd/pkg/logger"
	"matchd/service"
)

// OrderRequest is the wire form of one inbound order.
type OrderRequest struct {
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	ID       uint64 `json:"id"`
}

// decodeRequest parses and validates one message payload.
func decodeRequest(data []byte) (orderbook.Side, OrderRequest, error) {
	var req OrderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return 0, req, fmt.Errorf("decode order: %w", err)
	}

	var side orderbook.Side
	switch req.Side {
	case "buy":
		side = orderbook.Buy
	case "sell":
		side = orderbook.Sell
	default:
		return 0, req, fmt.Errorf("invalid side %q", req.Side)
	}
	if req.Price < 0 || req.Quantity < 0 {
		return 0, req, fmt.Errorf("negative price or quantity")
	}
	return side, req, nil
}

// Feed reads orders from a Kafka topic and places them on the book.
type Feed struct {
	reader *kafka.Reader
	svc    *service.OrderService
	log    *logger.Logger
}

// New builds a consumer on the given brokers and topic. With a group
// ID the broker tracks the committed offset across restarts.
func New(brokers []string, topic, groupID string, svc *service.OrderService, log *logger.Logger) *Feed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Feed{reader: reader, svc: svc, log: log}
}

// Run consumes until ctx is cancelled. Malformed messages are logged
// and skipped; the stream keeps moving.
func (f *Feed) Run(ctx context.Context) error {
	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read order: %w", err)
		}

		side, req, err := decodeRequest(msg.Value)
		if err != nil {
			f.log.Warn("dropping bad order message",
				logger.Field{Key: "offset", Value: msg.Offset},
				logger.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		if _, err := f.svc.PlaceOrder(side, req.Price, req.Quantity, req.ID); err != nil {
			return fmt.Errorf("place order %d: %w", req.ID, err)
		}
	}
}

// Close shuts the underlying reader down.
func (f *Feed) Close() error {
	return f.reader.Close()
}
