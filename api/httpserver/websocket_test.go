package httpserver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchd/pkg/logger"
	"matchd/service"
)

func TestHub_BroadcastsTrades(t *testing.T) {
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	h := NewHub(log)
	go h.Run()

	c := &client{hub: h, send: make(chan []byte, 4), id: "test"}
	h.register <- c

	h.PublishTrades([]service.TradeEvent{{
		V: 1, Type: "trade", Price: 100, Quantity: 5, MakerID: 1, TakerID: 2, Seq: 9,
	}})

	select {
	case frame := <-c.send:
		var ev service.TradeEvent
		require.NoError(t, json.Unmarshal(frame, &ev))
		assert.Equal(t, int64(100), ev.Price)
		assert.Equal(t, int64(5), ev.Quantity)
		assert.Equal(t, uint64(9), ev.Seq)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	// unregistered clients get nothing and their channel is closed
	h.unregister <- c
	h.PublishTrades([]service.TradeEvent{{V: 1, Type: "trade"}})
	for range c.send {
	}
}
