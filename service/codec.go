package service

import (
	"encoding/binary"
	"fmt"

	"matchd/domain/orderbook"
)

// WAL payload for a place intent: [side:1][price:8][qty:8][id:8].
const placePayloadSize = 1 + 8 + 8 + 8

func encodePlace(side orderbook.Side, price, qty int64, id uint64) []byte {
	buf := make([]byte, placePayloadSize)
	buf[0] = byte(side)
	binary.BigEndian.PutUint64(buf[1:9], uint64(price))
	binary.BigEndian.PutUint64(buf[9:17], uint64(qty))
	binary.BigEndian.PutUint64(buf[17:25], id)
	return buf
}

func decodePlace(b []byte) (side orderbook.Side, price, qty int64, id uint64, err error) {
	if len(b) != placePayloadSize {
		return 0, 0, 0, 0, fmt.Errorf("invalid place payload length %d", len(b))
	}
	side = orderbook.Side(b[0])
	if side != orderbook.Buy && side != orderbook.Sell {
		return 0, 0, 0, 0, fmt.Errorf("invalid side %d", b[0])
	}
	price = int64(binary.BigEndian.Uint64(b[1:9]))
	qty = int64(binary.BigEndian.Uint64(b[9:17]))
	id = binary.BigEndian.Uint64(b[17:25])
	return side, price, qty, id, nil
}
