package httpserver

// PlaceOrderRequest is the body of POST /api/v1/orders.
type PlaceOrderRequest struct {
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	ID       uint64 `json:"id"`
}

// TradeInfo mirrors one executed trade in API responses.
type TradeInfo struct {
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	MakerID  uint64 `json:"maker_id"`
	TakerID  uint64 `json:"taker_id"`
}

// PlaceOrderResponse reports the fills an order produced.
type PlaceOrderResponse struct {
	Trades []TradeInfo `json:"trades"`
}

// QuoteInfo is one side's price level aggregate.
type QuoteInfo struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// BestQuotesResponse is the top of book. A missing side is null.
type BestQuotesResponse struct {
	Buy  *QuoteInfo `json:"buy"`
	Sell *QuoteInfo `json:"sell"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
