// Package httpserver exposes the order book over REST and pushes
// trades over a websocket feed.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"matchd/domain/orderbook"
	"matchd/pkg/logger"
	"matchd/service"
)

// Server handles REST requests and websocket connections.
type Server struct {
	svc    *service.OrderService
	router *mux.Router
	hub    *Hub
	http   *http.Server
	log    *logger.Logger
}

// NewServer wires routes and the websocket hub. The hub is registered
// as the service's trade sink.
func NewServer(addr string, svc *service.OrderService, log *logger.Logger) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	svc.SetTradeSink(s.hub)
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.http = &http.Server{Addr: addr, Handler: c.Handler(s.router)}
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/book/best", s.handleBestQuotes).Methods("GET")
	api.HandleFunc("/book/buy/{price}", s.handleBuyAt).Methods("GET")
	api.HandleFunc("/book/sell/{price}", s.handleSellAt).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and the listener until Shutdown.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.Info("http server starting", logger.Field{Key: "addr", Value: s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var side orderbook.Side
	switch req.Side {
	case "buy":
		side = orderbook.Buy
	case "sell":
		side = orderbook.Sell
	default:
		respondError(w, http.StatusBadRequest, "invalid side", "expected \"buy\" or \"sell\"")
		return
	}
	if req.Price < 0 || req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid order", "price and quantity must be non-negative")
		return
	}

	trades, err := s.svc.PlaceOrder(side, req.Price, req.Quantity, req.ID)
	if err != nil {
		s.log.Error(err, logger.Field{Key: "op", Value: "place order"})
		respondError(w, http.StatusInternalServerError, "order failed", "")
		return
	}

	resp := PlaceOrderResponse{Trades: make([]TradeInfo, len(trades))}
	for i, t := range trades {
		resp.Trades[i] = TradeInfo{
			Price:    t.Price,
			Quantity: t.Quantity,
			MakerID:  t.MakerID,
			TakerID:  t.TakerID,
		}
	}
	respondJSON(w, resp)
}

func (s *Server) handleBestQuotes(w http.ResponseWriter, r *http.Request) {
	var resp BestQuotesResponse
	if q, ok := s.svc.BestBuy(); ok {
		resp.Buy = &QuoteInfo{Price: q.Price, Quantity: q.Quantity}
	}
	if q, ok := s.svc.BestSell(); ok {
		resp.Sell = &QuoteInfo{Price: q.Price, Quantity: q.Quantity}
	}
	respondJSON(w, resp)
}

func (s *Server) handleBuyAt(w http.ResponseWriter, r *http.Request) {
	s.handleLevelAt(w, r, s.svc.BuyAt)
}

func (s *Server) handleSellAt(w http.ResponseWriter, r *http.Request) {
	s.handleLevelAt(w, r, s.svc.SellAt)
}

func (s *Server) handleLevelAt(w http.ResponseWriter, r *http.Request, lookup func(int64) (orderbook.Quote, bool)) {
	price, err := strconv.ParseInt(mux.Vars(r)["price"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}

	q, ok := lookup(price)
	if !ok {
		respondError(w, http.StatusNotFound, "no orders at price", "")
		return
	}
	respondJSON(w, QuoteInfo{Price: q.Price, Quantity: q.Quantity})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: detail})
}
