// Package api is the transport surface: REST order entry and book queries,
// plus the WebSocket market-data feed. It translates wire requests into
// service calls and wires each WebSocket connection up as a feed subscriber;
// all market semantics live below it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vidar/internal/config"
	"vidar/internal/feed"
	"vidar/internal/metrics"
	"vidar/internal/pubsub"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Broadcaster pushes a feed message to every subscriber. Satisfied by
// feed.Pipeline.
type Broadcaster interface {
	Broadcast(message any)
}

type Server struct {
	cfg       config.Config
	service   *feed.Service
	publisher *pubsub.Publisher
	feed      Broadcaster
	registry  *prometheus.Registry
	log       zerolog.Logger
}

func New(cfg config.Config, service *feed.Service, publisher *pubsub.Publisher, broadcaster Broadcaster, registry *prometheus.Registry, log zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		service:   service,
		publisher: publisher,
		feed:      broadcaster,
		registry:  registry,
		log:       log,
	}
}

// Handler builds the route table. Exposed separately from Run so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orderbook", s.handleOrderBook)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /ws/market-data", s.handleMarketData)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler(s.registry))
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// No server-wide WriteTimeout: WebSocket sessions outlive any sane value,
	// and the write pump sets its own per-frame deadlines.
	srv := &http.Server{
		Addr:        s.cfg.Server.Addr,
		Handler:     s.Handler(),
		ReadTimeout: time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		IdleTimeout: time.Duration(s.cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", s.cfg.Server.Addr).Msg("api server running")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("api server shutdown")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// orderRequest mirrors the JSON accepted by POST /api/orders.
type orderRequest struct {
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// orderResponse confirms or rejects an order submission. Rejections come back
// as status "rejected" with the reason in message, on a 200 like any other
// handled outcome; only a malformed request is an HTTP error.
type orderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed order request", http.StatusBadRequest)
		return
	}

	orderID, err := s.service.SubmitOrder(req.Side, req.Price, req.Quantity)
	if err != nil {
		metrics.OrdersRejectedTotal.Inc()
		s.log.Info().Err(err).Str("side", req.Side).Float64("price", req.Price).
			Float64("quantity", req.Quantity).Msg("order rejected")
		writeJSON(w, orderResponse{Status: "rejected", Message: err.Error()})
		return
	}

	metrics.OrdersSubmittedTotal.Inc()
	s.log.Info().Str("order", orderID).Str("side", req.Side).
		Float64("price", req.Price).Float64("quantity", req.Quantity).
		Msg("order placed")

	s.feed.Broadcast(feed.OrderEvent{
		Type:     "order",
		OrderID:  orderID,
		Side:     req.Side,
		Price:    req.Price,
		Quantity: req.Quantity,
		Status:   "pending",
	})

	writeJSON(w, orderResponse{
		OrderID: orderID,
		Status:  "pending",
		Message: "Order placed successfully",
	})
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.BookSnapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.History())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.service.Reset()
	s.log.Warn().Msg("trading state reset")
	writeJSON(w, map[string]string{"status": "reset"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":             "healthy",
		"active_connections": s.publisher.Len(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
