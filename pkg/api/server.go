package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/pkg/engine"
	"papertrade/pkg/risk"
)

// TradingSession is the slice of the session the dashboard needs.
type TradingSession interface {
	PortfolioView() engine.PortfolioView
	RiskMetrics() (risk.Snapshot, error)
	TradeHistory(limit int) []engine.TradeRecord
	Execute(action risk.Action, symbol string, quantity decimal.Decimal) (engine.ExecResult, error)
}

// Server exposes the dashboard REST API and WebSocket stream over one
// trading session.
type Server struct {
	session TradingSession
	router  *mux.Router
	hub     *Hub
	http    *http.Server
	log     *zap.SugaredLogger
}

func NewServer(addr string, session TradingSession, log *zap.SugaredLogger) *Server {
	s := &Server{
		session: session,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           c.Handler(s.router),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/metrics", s.handleGetMetrics).Methods("GET")
	api.HandleFunc("/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start begins serving and runs the WebSocket hub.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.Infow("api_server_starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.session.PortfolioView())
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.session.RiskMetrics()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "risk metrics unavailable", err.Error())
		return
	}
	respondJSON(w, snapshot)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", raw)
			return
		}
		limit = n
	}

	records := s.session.TradeHistory(limit)
	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			ID:         rec.ID.String(),
			Action:     string(rec.Action),
			Symbol:     rec.Symbol,
			Quantity:   rec.Quantity,
			Price:      rec.Price,
			ExecutedAt: rec.ExecutedAt,
		}
	}
	respondJSON(w, map[string]interface{}{"trades": entries, "count": len(entries)})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "missing symbol", "")
		return
	}

	var action risk.Action
	switch req.Action {
	case string(risk.ActionBuy):
		action = risk.ActionBuy
	case string(risk.ActionSell):
		action = risk.ActionSell
	default:
		respondError(w, http.StatusBadRequest, "invalid action", req.Action)
		return
	}

	result, err := s.session.Execute(action, req.Symbol, req.Quantity)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidQuantity) {
			respondError(w, http.StatusBadRequest, "invalid quantity", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "order execution failed", err.Error())
		return
	}

	if result.Success {
		s.broadcastLatestTrade()
	}

	respondJSON(w, OrderResponse{
		Success:     result.Success,
		Action:      string(action),
		Symbol:      result.Symbol,
		Price:       result.Price,
		Quantity:    result.Quantity,
		Reason:      result.Reason,
		RiskMetrics: result.RiskMetrics,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (called from the runner)
// ==============================

// BroadcastTick streams a price sample to subscribers of "tick:<symbol>".
func (s *Server) BroadcastTick(symbol string, price decimal.Decimal, at time.Time) {
	s.hub.BroadcastToChannel("tick:"+symbol, TickUpdate{
		Type:      "tick",
		Symbol:    symbol,
		Price:     price,
		Timestamp: at.UnixMilli(),
	})
}

// BroadcastTrade streams an executed trade to subscribers of "trades".
func (s *Server) BroadcastTrade(record engine.TradeRecord) {
	s.hub.BroadcastToChannel("trades", TradeUpdate{
		Type:      "trade",
		ID:        record.ID.String(),
		Action:    string(record.Action),
		Symbol:    record.Symbol,
		Quantity:  record.Quantity,
		Price:     record.Price,
		Timestamp: record.ExecutedAt.UnixMilli(),
	})
}

func (s *Server) broadcastLatestTrade() {
	history := s.session.TradeHistory(1)
	if len(history) == 1 {
		s.BroadcastTrade(history[0])
	}
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
