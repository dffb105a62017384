package api

// API request/response types for REST endpoints and WebSocket messages

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/pkg/risk"
)

// ==============================
// REST Types
// ==============================

// OrderRequest is the payload for POST /api/orders.
type OrderRequest struct {
	Action   string          `json:"action"`   // "BUY" or "SELL"
	Symbol   string          `json:"symbol"`   // e.g. "AAPL"
	Quantity decimal.Decimal `json:"quantity"` // positive share count
}

// OrderResponse mirrors the executor outcome. Denials come back with
// success=false and a reason; only malformed requests produce HTTP errors.
type OrderResponse struct {
	Success     bool               `json:"success"`
	Action      string             `json:"action"`
	Symbol      string             `json:"symbol"`
	Price       decimal.Decimal    `json:"price,omitempty"`
	Quantity    decimal.Decimal    `json:"quantity,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	RiskMetrics *risk.TradeMetrics `json:"riskMetrics,omitempty"`
}

// HistoryEntry is one trade record in GET /api/history.
type HistoryEntry struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executedAt"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by a client to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["tick:AAPL","trades"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// TickUpdate is broadcast on channel "tick:<symbol>" for every oracle sample.
type TickUpdate struct {
	Type      string          `json:"type"` // "tick"
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

// TradeUpdate is broadcast on channel "trades" for every executed order.
type TradeUpdate struct {
	Type      string          `json:"type"` // "trade"
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}
