// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeMarketUpdate   MsgType = "market_update"
	MsgTypeBetPlaced      MsgType = "bet_placed"
	MsgTypeMarketResolved MsgType = "market_resolved"
	MsgTypeMarketClosed   MsgType = "market_closed"
	MsgTypeNewMarket      MsgType = "new_market"
	MsgTypeError          MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// MarketUpdateMessage — pools and probabilities changed
// ──────────────────────────────────────────────────────────────────────────────

// MarketUpdateMessage carries the refreshed pool state and per-outcome
// probabilities of one market. Broadcast after every accepted bet and on the
// periodic summary tick.
type MarketUpdateMessage struct {
	Type      MsgType              `json:"type"`
	Market    domain.MarketSummary `json:"market"`
	Timestamp time.Time            `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BetPlacedMessage — lightweight activity ticker
// ──────────────────────────────────────────────────────────────────────────────

// BetPlacedMessage notifies all clients that someone wagered on a market.
// No user identity is included.
type BetPlacedMessage struct {
	Type      MsgType             `json:"type"`
	MarketID  uuid.UUID           `json:"market_id"`
	Direction domain.BetDirection `json:"direction"`
	Amount    decimal.Decimal     `json:"amount"`
	Timestamp time.Time           `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketResolvedMessage — broadcast when a market is settled
// ──────────────────────────────────────────────────────────────────────────────

// MarketResolvedMessage tells clients a market has been settled. The winning
// outcome ID is nil for multi-form resolutions with per-outcome flags.
type MarketResolvedMessage struct {
	Type             MsgType    `json:"type"`
	MarketID         uuid.UUID  `json:"market_id"`
	WinningOutcomeID *uuid.UUID `json:"winning_outcome_id,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketClosedMessage — betting window over
// ──────────────────────────────────────────────────────────────────────────────

// MarketClosedMessage tells clients the betting window closed; bets on the
// market stay pending until resolution.
type MarketClosedMessage struct {
	Type      MsgType   `json:"type"`
	MarketID  uuid.UUID `json:"market_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// NewMarketMessage — broadcast when a market opens
// ──────────────────────────────────────────────────────────────────────────────

// NewMarketMessage carries the identity of a freshly opened market.
type NewMarketMessage struct {
	Type       MsgType           `json:"type"`
	MarketID   uuid.UUID         `json:"market_id"`
	Question   string            `json:"question"`
	MarketType domain.MarketType `json:"market_type"`
	ClosesAt   time.Time         `json:"closes_at"`
	Timestamp  time.Time         `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
