// Package domain defines the core business entities and types for the
// YOMI.fun Zeny prediction-market system.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	StatusOpen      MarketStatus = "open"      // accepting bets
	StatusClosed    MarketStatus = "closed"    // betting window over, awaiting resolution
	StatusResolving MarketStatus = "resolving" // a resolution pass holds the market
	StatusResolved  MarketStatus = "resolved"  // winner declared, payouts sent
	StatusCancelled MarketStatus = "cancelled" // voided; all bets refunded
)

// MarketType distinguishes two-outcome OUI/NON markets from N-outcome ones.
type MarketType string

const (
	MarketBinary MarketType = "binary"
	MarketMulti  MarketType = "multi"
)

// Canonical outcome names for binary markets.
const (
	BinaryYesName = "OUI"
	BinaryNoName  = "NON"
)

// ──────────────────────────────────────────────────────────────────────────────
// Market
// ──────────────────────────────────────────────────────────────────────────────

// Market represents a single prediction event users can wager Zeny on.
// Binary markets carry AMM-style liquidity pools whose ratio drives the
// displayed probabilities; multi markets hold admin-set static probabilities.
type Market struct {
	ID               uuid.UUID       `json:"id"                 db:"id"`
	Question         string          `json:"question"           db:"question"`
	Type             MarketType      `json:"type"               db:"type"`
	Status           MarketStatus    `json:"status"             db:"status"`
	IsLive           bool            `json:"is_live"            db:"is_live"`
	Volume           decimal.Decimal `json:"volume"             db:"volume"`
	PoolYes          decimal.Decimal `json:"pool_yes"           db:"pool_yes"`
	PoolNo           decimal.Decimal `json:"pool_no"            db:"pool_no"`
	WinningOutcomeID *uuid.UUID      `json:"winning_outcome_id" db:"winning_outcome_id"`
	ClosesAt         time.Time       `json:"closes_at"          db:"closes_at"`
	ResolvedAt       *time.Time      `json:"resolved_at"        db:"resolved_at"`
	CreatedAt        time.Time       `json:"created_at"         db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"         db:"updated_at"`
}

// AcceptsBets returns true while the market can take new wagers.
// Both conditions are required: status open AND the live flag set.
func (m *Market) AcceptsBets() bool {
	return m.Status == StatusOpen && m.IsLive
}

// IsResolved returns true after the market has been settled.
func (m *Market) IsResolved() bool {
	return m.Status == StatusResolved
}

// IsBinary returns true for two-outcome OUI/NON markets.
func (m *Market) IsBinary() bool {
	return m.Type == MarketBinary
}

// TotalPool returns the sum of both liquidity pools.
func (m *Market) TotalPool() decimal.Decimal {
	return m.PoolYes.Add(m.PoolNo)
}

// PoolProbability returns the implied probability (0–100) of the pool named
// by yes. Returns 50 when both pools are empty so a fresh market prices even.
func (m *Market) PoolProbability(yes bool) decimal.Decimal {
	total := m.TotalPool()
	if total.IsZero() {
		return decimal.NewFromInt(50)
	}
	pool := m.PoolNo
	if yes {
		pool = m.PoolYes
	}
	return pool.Div(total).Mul(decimal.NewFromInt(100))
}

// ──────────────────────────────────────────────────────────────────────────────
// Outcome
// ──────────────────────────────────────────────────────────────────────────────

// Outcome is one selectable choice within a market. Probability is the
// displayed percent (0–100): derived from pool ratios for binary markets,
// admin-set for multi markets. IsWinner is stamped at resolution.
type Outcome struct {
	ID          uuid.UUID       `json:"id"          db:"id"`
	MarketID    uuid.UUID       `json:"market_id"   db:"market_id"`
	Name        string          `json:"name"        db:"name"`
	Probability decimal.Decimal `json:"probability" db:"probability"`
	IsWinner    *bool           `json:"is_winner"   db:"is_winner"`
	CreatedAt   time.Time       `json:"created_at"  db:"created_at"`
}

// ValidateWinnerFlags checks that a winner-flag map covers a market's outcome
// set exactly: every outcome must carry a flag, and no flag may point at an
// outcome the market does not own. The second check keeps a mistyped outcome
// ID from ever reaching a write.
func ValidateWinnerFlags(outcomes []*Outcome, flags map[uuid.UUID]bool) error {
	ids := make(map[uuid.UUID]bool, len(outcomes))
	for _, o := range outcomes {
		ids[o.ID] = true
		if _, ok := flags[o.ID]; !ok {
			return fmt.Errorf("%w: outcome %s has no winner flag", ErrIncompleteResolution, o.ID)
		}
	}
	for id := range flags {
		if !ids[id] {
			return fmt.Errorf("%w: winner flag for unknown outcome %s", ErrOutcomeNotFound, id)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketSummary — lightweight read model for WS broadcasts and list endpoints
// ──────────────────────────────────────────────────────────────────────────────

// OutcomeSummary is the broadcast-safe view of one outcome.
type OutcomeSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Probability decimal.Decimal `json:"probability"`
}

// MarketSummary is a derived, read-only view of a Market used for broadcasting
// pool and probability changes to connected clients.
type MarketSummary struct {
	ID       uuid.UUID        `json:"id"`
	Question string           `json:"question"`
	Type     MarketType       `json:"type"`
	Status   MarketStatus     `json:"status"`
	Volume   decimal.Decimal  `json:"volume"`
	PoolYes  decimal.Decimal  `json:"pool_yes"`
	PoolNo   decimal.Decimal  `json:"pool_no"`
	Outcomes []OutcomeSummary `json:"outcomes"`
	ClosesAt time.Time        `json:"closes_at"`
}

// ToSummary builds a MarketSummary from the market and its outcomes.
func (m *Market) ToSummary(outcomes []*Outcome) MarketSummary {
	s := MarketSummary{
		ID:       m.ID,
		Question: m.Question,
		Type:     m.Type,
		Status:   m.Status,
		Volume:   m.Volume,
		PoolYes:  m.PoolYes,
		PoolNo:   m.PoolNo,
		ClosesAt: m.ClosesAt,
	}
	for _, o := range outcomes {
		s.Outcomes = append(s.Outcomes, OutcomeSummary{
			ID:          o.ID,
			Name:        o.Name,
			Probability: o.Probability,
		})
	}
	return s
}
