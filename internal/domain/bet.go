package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// BetStatus represents the current state of a user's bet.
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"   // awaiting market resolution
	BetStatusWon       BetStatus = "won"       // market resolved in user's favour
	BetStatusLost      BetStatus = "lost"      // market resolved against user
	BetStatusCancelled BetStatus = "cancelled" // market cancelled; stake refunded
)

// BetDirection says whether the bettor backs the outcome (YES) or bets
// against it (NO).
type BetDirection string

const (
	DirectionYes BetDirection = "YES"
	DirectionNo  BetDirection = "NO"
)

// IsValid returns true if the direction is a recognised value.
func (d BetDirection) IsValid() bool {
	return d == DirectionYes || d == DirectionNo
}

// ──────────────────────────────────────────────────────────────────────────────
// Bet
// ──────────────────────────────────────────────────────────────────────────────

// Bet is one user's wager on one outcome of one market. Odds and potential
// payout are frozen at placement time and never recomputed: resolution pays
// the stored PotentialPayout verbatim, so settlement is independent of any
// pricing drift after placement.
type Bet struct {
	ID              uuid.UUID       `json:"id"               db:"id"`
	UserID          uuid.UUID       `json:"user_id"          db:"user_id"`
	MarketID        uuid.UUID       `json:"market_id"        db:"market_id"`
	OutcomeID       uuid.UUID       `json:"outcome_id"       db:"outcome_id"`
	Amount          decimal.Decimal `json:"amount"           db:"amount"`
	Direction       BetDirection    `json:"direction"        db:"direction"`
	OddsAtBet       decimal.Decimal `json:"odds_at_bet"      db:"odds_at_bet"`
	PotentialPayout decimal.Decimal `json:"potential_payout" db:"potential_payout"`
	Status          BetStatus       `json:"status"           db:"status"`
	PlacedAt        time.Time       `json:"placed_at"        db:"placed_at"`
	ResolvedAt      *time.Time      `json:"resolved_at"      db:"resolved_at"`
}

// IsPending returns true while the bet awaits resolution.
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// WinsAgainst reports whether this bet pays out given the winning outcome of
// a binary-form resolution. A YES bet wins when its outcome is the winner;
// a NO bet wins when its outcome is not.
func (b *Bet) WinsAgainst(winningOutcomeID uuid.UUID) bool {
	if b.Direction == DirectionYes {
		return b.OutcomeID == winningOutcomeID
	}
	return b.OutcomeID != winningOutcomeID
}

// WinsWithFlags reports whether this bet pays out under a per-outcome winner
// map (multi-outcome resolution). The caller guarantees the map carries a
// flag for every outcome of the market.
func (b *Bet) WinsWithFlags(isWinner map[uuid.UUID]bool) bool {
	won := isWinner[b.OutcomeID]
	if b.Direction == DirectionYes {
		return won
	}
	return !won
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBetRequest — value object used by BetService
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBetRequest carries the validated inputs for placing a bet.
type PlaceBetRequest struct {
	UserID    uuid.UUID
	MarketID  uuid.UUID
	Selection Selection
	Amount    decimal.Decimal
}

// PlaceBetResult is returned to the caller after a successful placement.
type PlaceBetResult struct {
	Bet        *Bet            `json:"bet"`
	NewBalance decimal.Decimal `json:"new_balance"`
}
