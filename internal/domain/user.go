package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// UserRole
// ──────────────────────────────────────────────────────────────────────────────

// UserRole controls access to the back-office surfaces.
type UserRole string

const (
	RoleUser  UserRole = "user"  // standard bettor
	RoleAdmin UserRole = "admin" // market creation, resolution, user management
)

// IsAdmin returns true only for the admin role.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// ──────────────────────────────────────────────────────────────────────────────
// User
// ──────────────────────────────────────────────────────────────────────────────

// User is the domain entity for registered accounts.
type User struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"` // never serialised
	Role         UserRole  `json:"role"       db:"role"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile
// ──────────────────────────────────────────────────────────────────────────────

// Profile holds a user's Zeny balance and aggregate betting stats, one row per
// user. Balance is the single source of truth for spendable funds and is only
// ever mutated by bet placement, resolution payouts, refunds, payment top-ups
// and admin adjustments, never by a direct client write.
type Profile struct {
	UserID        uuid.UUID       `json:"user_id"        db:"user_id"`
	DisplayName   string          `json:"display_name"   db:"display_name"`
	Balance       decimal.Decimal `json:"balance"        db:"balance"`
	TotalBets     int             `json:"total_bets"     db:"total_bets"`
	TotalWinnings decimal.Decimal `json:"total_winnings" db:"total_winnings"`
	XP            int64           `json:"xp"             db:"xp"`
	Level         int             `json:"level"          db:"level"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"     db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ZenyTransaction
// ──────────────────────────────────────────────────────────────────────────────

// TxType enumerates balance movement types for auditing.
type TxType string

const (
	TxBetDebit TxType = "bet_debit" // stake taken at placement
	TxPayout   TxType = "payout"    // winning bet settlement
	TxRefund   TxType = "refund"    // market cancelled
	TxTopUp    TxType = "topup"     // payment webhook credit
	TxBonus    TxType = "bonus"     // signup grant
	TxAdmin    TxType = "admin_adjust"
)

// ZenyTransaction is an immutable audit record for every balance change.
type ZenyTransaction struct {
	ID            uuid.UUID       `json:"id"             db:"id"`
	UserID        uuid.UUID       `json:"user_id"        db:"user_id"`
	Type          TxType          `json:"type"           db:"type"`
	Amount        decimal.Decimal `json:"amount"         db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"  db:"balance_after"`
	RefID         *uuid.UUID      `json:"ref_id"         db:"ref_id"` // bet or market ID
	Description   string          `json:"description"    db:"description"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
}
