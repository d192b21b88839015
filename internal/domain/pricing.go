package domain

import "github.com/shopspring/decimal"

// ──────────────────────────────────────────────────────────────────────────────
// Pricing constants
// ──────────────────────────────────────────────────────────────────────────────

// PlatformFeeRate is the fee taken off every stake (2 %). The fee is burned,
// not added to the pools.
var PlatformFeeRate = decimal.NewFromFloat(0.02)

// Probability clamp bounds (as fractions) applied before inversion so odds
// never divide by an extreme.
var (
	MinProbability = decimal.NewFromFloat(0.01)
	MaxProbability = decimal.NewFromFloat(0.99)
)

// Odds clamp bounds applied to the final multiplier.
var (
	MinOdds = decimal.NewFromFloat(1.01)
	MaxOdds = decimal.NewFromInt(100)
)

// XPPerBet is the flat experience award for every accepted bet.
const XPPerBet = 10

// xpPerLevel is the XP span of one level.
const xpPerLevel = 1000

// ──────────────────────────────────────────────────────────────────────────────
// Stake / fee
// ──────────────────────────────────────────────────────────────────────────────

// ValidateStake checks a stake against the configured bounds. Both bounds are
// inclusive: min and max themselves are accepted.
func ValidateStake(stake, min, max decimal.Decimal) error {
	if stake.LessThan(min) || stake.GreaterThan(max) {
		return ErrStakeOutOfRange
	}
	return nil
}

// SplitStake returns (fee, investment) for a stake: fee = stake × 2 %,
// investment = stake − fee. Odds and payout are always computed from the
// investment, never from the raw stake.
func SplitStake(stake decimal.Decimal) (fee, investment decimal.Decimal) {
	fee = stake.Mul(PlatformFeeRate)
	return fee, stake.Sub(fee)
}

// ──────────────────────────────────────────────────────────────────────────────
// Odds
// ──────────────────────────────────────────────────────────────────────────────

// ClampProbability converts a displayed percent (0–100) into a fraction and
// clamps it into [0.01, 0.99].
func ClampProbability(percent decimal.Decimal) decimal.Decimal {
	frac := percent.Div(decimal.NewFromInt(100))
	if frac.LessThan(MinProbability) {
		return MinProbability
	}
	if frac.GreaterThan(MaxProbability) {
		return MaxProbability
	}
	return frac
}

// OddsFor computes the payout multiplier for a bet at the given clamped
// probability fraction: 1/p when backing the outcome (YES), 1/(1−p) when
// betting against it (NO). The result is clamped into [1.01, 100].
func OddsFor(probability decimal.Decimal, direction BetDirection) decimal.Decimal {
	one := decimal.NewFromInt(1)
	p := probability
	if direction == DirectionNo {
		p = one.Sub(probability)
	}
	odds := one.Div(p)
	if odds.LessThan(MinOdds) {
		return MinOdds
	}
	if odds.GreaterThan(MaxOdds) {
		return MaxOdds
	}
	return odds
}

// PotentialPayout returns investment × odds, the amount frozen onto the bet
// and paid verbatim if it wins.
func PotentialPayout(investment, odds decimal.Decimal) decimal.Decimal {
	return investment.Mul(odds)
}

// ──────────────────────────────────────────────────────────────────────────────
// XP / level
// ──────────────────────────────────────────────────────────────────────────────

// LevelForXP is the pure level function: floor(xp / 1000) + 1.
func LevelForXP(xp int64) int {
	return int(xp/xpPerLevel) + 1
}
