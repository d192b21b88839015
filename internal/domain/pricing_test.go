package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
)

// ── Stake / fee ───────────────────────────────────────────────────────────────

func TestSplitStake_TwoPercentFee(t *testing.T) {
	fee, investment := domain.SplitStake(decimal.NewFromInt(100))

	if !fee.Equal(decimal.NewFromInt(2)) {
		t.Errorf("fee = %s, want 2", fee)
	}
	if !investment.Equal(decimal.NewFromInt(98)) {
		t.Errorf("investment = %s, want 98", investment)
	}
	// fee + investment must reconstruct the stake exactly
	if !fee.Add(investment).Equal(decimal.NewFromInt(100)) {
		t.Errorf("fee + investment = %s, want 100", fee.Add(investment))
	}
}

func TestValidateStake_InclusiveBounds(t *testing.T) {
	min := decimal.NewFromInt(10)
	max := decimal.NewFromInt(100000)

	cases := []struct {
		stake int64
		ok    bool
	}{
		{9, false},      // just below the floor
		{10, true},      // floor itself is accepted
		{100000, true},  // ceiling itself is accepted
		{100001, false}, // just above the ceiling
		{0, false},
		{500, true},
	}
	for _, tc := range cases {
		err := domain.ValidateStake(decimal.NewFromInt(tc.stake), min, max)
		if tc.ok && err != nil {
			t.Errorf("ValidateStake(%d) = %v, want accepted", tc.stake, err)
		}
		if !tc.ok && err != domain.ErrStakeOutOfRange {
			t.Errorf("ValidateStake(%d) = %v, want ErrStakeOutOfRange", tc.stake, err)
		}
	}
}

// ── Probability clamping ──────────────────────────────────────────────────────

func TestClampProbability(t *testing.T) {
	cases := []struct {
		percent float64
		want    float64
	}{
		{50, 0.50},
		{0, 0.01},   // floor
		{0.5, 0.01}, // below floor
		{100, 0.99}, // ceiling
		{99.5, 0.99},
		{1, 0.01},
		{99, 0.99},
		{66.4, 0.664},
	}
	for _, tc := range cases {
		got := domain.ClampProbability(decimal.NewFromFloat(tc.percent))
		want := decimal.NewFromFloat(tc.want)
		if !got.Equal(want) {
			t.Errorf("ClampProbability(%v) = %s, want %s", tc.percent, got, want)
		}
	}
}

// ── Odds ──────────────────────────────────────────────────────────────────────

func TestOddsFor_InversionAndClamp(t *testing.T) {
	half := decimal.NewFromFloat(0.5)

	yes := domain.OddsFor(half, domain.DirectionYes)
	if !yes.Equal(decimal.NewFromInt(2)) {
		t.Errorf("OddsFor(0.5, YES) = %s, want 2", yes)
	}
	no := domain.OddsFor(half, domain.DirectionNo)
	if !no.Equal(decimal.NewFromInt(2)) {
		t.Errorf("OddsFor(0.5, NO) = %s, want 2", no)
	}

	// Heavy favourite: 1/0.99 ≈ 1.0101… would breach the floor without a clamp
	fav := domain.OddsFor(decimal.NewFromFloat(0.99), domain.DirectionYes)
	if fav.LessThan(domain.MinOdds) {
		t.Errorf("odds %s below floor %s", fav, domain.MinOdds)
	}

	// Longshot clamp ceiling: 1/0.01 = 100 exactly at the cap
	long := domain.OddsFor(decimal.NewFromFloat(0.01), domain.DirectionYes)
	if !long.Equal(decimal.NewFromInt(100)) {
		t.Errorf("OddsFor(0.01, YES) = %s, want 100", long)
	}
}

func TestOddsFor_AlwaysInRange(t *testing.T) {
	// For any clamped probability input, odds land in [1.01, 100].
	for p := 1; p <= 99; p++ {
		frac := domain.ClampProbability(decimal.NewFromInt(int64(p)))
		for _, dir := range []domain.BetDirection{domain.DirectionYes, domain.DirectionNo} {
			odds := domain.OddsFor(frac, dir)
			if odds.LessThan(domain.MinOdds) || odds.GreaterThan(domain.MaxOdds) {
				t.Fatalf("OddsFor(%d%%, %s) = %s outside [1.01, 100]", p, dir, odds)
			}
		}
	}
}

// ── Concrete placement scenario ───────────────────────────────────────────────

// Pools 100/100 (50/50), stake 100 on OUI:
//
//	fee        = 2
//	investment = 98
//	odds       = 1 / 0.5 = 2.0
//	payout     = 98 × 2  = 196
//	new pools  = 198 / 100 → ≈ 66.4 % / 33.6 %
func TestPlacementScenario_EvenPools(t *testing.T) {
	m := &domain.Market{
		Type:    domain.MarketBinary,
		PoolYes: decimal.NewFromInt(100),
		PoolNo:  decimal.NewFromInt(100),
	}

	prob := domain.ClampProbability(m.PoolProbability(true))
	if !prob.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("probability = %s, want 0.5", prob)
	}

	fee, investment := domain.SplitStake(decimal.NewFromInt(100))
	odds := domain.OddsFor(prob, domain.DirectionYes)
	payout := domain.PotentialPayout(investment, odds)

	if !fee.Equal(decimal.NewFromInt(2)) {
		t.Errorf("fee = %s, want 2", fee)
	}
	if !odds.Equal(decimal.NewFromInt(2)) {
		t.Errorf("odds = %s, want 2", odds)
	}
	if !payout.Equal(decimal.NewFromInt(196)) {
		t.Errorf("payout = %s, want 196", payout)
	}

	// Only the investment enters the pool; the fee is burned.
	m.PoolYes = m.PoolYes.Add(investment)
	if !m.PoolYes.Equal(decimal.NewFromInt(198)) {
		t.Errorf("pool_yes = %s, want 198", m.PoolYes)
	}

	yesPct := m.PoolProbability(true)
	noPct := m.PoolProbability(false)
	if !yesPct.Add(noPct).Round(4).Equal(decimal.NewFromInt(100)) {
		t.Errorf("probabilities should sum to 100, got %s + %s", yesPct, noPct)
	}
	wantYes := decimal.NewFromFloat(66.4)
	if yesPct.Sub(wantYes).Abs().GreaterThan(decimal.NewFromFloat(0.1)) {
		t.Errorf("pool_yes probability = %s, want ~%s", yesPct, wantYes)
	}
}

// ── XP / level ────────────────────────────────────────────────────────────────

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
		{10000, 11},
	}
	for _, tc := range cases {
		if got := domain.LevelForXP(tc.xp); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}
