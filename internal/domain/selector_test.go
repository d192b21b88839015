package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yomifun/zeny/internal/domain"
)

// ── Binary selector mapping ───────────────────────────────────────────────────

func TestParseSelector_Binary(t *testing.T) {
	cases := []struct {
		raw      string
		wantName string
	}{
		{"NON", "NON"},
		{"NO", "NON"},
		{"OUI", "OUI"},
		{"YES", "OUI"},
		{"anything else", "OUI"}, // historical catch-all
	}
	for _, tc := range cases {
		sel, err := domain.ParseSelector(domain.MarketBinary, tc.raw)
		if err != nil {
			t.Fatalf("ParseSelector(binary, %q) error: %v", tc.raw, err)
		}
		if sel.OutcomeName != tc.wantName {
			t.Errorf("ParseSelector(binary, %q).OutcomeName = %q, want %q", tc.raw, sel.OutcomeName, tc.wantName)
		}
		if sel.Direction != domain.DirectionYes {
			t.Errorf("ParseSelector(binary, %q).Direction = %q, want YES", tc.raw, sel.Direction)
		}
	}
}

// ── Multi-outcome prefix handling ─────────────────────────────────────────────

func TestParseSelector_Multi(t *testing.T) {
	cases := []struct {
		raw      string
		wantDir  domain.BetDirection
		wantName string
	}{
		{"NON Les Bleus", domain.DirectionNo, "Les Bleus"},
		{"OUI Les Bleus", domain.DirectionYes, "Les Bleus"},
		{"Les Bleus", domain.DirectionYes, "Les Bleus"}, // unprefixed defaults to YES
		{"NONSTOP", domain.DirectionYes, "NONSTOP"},     // prefix requires a space
	}
	for _, tc := range cases {
		sel, err := domain.ParseSelector(domain.MarketMulti, tc.raw)
		if err != nil {
			t.Fatalf("ParseSelector(multi, %q) error: %v", tc.raw, err)
		}
		if sel.Direction != tc.wantDir || sel.OutcomeName != tc.wantName {
			t.Errorf("ParseSelector(multi, %q) = {%s %q}, want {%s %q}",
				tc.raw, sel.Direction, sel.OutcomeName, tc.wantDir, tc.wantName)
		}
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "NON ", "OUI  "} {
		if _, err := domain.ParseSelector(domain.MarketMulti, raw); !errors.Is(err, domain.ErrInvalidSelection) {
			t.Errorf("ParseSelector(multi, %q) = %v, want ErrInvalidSelection", raw, err)
		}
	}
}

// ── Selection resolution ──────────────────────────────────────────────────────

func TestSelection_Resolve(t *testing.T) {
	marketID := uuid.New()
	outcomes := []*domain.Outcome{
		{ID: uuid.New(), MarketID: marketID, Name: "OUI"},
		{ID: uuid.New(), MarketID: marketID, Name: "NON"},
	}

	sel := domain.Selection{Direction: domain.DirectionYes, OutcomeName: "NON"}
	o, err := sel.Resolve(outcomes)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if o.Name != "NON" {
		t.Errorf("resolved outcome %q, want NON", o.Name)
	}

	// Unresolvable name must surface the offending input.
	bad := domain.Selection{Direction: domain.DirectionYes, OutcomeName: "PEUT-ETRE"}
	if _, err = bad.Resolve(outcomes); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Errorf("Resolve(unknown) = %v, want ErrInvalidSelection", err)
	}
}

// ── Win predicates ────────────────────────────────────────────────────────────

func TestBet_WinsAgainst(t *testing.T) {
	winner := uuid.New()
	other := uuid.New()

	yesOnWinner := &domain.Bet{OutcomeID: winner, Direction: domain.DirectionYes}
	yesOnLoser := &domain.Bet{OutcomeID: other, Direction: domain.DirectionYes}
	noOnLoser := &domain.Bet{OutcomeID: other, Direction: domain.DirectionNo}
	noOnWinner := &domain.Bet{OutcomeID: winner, Direction: domain.DirectionNo}

	if !yesOnWinner.WinsAgainst(winner) {
		t.Error("YES on the winning outcome should win")
	}
	if yesOnLoser.WinsAgainst(winner) {
		t.Error("YES on a losing outcome should lose")
	}
	if !noOnLoser.WinsAgainst(winner) {
		t.Error("NO on a losing outcome should win")
	}
	if noOnWinner.WinsAgainst(winner) {
		t.Error("NO on the winning outcome should lose")
	}
}

func TestBet_WinsWithFlags(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	flags := map[uuid.UUID]bool{a: true, b: false}

	if !(&domain.Bet{OutcomeID: a, Direction: domain.DirectionYes}).WinsWithFlags(flags) {
		t.Error("YES on flagged winner should win")
	}
	if !(&domain.Bet{OutcomeID: b, Direction: domain.DirectionNo}).WinsWithFlags(flags) {
		t.Error("NO on flagged loser should win")
	}
	if (&domain.Bet{OutcomeID: b, Direction: domain.DirectionYes}).WinsWithFlags(flags) {
		t.Error("YES on flagged loser should lose")
	}
}
