package domain

import (
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────────────────────────────────────
// Selection — explicit, tagged replacement for string-prefix selectors
// ──────────────────────────────────────────────────────────────────────────────

// Selection names the outcome a bettor is choosing and which way they bet on
// it. The engines only ever see a Selection; the legacy user-facing string
// form is converted at the HTTP edge by ParseSelector.
type Selection struct {
	Direction   BetDirection
	OutcomeName string
}

// ParseSelector converts the legacy user-facing selector string into a
// Selection, preserving the historical mapping:
//
//	binary:  "NO" or "NON"        → outcome "NON", direction YES
//	         anything else        → outcome "OUI", direction YES
//	multi:   "NON <name>"         → outcome <name>, direction NO
//	         "OUI <name>"         → outcome <name>, direction YES
//	         "<name>"             → outcome <name>, direction YES
//
// An empty selector (or a prefix with nothing after it) is a validation error.
func ParseSelector(marketType MarketType, raw string) (Selection, error) {
	sel := strings.TrimSpace(raw)
	if sel == "" {
		return Selection{}, fmt.Errorf("%w: empty selector", ErrInvalidSelection)
	}

	if marketType == MarketBinary {
		if sel == "NO" || sel == BinaryNoName {
			return Selection{Direction: DirectionYes, OutcomeName: BinaryNoName}, nil
		}
		return Selection{Direction: DirectionYes, OutcomeName: BinaryYesName}, nil
	}

	direction := DirectionYes
	name := sel
	switch {
	case strings.HasPrefix(sel, BinaryNoName+" "):
		direction = DirectionNo
		name = strings.TrimSpace(strings.TrimPrefix(sel, BinaryNoName+" "))
	case strings.HasPrefix(sel, BinaryYesName+" "):
		name = strings.TrimSpace(strings.TrimPrefix(sel, BinaryYesName+" "))
	}
	if name == "" {
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, raw)
	}
	return Selection{Direction: direction, OutcomeName: name}, nil
}

// Resolve finds the outcome a Selection points at. Exactly one outcome must
// match by name; otherwise the selection is invalid and the error names the
// offending input.
func (s Selection) Resolve(outcomes []*Outcome) (*Outcome, error) {
	if !s.Direction.IsValid() {
		return nil, fmt.Errorf("%w: direction %q", ErrInvalidSelection, s.Direction)
	}
	for _, o := range outcomes {
		if o.Name == s.OutcomeName {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: no outcome named %q", ErrInvalidSelection, s.OutcomeName)
}
