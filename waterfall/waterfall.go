/*
Package waterfall distributes partnership cash between limited partners (LP)
and the general partner (GP).

PURPOSE:
  A syndication's cash is not split pro rata. LPs are paid a preferred
  return and their capital back first; what remains flows through promote
  tiers whose splits favor the GP more as the LP's IRR clears each hurdle.

TIER ORDER (per period):
  0. LP preferred return (accrued, compounding, unpaid amounts carry forward)
     At a capital event: LP return of capital, then GP return of capital
  C. GP catch-up (optional policy, off by default)
  1. Tier 1 split until the LP IRR reaches tier 2's hurdle
  2. Tier 2 split until the LP IRR reaches tier 3's hurdle
  3. Tier 3 split for everything left

HURDLE MATH:
  For a hurdle h the LP's hurdle balance starts at LP equity, grows by
  (1+h) each period and falls by every LP distribution. The LP IRR is at or
  above h exactly when that balance is at or below zero, so the cash a tier
  may absorb before switching is balance / LP split. No trial-and-error IRR
  evaluation is needed inside a period.

PRECISION:
  All amounts are carried as shopspring/decimal rounded to the cent. Each
  split gives the LP its rounded share and the GP the remainder, so LP + GP
  equals the distributable cash exactly.

SEE ALSO:
  - distribute.go: The per-period state machine
  - deals/syndication.go: Builds the periods from an operating projection
  - finance/irr.go: IRR over the resulting cash-flow streams
*/
package waterfall

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidTiers is returned when a tier configuration cannot be used.
	ErrInvalidTiers = errors.New("invalid waterfall tiers")

	// ErrUnknownPreset is returned for an unrecognized preset name.
	ErrUnknownPreset = errors.New("unknown waterfall preset")
)

// TierError reports which tier failed validation and why.
type TierError struct {
	Tier   int
	Reason string
}

func (e *TierError) Error() string {
	return fmt.Sprintf("tier %d: %s", e.Tier, e.Reason)
}

func (e *TierError) Unwrap() error {
	return ErrInvalidTiers
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Tier is one promote tier. IRRHurdle is the LP IRR (percent) that must be
// cleared before this tier receives cash; the first tier has none.
type Tier struct {
	LPSplit   float64  `json:"lp_split"`
	GPSplit   float64  `json:"gp_split"`
	IRRHurdle *float64 `json:"irr_hurdle,omitempty"`
}

// CatchUp lets the GP receive GPSharePercent of cash after the preferred
// return until the GP holds TargetPercent of all profit distributed so far.
// GPSharePercent must exceed TargetPercent or the catch-up never closes.
type CatchUp struct {
	Enabled        bool    `json:"enabled"`
	GPSharePercent float64 `json:"gp_share_percent"`
	TargetPercent  float64 `json:"target_percent"`
}

// Config is a complete waterfall definition.
type Config struct {
	PreferredReturn float64 `json:"preferred_return"`
	Tiers           []Tier  `json:"tiers"`
	CatchUp         CatchUp `json:"catch_up"`
}

// Hurdle returns a pointer for Tier.IRRHurdle literals.
func Hurdle(percent float64) *float64 {
	return &percent
}

// Validate checks the structural invariants: at least one tier, splits
// summing to 100, no hurdle on the first tier, and strictly increasing
// hurdles on every later tier.
func (c Config) Validate() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidTiers)
	}
	if c.PreferredReturn < 0 {
		return fmt.Errorf("%w: negative preferred return", ErrInvalidTiers)
	}

	var prev float64
	for i, t := range c.Tiers {
		if t.LPSplit < 0 || t.GPSplit < 0 {
			return &TierError{Tier: i + 1, Reason: "negative split"}
		}
		if sum := t.LPSplit + t.GPSplit; sum < 99.999 || sum > 100.001 {
			return &TierError{Tier: i + 1, Reason: fmt.Sprintf("splits sum to %.2f, want 100", sum)}
		}
		if i == 0 {
			if t.IRRHurdle != nil {
				return &TierError{Tier: 1, Reason: "first tier cannot have a hurdle"}
			}
			continue
		}
		if t.IRRHurdle == nil {
			return &TierError{Tier: i + 1, Reason: "missing IRR hurdle"}
		}
		if i > 1 && *t.IRRHurdle <= prev {
			return &TierError{Tier: i + 1, Reason: fmt.Sprintf("hurdle %.2f must exceed %.2f", *t.IRRHurdle, prev)}
		}
		prev = *t.IRRHurdle
	}

	if c.CatchUp.Enabled && c.CatchUp.GPSharePercent <= c.CatchUp.TargetPercent {
		return fmt.Errorf("%w: catch-up share %.2f must exceed target %.2f",
			ErrInvalidTiers, c.CatchUp.GPSharePercent, c.CatchUp.TargetPercent)
	}
	return nil
}

// =============================================================================
// PRESETS
// =============================================================================

// Preset is a named tier structure.
type Preset struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tiers []Tier `json:"tiers"`
}

func threeTier(lp1, hurdle2, lp2, hurdle3, lp3 float64) []Tier {
	return []Tier{
		{LPSplit: lp1, GPSplit: 100 - lp1},
		{LPSplit: lp2, GPSplit: 100 - lp2, IRRHurdle: Hurdle(hurdle2)},
		{LPSplit: lp3, GPSplit: 100 - lp3, IRRHurdle: Hurdle(hurdle3)},
	}
}

// Presets lists the common tier structures from most to least LP favorable.
func Presets() []Preset {
	return []Preset{
		{ID: "conservative", Name: "Conservative (LP Favorable)", Tiers: threeTier(80, 15, 70, 20, 60)},
		{ID: "standard", Name: "Standard", Tiers: threeTier(70, 12, 60, 18, 50)},
		{ID: "aggressive", Name: "Aggressive (GP Favorable)", Tiers: threeTier(60, 10, 50, 15, 40)},
	}
}

// PresetTiers returns the tiers for a preset ID.
func PresetTiers(id string) ([]Tier, error) {
	for _, p := range Presets() {
		if p.ID == id {
			return p.Tiers, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
}

// StandardTiers is the reference 70/30, 60/40 above 12%, 50/50 above 18%.
func StandardTiers() []Tier {
	return threeTier(70, 12, 60, 18, 50)
}
