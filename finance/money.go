package finance

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GUARDED RATIOS
// =============================================================================

// Ratio divides num by den, resolving a zero denominator to 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent is Ratio scaled to 0-100.
func Percent(num, den float64) float64 {
	return Ratio(num, den) * 100
}

// Of returns pct percent of base.
func Of(base, pct float64) float64 {
	return base * pct / 100
}

// =============================================================================
// ROUNDING
// =============================================================================

// Round rounds v half away from zero to places decimals. Non-finite values
// are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Cents converts a float amount into a decimal rounded to the cent.
func Cents(v float64) decimal.Decimal {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

// =============================================================================
// RETURNS THAT MAY BE UNBOUNDED
// =============================================================================

// Return is a percentage return that may legitimately be +Inf, e.g. when a
// BRRRR refinance pulls out every dollar invested. JSON cannot carry
// infinities, so it is encoded as the string "Infinity".
type Return float64

// Infinite reports whether r is +Inf.
func (r Return) Infinite() bool {
	return math.IsInf(float64(r), 1)
}

func (r Return) MarshalJSON() ([]byte, error) {
	if r.Infinite() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(r))
}

func (r *Return) UnmarshalJSON(data []byte) error {
	if string(data) == `"Infinity"` {
		*r = Return(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Return(f)
	return nil
}

// MeanReturn averages the finite values and reports how many were infinite.
// When every value is infinite the mean is +Inf; an empty input yields 0.
func MeanReturn(values ...float64) (mean float64, infinite int) {
	var sum float64
	var finite int
	for _, v := range values {
		switch {
		case math.IsInf(v, 1):
			infinite++
		case math.IsNaN(v) || math.IsInf(v, -1):
			// not a return; skip
		default:
			sum += v
			finite++
		}
	}
	if finite == 0 {
		if infinite > 0 {
			return math.Inf(1), infinite
		}
		return 0, 0
	}
	return sum / float64(finite), infinite
}
