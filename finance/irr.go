package finance

import (
	"encoding/json"
	"math"
)

// =============================================================================
// IRR SOLVER
// =============================================================================
//
// Newton-Raphson from a 10% guess converges in a handful of steps for the
// conventional "invest, then receive" streams deal models produce. When it
// stalls (flat derivative, overshoot below -100%, no convergence) the
// solver falls back to bisection over a bracket that is widened until NPV
// changes sign. A stream without a sign change has no IRR.

const (
	irrTolerance     = 1e-10
	irrNewtonMaxIter = 60
	irrBisectMaxIter = 500
	irrLowerBound    = -0.9999
	irrUpperLimit    = 1e6
)

// Rate is a solved IRR in percent. Defined is false when no rate exists or
// the solver failed to converge; such a rate encodes as JSON null.
type Rate struct {
	Percent float64
	Defined bool
}

// Undefined is the zero Rate.
var Undefined = Rate{}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Percent)
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Rate{Percent: f, Defined: true}
	return nil
}

// NPV discounts flows (index = period) at rate.
func NPV(rate float64, flows []float64) float64 {
	var total float64
	for t, cf := range flows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

// IRR returns the periodic rate at which the NPV of flows is zero.
// It returns ErrIRRUndefined when the stream has no sign change or
// neither method converges.
func IRR(flows []float64) (Rate, error) {
	if !hasSignChange(flows) {
		return Undefined, ErrIRRUndefined
	}

	if r, ok := newtonIRR(flows); ok {
		return Rate{Percent: r * 100, Defined: true}, nil
	}
	if r, ok := bisectIRR(flows); ok {
		return Rate{Percent: r * 100, Defined: true}, nil
	}
	return Undefined, ErrIRRUndefined
}

// IRROrUndefined is IRR without the error, for result records that carry
// the undefined state in the Rate itself.
func IRROrUndefined(flows []float64) Rate {
	r, _ := IRR(flows)
	return r
}

func hasSignChange(flows []float64) bool {
	var pos, neg bool
	for _, cf := range flows {
		if cf > 0 {
			pos = true
		} else if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}

func newtonIRR(flows []float64) (float64, bool) {
	rate := 0.1
	for i := 0; i < irrNewtonMaxIter; i++ {
		var npv, deriv float64
		for t, cf := range flows {
			denom := math.Pow(1+rate, float64(t))
			npv += cf / denom
			deriv -= float64(t) * cf / (denom * (1 + rate))
		}
		if math.Abs(deriv) < 1e-14 {
			return 0, false
		}

		next := rate - npv/deriv
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return 0, false
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func bisectIRR(flows []float64) (float64, bool) {
	low, high := irrLowerBound, 1.0
	npvLow := NPV(low, flows)
	npvHigh := NPV(high, flows)
	for sameSign(npvLow, npvHigh) {
		high *= 2
		if high > irrUpperLimit {
			return 0, false
		}
		npvHigh = NPV(high, flows)
	}

	for i := 0; i < irrBisectMaxIter; i++ {
		mid := (low + high) / 2
		npvMid := NPV(mid, flows)
		if npvMid == 0 || (high-low)/2 < irrTolerance {
			return mid, true
		}
		if sameSign(npvMid, npvLow) {
			low, npvLow = mid, npvMid
		} else {
			high = mid
		}
	}
	return 0, false
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
