package finance_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealforge/deal-engine/finance"
)

// =============================================================================
// AMORTIZATION
// =============================================================================

func TestMonthlyPayment_ThirtyYearAtSeven(t *testing.T) {
	// GIVEN: A 160,000 loan at 7% over 30 years
	// WHEN: Computing the monthly payment
	// THEN: It matches the standard mortgage table value
	payment := finance.LoanPayment(160000, 7, 30)
	assert.InDelta(t, 1064.48, payment, 0.01)
}

func TestMonthlyPayment_Degenerate(t *testing.T) {
	assert.Zero(t, finance.MonthlyPayment(0, 0.01, 360), "zero principal")
	assert.Zero(t, finance.MonthlyPayment(-5, 0.01, 360), "negative principal")
	assert.Zero(t, finance.MonthlyPayment(1000, 0.01, 0), "no payments")
	assert.InDelta(t, 100.0, finance.MonthlyPayment(12000, 0, 120), 1e-9, "zero rate is straight-line")
}

func TestAmortize_FullTermClosesToZero(t *testing.T) {
	// GIVEN: A fully amortizing schedule
	principal := 250000.0
	rate := finance.MonthlyRate(6.5)
	payment := finance.MonthlyPayment(principal, rate, 360)

	// WHEN: Walking every period
	steps := finance.Schedule(principal, rate, payment, 360)
	var principalSum float64
	for _, s := range steps {
		principalSum += s.Principal
	}

	// THEN: Principal repaid equals the original balance
	require.Len(t, steps, 360)
	assert.InDelta(t, principal, principalSum, 0.01)

	paydown := finance.Amortize(principal, rate, payment, 360)
	assert.InDelta(t, 0, paydown.EndingBalance, 0.01)
}

func TestAmortize_InterestShrinksEachPeriod(t *testing.T) {
	rate := finance.MonthlyRate(7)
	payment := finance.MonthlyPayment(160000, rate, 360)
	steps := finance.Schedule(160000, rate, payment, 12)

	require.Len(t, steps, 12)
	assert.InDelta(t, 933.33, steps[0].Interest, 0.01)
	for i := 1; i < len(steps); i++ {
		assert.Less(t, steps[i].Interest, steps[i-1].Interest)
		assert.InDelta(t, payment, steps[i].Interest+steps[i].Principal, 1e-9)
	}
}

func TestAmortize_ZeroPaymentKeepsBalance(t *testing.T) {
	p := finance.Amortize(1000, 0.01, 0, 12)
	assert.Equal(t, finance.Paydown{EndingBalance: 1000}, p)
}

// =============================================================================
// RATIOS AND RETURNS
// =============================================================================

func TestRatio_ZeroDenominator(t *testing.T) {
	assert.Zero(t, finance.Ratio(10, 0))
	assert.Zero(t, finance.Percent(10, 0))
	assert.Equal(t, 50.0, finance.Percent(1, 2))
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 47.5, finance.Round(47.499999999, 2))
	assert.Equal(t, 1.01, finance.Round(1.005, 2))
	assert.True(t, math.IsInf(finance.Round(math.Inf(1), 2), 1))
}

func TestReturn_JSONInfinity(t *testing.T) {
	data, err := json.Marshal(struct {
		CoC finance.Return `json:"coc"`
	}{finance.Return(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"coc":"Infinity"}`, string(data))

	var back finance.Return
	require.NoError(t, json.Unmarshal([]byte(`"Infinity"`), &back))
	assert.True(t, back.Infinite())
}

func TestMeanReturn_SkipsInfinities(t *testing.T) {
	mean, inf := finance.MeanReturn(10, math.Inf(1), 20)
	assert.Equal(t, 15.0, mean)
	assert.Equal(t, 1, inf)

	mean, inf = finance.MeanReturn(math.Inf(1), math.Inf(1))
	assert.True(t, math.IsInf(mean, 1))
	assert.Equal(t, 2, inf)

	mean, inf = finance.MeanReturn()
	assert.Zero(t, mean)
	assert.Zero(t, inf)
}

// =============================================================================
// IRR
// =============================================================================

func TestIRR_SimpleDoubling(t *testing.T) {
	// GIVEN: Invest 100, receive 121 after two years
	rate, err := finance.IRR([]float64{-100, 0, 121})

	// THEN: IRR is 10%
	require.NoError(t, err)
	assert.True(t, rate.Defined)
	assert.InDelta(t, 10.0, rate.Percent, 1e-6)
}

func TestIRR_NPVIsZeroAtSolution(t *testing.T) {
	flows := []float64{-1000, 80, 85, 90, 95, 1300}
	rate, err := finance.IRR(flows)
	require.NoError(t, err)
	assert.InDelta(t, 0, finance.NPV(rate.Percent/100, flows), 1e-6)
}

func TestIRR_NegativeRate(t *testing.T) {
	rate, err := finance.IRR([]float64{-1000, 100, 100, 100})
	require.NoError(t, err)
	assert.Less(t, rate.Percent, 0.0)
}

func TestIRR_NoSignChangeIsUndefined(t *testing.T) {
	rate, err := finance.IRR([]float64{100, 50, 25})
	assert.ErrorIs(t, err, finance.ErrIRRUndefined)
	assert.False(t, rate.Defined)

	data, err := json.Marshal(rate)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIRR_ExtremeReturn(t *testing.T) {
	rate, err := finance.IRR([]float64{-1, 50})
	require.NoError(t, err)
	assert.InDelta(t, 4900.0, rate.Percent, 1e-4)
}
