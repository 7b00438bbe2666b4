package waterfall_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealforge/deal-engine/finance"
	"github.com/dealforge/deal-engine/waterfall"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func standardConfig() waterfall.Config {
	return waterfall.Config{PreferredReturn: 8, Tiers: waterfall.StandardTiers()}
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// assertConserved checks LP + GP == cash to the cent, per period and in total.
func assertConserved(t *testing.T, res waterfall.Result) {
	t.Helper()
	for _, a := range res.Allocations {
		assert.True(t, dec(a.LP).Add(dec(a.GP)).Equal(dec(a.Cash)),
			"year %d: lp %.2f + gp %.2f != cash %.2f", a.Year, a.LP, a.GP, a.Cash)
	}
	assert.True(t, dec(res.LPTotal).Add(dec(res.GPTotal)).Equal(dec(res.Distributed)),
		"totals: lp %.2f + gp %.2f != %.2f", res.LPTotal, res.GPTotal, res.Distributed)
}

// =============================================================================
// CONSERVATION
// =============================================================================

func TestDistribute_ConservesCashToTheCent(t *testing.T) {
	// GIVEN: Five years of uneven operating cash and a sale in year 5
	periods := []waterfall.Period{
		{Year: 1, Cash: 41234.567},
		{Year: 2, Cash: 55012.123},
		{Year: 3, Cash: 61999.999},
		{Year: 4, Cash: 70000.005},
		{Year: 5, Cash: 2150333.333, CapitalEvent: true},
	}

	// WHEN: Distributing through the standard waterfall
	res := waterfall.Distribute(standardConfig(), 1327500, 147500, periods)

	// THEN: Nothing leaks and nothing is double counted
	require.Len(t, res.Allocations, 5)
	assertConserved(t, res)
	assert.Len(t, res.LPFlows, 6)
	assert.Equal(t, -1327500.0, res.LPFlows[0])
}

func TestDistribute_ConservationAcrossPresets(t *testing.T) {
	for _, p := range waterfall.Presets() {
		t.Run(p.ID, func(t *testing.T) {
			cfg := waterfall.Config{PreferredReturn: 7, Tiers: p.Tiers}
			res := waterfall.Distribute(cfg, 900000, 100000, []waterfall.Period{
				{Year: 1, Cash: 10000.01},
				{Year: 2, Cash: 3333.33},
				{Year: 3, Cash: 1800000.07, CapitalEvent: true},
			})
			assertConserved(t, res)
		})
	}
}

// =============================================================================
// TIER 0
// =============================================================================

func TestDistribute_CapitalReturnedOnlyAtCapitalEvent(t *testing.T) {
	// GIVEN: Operating cash far above the preferred return, no sale
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 500},
	})

	// THEN: LP capital stays outstanding; the surplus is split at tier 1
	a := res.Allocations[0]
	assert.Equal(t, 80.0, a.LPPreferred)
	assert.Zero(t, a.LPCapital)
	assert.Equal(t, 1000.0, res.UnreturnedLPCapital)
	require.NotEmpty(t, a.Tiers)
	assert.Equal(t, 1, a.Tiers[0].Tier)
	assert.InDelta(t, 294.0, a.Tiers[0].LP, 0.001)
	assert.InDelta(t, 126.0, a.Tiers[0].GP, 0.001)
}

func TestDistribute_UnpaidPreferredCompoundsAndCarriesForward(t *testing.T) {
	// GIVEN: No cash in year 1, 200 in year 2
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 0},
		{Year: 2, Cash: 200},
	})

	// THEN: Year 2 pays 80 + 8% of 1080
	assert.Zero(t, res.Allocations[0].LP)
	assert.InDelta(t, 166.40, res.Allocations[1].LPPreferred, 0.001)
	assert.InDelta(t, 166.40, res.LPPreferredPaid, 0.001)
	assert.Zero(t, res.UnpaidPreferred)

	// AND: The remaining 33.60 splits 70/30
	require.Len(t, res.Allocations[1].Tiers, 1)
	assert.InDelta(t, 23.52, res.Allocations[1].Tiers[0].LP, 0.001)
	assert.InDelta(t, 10.08, res.Allocations[1].Tiers[0].GP, 0.001)
	assertConserved(t, res)
}

func TestDistribute_NegativeCashDistributesNothing(t *testing.T) {
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: -250},
	})
	assert.Zero(t, res.Allocations[0].Cash)
	assert.Zero(t, res.LPTotal)
	assert.InDelta(t, 80.0, res.UnpaidPreferred, 0.001)
}

func TestDistribute_ShortfallAtSalePaysLPFirst(t *testing.T) {
	// GIVEN: Sale proceeds that cover less than LP capital
	res := waterfall.Distribute(standardConfig(), 1000, 100, []waterfall.Period{
		{Year: 1, Cash: 600, CapitalEvent: true},
	})

	// THEN: Pref, then LP capital; the GP gets nothing
	assert.Equal(t, 600.0, res.LPTotal)
	assert.Zero(t, res.GPTotal)
	assert.InDelta(t, 480.0, res.UnreturnedLPCapital, 0.001)
}

// =============================================================================
// HURDLES
// =============================================================================

func TestDistribute_Tier1StopsAtTier2Hurdle(t *testing.T) {
	// GIVEN: One-year hold, LP-only equity, cash exactly through tier 1
	// Pref 80 + capital 1000 + tier 1 capacity (1120 - 1080) / 0.70
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 1137.15, CapitalEvent: true},
	})

	// THEN: The LP lands on the 12% hurdle
	rate, err := finance.IRR(res.LPFlows)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, rate.Percent, 0.01)
	assertConserved(t, res)

	require.Len(t, res.Allocations[0].Tiers, 1, "tier 2 receives nothing yet")
}

func TestDistribute_CashBeyondHurdlesReachesTier3(t *testing.T) {
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 2000, CapitalEvent: true},
	})

	tiers := res.Allocations[0].Tiers
	require.Len(t, tiers, 3)
	assert.InDelta(t, 40.01, tiers[0].LP, 0.001)
	assert.InDelta(t, 17.14, tiers[0].GP, 0.001)
	assert.InDelta(t, 59.99, tiers[1].LP, 0.001)
	assert.InDelta(t, 40.00, tiers[1].GP, 0.001)
	assert.InDelta(t, 381.43, tiers[2].LP, 0.001)
	assert.InDelta(t, 381.43, tiers[2].GP, 0.001)

	// LP IRR ends above the top hurdle, GP share grows with each tier.
	rate, err := finance.IRR(res.LPFlows)
	require.NoError(t, err)
	assert.Greater(t, rate.Percent, 18.0)
	assertConserved(t, res)
}

func TestDistribute_HurdleClearedInEarlierYearsSkipsTier1(t *testing.T) {
	// GIVEN: A huge year-1 distribution that already clears 18%
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 5000},
		{Year: 2, Cash: 1500, CapitalEvent: true},
	})

	// THEN: Year 2 profit beyond pref and capital lands straight in tier 3
	year2 := res.Allocations[1]
	require.Len(t, year2.Tiers, 1)
	assert.Equal(t, 3, year2.Tiers[0].Tier)
	assert.InDelta(t, 210.0, year2.Tiers[0].LP, 0.001)
	assertConserved(t, res)
}

// =============================================================================
// CATCH-UP POLICY
// =============================================================================

func TestDistribute_CatchUpDisabledByDefault(t *testing.T) {
	res := waterfall.Distribute(standardConfig(), 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 1200, CapitalEvent: true},
	})
	assert.Zero(t, res.GPCatchUp)
}

func TestDistribute_FullCatchUpRestoresTargetShare(t *testing.T) {
	// GIVEN: 100% catch-up to a 30% GP share of profit
	cfg := standardConfig()
	cfg.CatchUp = waterfall.CatchUp{Enabled: true, GPSharePercent: 100, TargetPercent: 30}

	res := waterfall.Distribute(cfg, 1000, 0, []waterfall.Period{
		{Year: 1, Cash: 1200, CapitalEvent: true},
	})

	// THEN: GP catches up to 30% of the 80 pref + catch-up
	assert.InDelta(t, 34.29, res.GPCatchUp, 0.001)
	assert.InDelta(t, 0.30, res.GPCatchUp/(80+res.GPCatchUp), 0.001)
	assertConserved(t, res)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		tiers []waterfall.Tier
		ok    bool
	}{
		{"standard", waterfall.StandardTiers(), true},
		{"no tiers", nil, false},
		{"bad sum", []waterfall.Tier{{LPSplit: 70, GPSplit: 20}}, false},
		{"hurdle on first tier", []waterfall.Tier{{LPSplit: 70, GPSplit: 30, IRRHurdle: waterfall.Hurdle(8)}}, false},
		{"missing later hurdle", []waterfall.Tier{{LPSplit: 70, GPSplit: 30}, {LPSplit: 60, GPSplit: 40}}, false},
		{"non increasing", []waterfall.Tier{
			{LPSplit: 70, GPSplit: 30},
			{LPSplit: 60, GPSplit: 40, IRRHurdle: waterfall.Hurdle(15)},
			{LPSplit: 50, GPSplit: 50, IRRHurdle: waterfall.Hurdle(15)},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := waterfall.Config{PreferredReturn: 8, Tiers: tt.tiers}.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, waterfall.ErrInvalidTiers)
		})
	}
}

func TestConfigValidate_TierErrorNamesTier(t *testing.T) {
	err := waterfall.Config{Tiers: []waterfall.Tier{
		{LPSplit: 70, GPSplit: 30},
		{LPSplit: 60, GPSplit: 30, IRRHurdle: waterfall.Hurdle(12)},
	}}.Validate()

	var tierErr *waterfall.TierError
	require.ErrorAs(t, err, &tierErr)
	assert.Equal(t, 2, tierErr.Tier)
}

func TestConfigValidate_CatchUpMustClose(t *testing.T) {
	cfg := standardConfig()
	cfg.CatchUp = waterfall.CatchUp{Enabled: true, GPSharePercent: 20, TargetPercent: 30}
	assert.ErrorIs(t, cfg.Validate(), waterfall.ErrInvalidTiers)
}

func TestPresetTiers(t *testing.T) {
	for _, p := range waterfall.Presets() {
		assert.NoError(t, waterfall.Config{PreferredReturn: 8, Tiers: p.Tiers}.Validate(), p.ID)
	}

	_, err := waterfall.PresetTiers("reckless")
	assert.ErrorIs(t, err, waterfall.ErrUnknownPreset)
}
