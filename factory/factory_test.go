package factory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/factory"
	"github.com/dealforge/deal-engine/waterfall"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseDeal_FullInputs(t *testing.T) {
	// GIVEN: A complete rental envelope
	body := `{
		"type": "rental",
		"name": "Elm St",
		"inputs": {
			"purchase_price": 200000,
			"down_payment_percent": 20,
			"interest_rate": 7,
			"loan_term_years": 30,
			"monthly_rent": 1800
		}
	}`

	// WHEN: Parsing
	d, err := factory.ParseDeal([]byte(body))

	// THEN: Typed inputs come back with unset fields at zero
	require.NoError(t, err)
	assert.Equal(t, "Elm St", d.Name)
	in, ok := d.Inputs.(deals.RentalInputs)
	require.True(t, ok)
	assert.Equal(t, 200000.0, in.PurchasePrice)
	assert.Equal(t, 30, in.LoanTermYears)
	assert.Zero(t, in.ClosingCosts)
}

func TestParseDeal_PresetOverlay(t *testing.T) {
	// GIVEN: A preset with one field overridden
	body := `{"type": "rental", "preset": true, "inputs": {"monthly_rent": 2100}}`

	d, err := factory.ParseDeal([]byte(body))
	require.NoError(t, err)

	// THEN: The override wins, everything else is the preset
	in := d.Inputs.(deals.RentalInputs)
	assert.Equal(t, 2100.0, in.MonthlyRent)
	assert.Equal(t, 200000.0, in.PurchasePrice)
	assert.Equal(t, 10.0, in.ManagementPercent)
}

func TestParseDeal_PresetWithoutInputs(t *testing.T) {
	d, err := factory.ParseDeal([]byte(`{"type": "syndication", "preset": true}`))
	require.NoError(t, err)

	want, _ := deals.Preset(deals.TypeSyndication)
	assert.Equal(t, want, d.Inputs)
}

func TestParseDeal_WaterfallPreset(t *testing.T) {
	d, err := factory.ParseDeal([]byte(`{"type": "syndication", "preset": true, "waterfall_preset": "aggressive"}`))
	require.NoError(t, err)

	tiers, _ := waterfall.PresetTiers("aggressive")
	assert.Equal(t, tiers, d.Inputs.(deals.SyndicationInputs).Tiers)

	_, err = factory.ParseDeal([]byte(`{"type": "rental", "waterfall_preset": "standard"}`))
	assert.ErrorIs(t, err, factory.ErrInvalidInput)

	_, err = factory.ParseDeal([]byte(`{"type": "syndication", "waterfall_preset": "reckless"}`))
	var verr *factory.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "waterfall_preset", verr.Field)
}

func TestParseDeal_MhParkOccupiedLots(t *testing.T) {
	// GIVEN: Occupied lots instead of a percentage
	body := `{"type": "mh_park", "inputs": {"lot_count": 50, "occupied_lots": 40, "avg_lot_rent": 350}}`

	d, err := factory.ParseDeal([]byte(body))
	require.NoError(t, err)

	// THEN: Occupancy is derived
	in := d.Inputs.(deals.MhParkInputs)
	assert.InDelta(t, 80.0, in.OccupancyPercent, 1e-9)
}

func TestParseDeal_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"type": `},
		{"unknown type", `{"type": "timeshare"}`},
		{"unknown field", `{"type": "rental", "inputs": {"purchase_prise": 1}}`},
		{"wrong field type", `{"type": "flip", "inputs": {"rehab_costs": "lots"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseDeal([]byte(tt.body))
			assert.ErrorIs(t, err, factory.ErrInvalidInput)
		})
	}
}

func TestParseDealYAML(t *testing.T) {
	// GIVEN: A YAML envelope with nested expenses
	body := `
type: mh_park
name: Shady Oaks
inputs:
  lot_count: 75
  occupied_lots: 60
  avg_lot_rent: 450
  expenses:
    use_expense_ratio: true
    expense_ratio_percent: 35
`

	d, err := factory.ParseDealYAML([]byte(body))
	require.NoError(t, err)

	in := d.Inputs.(deals.MhParkInputs)
	assert.Equal(t, "Shady Oaks", d.Name)
	assert.Equal(t, 75, in.LotCount)
	assert.InDelta(t, 80.0, in.OccupancyPercent, 1e-9)
	assert.True(t, in.Expenses.UseExpenseRatio)

	_, err = factory.ParseDealYAML([]byte("type: [unclosed"))
	assert.ErrorIs(t, err, factory.ErrInvalidInput)
}

func TestParseDealList(t *testing.T) {
	list, err := factory.ParseDealList([]byte(`[
		{"type": "rental", "preset": true},
		{"type": "flip", "preset": true}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, deals.TypeFlip, list[1].Inputs.Type())

	_, err = factory.ParseDealList([]byte(`[{"type": "rental"}, {"type": "nope"}]`))
	assert.ErrorIs(t, err, factory.ErrInvalidInput)
	assert.Contains(t, err.Error(), "deal 1")
}

func TestToJSON_RoundTrip(t *testing.T) {
	in, _ := deals.Preset(deals.TypeHouseHack)

	dj, err := factory.ToJSON("duplex", in)
	require.NoError(t, err)
	assert.Equal(t, "house_hack", dj.Type)

	back, err := factory.FromJSON(dj)
	require.NoError(t, err)
	assert.Equal(t, in, back.Inputs)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_PresetsAreValid(t *testing.T) {
	for _, dt := range deals.AllTypes {
		in, err := deals.Preset(dt)
		require.NoError(t, err)
		assert.NoError(t, factory.Validate(in), dt)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	// GIVEN: A rental with two out-of-range percentages and a negative price
	in, _ := deals.Preset(deals.TypeRental)
	r := in.(deals.RentalInputs)
	r.PurchasePrice = -1
	r.VacancyRate = 120
	r.DownPaymentPercent = -5

	// WHEN: Validating
	err := factory.Validate(r)

	// THEN: All three are reported
	require.ErrorIs(t, err, factory.ErrInvalidInput)
	var verrs factory.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"purchase_price", "vacancy_rate", "down_payment_percent"}, fields)
}

func TestValidate_HouseHackOwnerUnit(t *testing.T) {
	in, _ := deals.Preset(deals.TypeHouseHack)
	hh := in.(deals.HouseHackInputs)
	hh.OwnerOccupiedUnit = 3

	err := factory.Validate(hh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner_occupied_unit")

	hh.OwnerOccupiedUnit = 1
	hh.UnitRents = []float64{1, 2, 3, 4, 5}
	assert.ErrorIs(t, factory.Validate(hh), factory.ErrInvalidInput)
}

func TestValidate_SyndicationStructure(t *testing.T) {
	in, _ := deals.Preset(deals.TypeSyndication)
	s := in.(deals.SyndicationInputs)

	// Equity split must close.
	bad := s
	bad.GPEquityPercent = 20
	assert.ErrorIs(t, factory.Validate(bad), factory.ErrInvalidInput)

	// Tier hurdles must increase.
	bad = s
	bad.Tiers = []waterfall.Tier{
		{LPSplit: 70, GPSplit: 30},
		{LPSplit: 60, GPSplit: 40, IRRHurdle: waterfall.Hurdle(15)},
		{LPSplit: 50, GPSplit: 50, IRRHurdle: waterfall.Hurdle(12)},
	}
	err := factory.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiers")

	// Exit cap of zero cannot value the property.
	bad = s
	bad.ExitCapRate = 0
	assert.ErrorIs(t, factory.Validate(bad), factory.ErrInvalidInput)
}

func TestValidate_Nil(t *testing.T) {
	assert.ErrorIs(t, factory.Validate(nil), factory.ErrInvalidInput)
}
