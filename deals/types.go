/*
Package deals implements the per-deal-type investment calculators.

PURPOSE:
  Each deal type maps an immutable input record to a fully populated
  result record. The calculators are pure functions: no I/O, no clocks,
  no shared state, safe to call from any goroutine.

DEAL TYPES:
  rental       Buy-and-hold single family
  brrrr        Buy, rehab, rent, refinance, repeat
  flip         Fix and flip (single transaction)
  house_hack   Owner-occupied 1-4 unit property
  multifamily  5+ unit apartment building
  mh_park      Manufactured housing community
  syndication  LP/GP equity raise with a tiered waterfall

SUM TYPE:
  Inputs and Result are closed interfaces; only the types in this package
  implement them. Calculate dispatches on the concrete input type, so a
  new deal type is a new Inputs/Result pair plus one case in Calculate.

CONVENTIONS:
  - Percentages are 0-100
  - Monthly figures are suffixed Monthly, everything else is annual
  - Ratios with a zero denominator are 0, never NaN or an error
  - Range validation is the caller's job (see factory.Validate)

SEE ALSO:
  - calculate.go: Calculate entry point
  - presets.go: Default inputs per deal type
  - finance/: Loan math and IRR
  - waterfall/: Syndication distribution engine
*/
package deals

import "github.com/dealforge/deal-engine/finance"

// =============================================================================
// DEAL TYPE
// =============================================================================

// DealType identifies a calculator variant.
type DealType string

const (
	TypeRental      DealType = "rental"
	TypeBRRRR       DealType = "brrrr"
	TypeFlip        DealType = "flip"
	TypeHouseHack   DealType = "house_hack"
	TypeMultifamily DealType = "multifamily"
	TypeMhPark      DealType = "mh_park"
	TypeSyndication DealType = "syndication"
)

// AllTypes lists every supported deal type in display order.
var AllTypes = []DealType{
	TypeRental,
	TypeBRRRR,
	TypeFlip,
	TypeHouseHack,
	TypeMultifamily,
	TypeMhPark,
	TypeSyndication,
}

// Valid reports whether t names a supported deal type.
func (t DealType) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// =============================================================================
// SUM TYPES
// =============================================================================

// Inputs is implemented by every deal input record.
type Inputs interface {
	Type() DealType
	inputs()
}

// Result is implemented by every deal result record.
type Result interface {
	Type() DealType
	result()
}

// Summary is the cross-deal view used when comparing deals of different
// types side by side.
type Summary struct {
	Type            DealType       `json:"type"`
	NOI             float64        `json:"noi"`
	AnnualCashFlow  float64        `json:"annual_cash_flow"`
	CapRate         float64        `json:"cap_rate"`
	CashOnCash      finance.Return `json:"cash_on_cash"`
	TotalInvestment float64        `json:"total_investment"`
}

// Summarize projects any result onto the shared comparison metrics.
// Fields that a deal type does not produce are zero.
func Summarize(r Result) Summary {
	s := Summary{Type: r.Type()}
	switch v := r.(type) {
	case RentalResult:
		s.NOI, s.AnnualCashFlow, s.CapRate = v.NetOperatingIncome, v.AnnualCashFlow, v.CapRate
		s.CashOnCash, s.TotalInvestment = finance.Return(v.CashOnCashReturn), v.TotalInvestment
	case BRRRRResult:
		s.NOI, s.AnnualCashFlow, s.CapRate = v.NetOperatingIncome, v.AnnualCashFlow, v.CapRate
		s.CashOnCash, s.TotalInvestment = v.CashOnCashReturn, v.TotalInvestment
	case FlipResult:
		s.AnnualCashFlow, s.CashOnCash, s.TotalInvestment = v.NetProfit, finance.Return(v.ROI), v.TotalCashRequired
	case HouseHackResult:
		s.NOI, s.AnnualCashFlow, s.CapRate = v.NetOperatingIncome, v.AnnualCashFlowIfRented, v.CapRate
		s.CashOnCash, s.TotalInvestment = finance.Return(v.CashOnCashIfRented), v.TotalInvestment
	case MultifamilyResult:
		s.NOI, s.AnnualCashFlow, s.CapRate = v.NetOperatingIncome, v.AnnualCashFlow, v.CapRatePurchase
		s.CashOnCash, s.TotalInvestment = finance.Return(v.CashOnCashReturn), v.TotalInvestment
	case MhParkResult:
		s.NOI, s.AnnualCashFlow, s.CapRate = v.NetOperatingIncome, v.AnnualCashFlow, v.CapRate
		s.CashOnCash, s.TotalInvestment = finance.Return(v.CashOnCashReturn), v.TotalInvestment
	case SyndicationResult:
		if len(v.YearlyProjections) > 0 {
			first := v.YearlyProjections[0]
			s.NOI, s.AnnualCashFlow = first.NOI, first.CashFlow
		}
		s.CapRate, s.CashOnCash, s.TotalInvestment = v.GoingInCapRate, finance.Return(v.AverageCashOnCash), v.TotalEquity
	}
	return s
}

// =============================================================================
// SHARED EXPENSE MODEL
// =============================================================================

// ItemizedExpenses are annual operating line items for commercial deal types.
// Management and reserves are percentages of effective gross income.
type ItemizedExpenses struct {
	PropertyTaxAnnual        float64 `json:"property_tax_annual"`
	InsuranceAnnual          float64 `json:"insurance_annual"`
	UtilitiesAnnual          float64 `json:"utilities_annual"`
	RepairsMaintenanceAnnual float64 `json:"repairs_maintenance_annual"`
	ManagementPercent        float64 `json:"management_percent"`
	PayrollAnnual            float64 `json:"payroll_annual"`
	AdvertisingAnnual        float64 `json:"advertising_annual"`
	LegalAccountingAnnual    float64 `json:"legal_accounting_annual"`
	LandscapingAnnual        float64 `json:"landscaping_annual"`
	ContractServicesAnnual   float64 `json:"contract_services_annual"`
	ReservesPercent          float64 `json:"reserves_percent"`
}

// Total returns annual operating expenses given effective gross income.
func (e ItemizedExpenses) Total(egi float64) float64 {
	return e.PropertyTaxAnnual +
		e.InsuranceAnnual +
		e.UtilitiesAnnual +
		e.RepairsMaintenanceAnnual +
		finance.Of(egi, e.ManagementPercent) +
		e.PayrollAnnual +
		e.AdvertisingAnnual +
		e.LegalAccountingAnnual +
		e.LandscapingAnnual +
		e.ContractServicesAnnual +
		finance.Of(egi, e.ReservesPercent)
}

// ExpenseModel selects between a blended expense ratio and itemized lines.
type ExpenseModel struct {
	UseExpenseRatio     bool             `json:"use_expense_ratio"`
	ExpenseRatioPercent float64          `json:"expense_ratio_percent"`
	Itemized            ItemizedExpenses `json:"itemized"`
}

// Total returns annual operating expenses for the selected mode.
func (m ExpenseModel) Total(egi float64) float64 {
	if m.UseExpenseRatio {
		return finance.Of(egi, m.ExpenseRatioPercent)
	}
	return m.Itemized.Total(egi)
}
