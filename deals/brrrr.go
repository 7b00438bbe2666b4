package deals

import (
	"math"

	"github.com/dealforge/deal-engine/finance"
)

// BRRRRInputs covers the four phases: acquisition on short-term debt,
// rehab/holding, refinance into permanent debt, and rental operation.
type BRRRRInputs struct {
	// Acquisition
	PurchasePrice        float64 `json:"purchase_price"`
	ClosingCosts         float64 `json:"closing_costs"`
	RehabCosts           float64 `json:"rehab_costs"`
	InitialLoanPercent   float64 `json:"initial_loan_percent"`
	InitialInterestRate  float64 `json:"initial_interest_rate"`
	InitialPointsPercent float64 `json:"initial_points_percent"`

	// Holding
	RehabDurationMonths int     `json:"rehab_duration_months"`
	HoldingCostsMonthly float64 `json:"holding_costs_monthly"`

	// Refinance
	AfterRepairValue      float64 `json:"after_repair_value"`
	RefinanceLTV          float64 `json:"refinance_ltv"`
	RefinanceRate         float64 `json:"refinance_rate"`
	RefinanceTermYears    int     `json:"refinance_term_years"`
	RefinanceClosingCosts float64 `json:"refinance_closing_costs"`

	// Rental
	MonthlyRent        float64 `json:"monthly_rent"`
	OtherIncome        float64 `json:"other_income"`
	VacancyRate        float64 `json:"vacancy_rate"`
	PropertyTaxAnnual  float64 `json:"property_tax_annual"`
	InsuranceAnnual    float64 `json:"insurance_annual"`
	HOAMonthly         float64 `json:"hoa_monthly"`
	MaintenancePercent float64 `json:"maintenance_percent"`
	CapexPercent       float64 `json:"capex_percent"`
	ManagementPercent  float64 `json:"management_percent"`
}

// BRRRRResult holds phase-by-phase figures and post-refinance returns.
// When the refinance recovers all cash, InfiniteReturn is set and the
// three return fields are +Inf.
type BRRRRResult struct {
	InitialLoanAmount     float64 `json:"initial_loan_amount"`
	InitialDownPayment    float64 `json:"initial_down_payment"`
	InitialPointsCost     float64 `json:"initial_points_cost"`
	InitialMonthlyPayment float64 `json:"initial_monthly_payment"`
	TotalHoldingCosts     float64 `json:"total_holding_costs"`
	TotalHoldingInterest  float64 `json:"total_holding_interest"`

	AllInCost            float64 `json:"all_in_cost"`
	CashLeftInDeal       float64 `json:"cash_left_in_deal"`
	CashRecoveredAtRefi  float64 `json:"cash_recovered_at_refi"`
	CashRecoveredPercent float64 `json:"cash_recovered_percent"`
	EquityAtRefi         float64 `json:"equity_at_refi"`
	NewLoanAmount        float64 `json:"new_loan_amount"`
	NewMonthlyPayment    float64 `json:"new_monthly_payment"`
	InfiniteReturn       bool    `json:"infinite_return"`

	CashOnCashReturn finance.Return `json:"cash_on_cash_return"`
	CapRate          float64        `json:"cap_rate"`
	TotalROI         finance.Return `json:"total_roi"`
	MonthlyCashFlow  float64        `json:"monthly_cash_flow"`
	AnnualCashFlow   float64        `json:"annual_cash_flow"`

	TotalInvestment          float64 `json:"total_investment"`
	GrossMonthlyIncome       float64 `json:"gross_monthly_income"`
	EffectiveGrossIncome     float64 `json:"effective_gross_income"`
	TotalMonthlyExpenses     float64 `json:"total_monthly_expenses"`
	NetOperatingIncome       float64 `json:"net_operating_income"`
	DebtServiceCoverageRatio float64 `json:"debt_service_coverage_ratio"`

	Year1PrincipalPaydown float64        `json:"year1_principal_paydown"`
	Year1InterestPaid     float64        `json:"year1_interest_paid"`
	FiveYearEquity        float64        `json:"five_year_equity"`
	FiveYearTotalReturn   finance.Return `json:"five_year_total_return"`
}

func (BRRRRInputs) Type() DealType { return TypeBRRRR }
func (BRRRRInputs) inputs()        {}
func (BRRRRResult) Type() DealType { return TypeBRRRR }
func (BRRRRResult) result()        {}

// CalculateBRRRR computes the two-loan BRRRR model. Returns are measured
// against the cash still tied up after the refinance.
func CalculateBRRRR(in BRRRRInputs) BRRRRResult {
	// Acquisition: hard money, interest only.
	initialLoan := finance.Of(in.PurchasePrice, in.InitialLoanPercent)
	initialDown := in.PurchasePrice - initialLoan
	points := finance.Of(initialLoan, in.InitialPointsPercent)
	initialPayment := finance.InterestOnlyPayment(initialLoan, in.InitialInterestRate)

	months := float64(in.RehabDurationMonths)
	holdingCosts := in.HoldingCostsMonthly * months
	holdingInterest := initialPayment * months

	allIn := initialDown + in.ClosingCosts + points + in.RehabCosts + holdingCosts + holdingInterest

	// Refinance: the new loan retires the acquisition loan.
	newLoan := finance.Of(in.AfterRepairValue, in.RefinanceLTV)
	recovered := newLoan - initialLoan - in.RefinanceClosingCosts
	cashLeft := allIn - recovered
	infinite := cashLeft <= 0

	refiRate := finance.MonthlyRate(in.RefinanceRate)
	newPayment := finance.MonthlyPayment(newLoan, refiRate, in.RefinanceTermYears*12)

	month := residentialMonth(in.MonthlyRent, in.OtherIncome, in.VacancyRate,
		in.PropertyTaxAnnual, in.InsuranceAnnual, in.HOAMonthly,
		in.MaintenancePercent, in.CapexPercent, in.ManagementPercent)

	noi := (month.effective - month.expenses) * 12
	monthlyCashFlow := month.effective - month.expenses - newPayment
	annualCashFlow := monthlyCashFlow * 12

	year1 := finance.Amortize(newLoan, refiRate, newPayment, 12)
	year5 := finance.Amortize(newLoan, refiRate, newPayment, 60)

	var coc, fiveYear, roi finance.Return
	if infinite {
		coc = finance.Return(math.Inf(1))
		fiveYear = coc
		roi = coc
	} else {
		coc = finance.Return(finance.Percent(annualCashFlow, cashLeft))
		fiveYear = finance.Return(finance.Percent(annualCashFlow*5+year5.PrincipalPaid, cashLeft))
		roi = fiveYear / 5
	}

	totalInvestment := allIn
	if cashLeft > 0 {
		totalInvestment = cashLeft
	}

	equityAtRefi := in.AfterRepairValue - newLoan

	return BRRRRResult{
		InitialLoanAmount:     initialLoan,
		InitialDownPayment:    initialDown,
		InitialPointsCost:     points,
		InitialMonthlyPayment: initialPayment,
		TotalHoldingCosts:     holdingCosts,
		TotalHoldingInterest:  holdingInterest,

		AllInCost:            allIn,
		CashLeftInDeal:       cashLeft,
		CashRecoveredAtRefi:  recovered,
		CashRecoveredPercent: finance.Percent(recovered, allIn),
		EquityAtRefi:         equityAtRefi,
		NewLoanAmount:        newLoan,
		NewMonthlyPayment:    newPayment,
		InfiniteReturn:       infinite,

		CashOnCashReturn: coc,
		CapRate:          finance.Percent(noi, in.AfterRepairValue),
		TotalROI:         roi,
		MonthlyCashFlow:  monthlyCashFlow,
		AnnualCashFlow:   annualCashFlow,

		TotalInvestment:          totalInvestment,
		GrossMonthlyIncome:       month.gross,
		EffectiveGrossIncome:     month.effective,
		TotalMonthlyExpenses:     month.expenses,
		NetOperatingIncome:       noi,
		DebtServiceCoverageRatio: finance.Ratio(noi, newPayment*12),

		Year1PrincipalPaydown: year1.PrincipalPaid,
		Year1InterestPaid:     year1.InterestPaid,
		FiveYearEquity:        equityAtRefi + year5.PrincipalPaid,
		FiveYearTotalReturn:   fiveYear,
	}
}
