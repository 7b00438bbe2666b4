package deals

import "github.com/dealforge/deal-engine/finance"

// UnitTier is one line of a unit mix: Count units renting at MonthlyRent.
type UnitTier struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	MonthlyRent float64 `json:"monthly_rent"`
}

// AncillaryIncome is monthly non-rent income.
type AncillaryIncome struct {
	Laundry float64 `json:"laundry"`
	Parking float64 `json:"parking"`
	Storage float64 `json:"storage"`
	PetFees float64 `json:"pet_fees"`
	Other   float64 `json:"other"`
}

// Monthly returns the monthly total.
func (a AncillaryIncome) Monthly() float64 {
	return a.Laundry + a.Parking + a.Storage + a.PetFees + a.Other
}

// MultifamilyInputs describes a 5+ unit apartment acquisition.
type MultifamilyInputs struct {
	PurchasePrice float64 `json:"purchase_price"`
	// TotalUnits is used only when UnitMix is empty.
	TotalUnits    int     `json:"total_units"`
	SquareFootage float64 `json:"square_footage"`

	UnitMix        []UnitTier      `json:"unit_mix"`
	Ancillary      AncillaryIncome `json:"ancillary"`
	VacancyRate    float64         `json:"vacancy_rate"`
	CreditLossRate float64         `json:"credit_loss_rate"`

	Expenses ExpenseModel `json:"expenses"`

	DownPaymentPercent  float64 `json:"down_payment_percent"`
	ClosingCostsPercent float64 `json:"closing_costs_percent"`
	LoanPointsPercent   float64 `json:"loan_points_percent"`
	InterestRate        float64 `json:"interest_rate"`
	AmortizationYears   int     `json:"amortization_years"`

	MarketCapRate float64 `json:"market_cap_rate"`
}

// MultifamilyResult holds income, expense, financing, valuation and
// break-even analysis.
type MultifamilyResult struct {
	GrossPotentialRent          float64 `json:"gross_potential_rent"`
	GrossPotentialRentMonthly   float64 `json:"gross_potential_rent_monthly"`
	OtherIncomeAnnual           float64 `json:"other_income_annual"`
	GrossPotentialIncome        float64 `json:"gross_potential_income"`
	VacancyLoss                 float64 `json:"vacancy_loss"`
	CreditLoss                  float64 `json:"credit_loss"`
	EffectiveGrossIncome        float64 `json:"effective_gross_income"`
	EffectiveGrossIncomeMonthly float64 `json:"effective_gross_income_monthly"`

	TotalOperatingExpenses        float64 `json:"total_operating_expenses"`
	TotalOperatingExpensesMonthly float64 `json:"total_operating_expenses_monthly"`
	ExpenseRatioActual            float64 `json:"expense_ratio_actual"`

	NetOperatingIncome        float64 `json:"net_operating_income"`
	NetOperatingIncomeMonthly float64 `json:"net_operating_income_monthly"`

	LoanAmount         float64 `json:"loan_amount"`
	DownPayment        float64 `json:"down_payment"`
	ClosingCosts       float64 `json:"closing_costs"`
	LoanPoints         float64 `json:"loan_points"`
	TotalInvestment    float64 `json:"total_investment"`
	MonthlyDebtService float64 `json:"monthly_debt_service"`
	AnnualDebtService  float64 `json:"annual_debt_service"`

	CapRatePurchase          float64 `json:"cap_rate_purchase"`
	CapRateMarket            float64 `json:"cap_rate_market"`
	DebtServiceCoverageRatio float64 `json:"debt_service_coverage_ratio"`
	CashOnCashReturn         float64 `json:"cash_on_cash_return"`
	MonthlyCashFlow          float64 `json:"monthly_cash_flow"`
	AnnualCashFlow           float64 `json:"annual_cash_flow"`

	TotalUnits           int     `json:"total_units"`
	PricePerUnit         float64 `json:"price_per_unit"`
	PricePerSqFt         float64 `json:"price_per_sq_ft"`
	GrossRentMultiplier  float64 `json:"gross_rent_multiplier"`
	EstimatedMarketValue float64 `json:"estimated_market_value"`

	BreakEvenOccupancy   float64 `json:"break_even_occupancy"`
	BreakEvenRentPerUnit float64 `json:"break_even_rent_per_unit"`

	NOIPerUnit      float64 `json:"noi_per_unit"`
	ExpensesPerUnit float64 `json:"expenses_per_unit"`
	RentPerUnit     float64 `json:"rent_per_unit"`
}

func (MultifamilyInputs) Type() DealType { return TypeMultifamily }
func (MultifamilyInputs) inputs()        {}
func (MultifamilyResult) Type() DealType { return TypeMultifamily }
func (MultifamilyResult) result()        {}

func (in MultifamilyInputs) unitMix() (units int, annualRent float64) {
	for _, tier := range in.UnitMix {
		units += tier.Count
		annualRent += float64(tier.Count) * tier.MonthlyRent * 12
	}
	if units == 0 {
		units = in.TotalUnits
	}
	return units, annualRent
}

// marketValue capitalizes NOI at capRate percent.
func marketValue(noi, capRate float64) float64 {
	if capRate <= 0 {
		return 0
	}
	return noi / (capRate / 100)
}

// CalculateMultifamily computes apartment metrics. Vacancy and credit loss
// apply to rent only; ancillary income is collected in full.
func CalculateMultifamily(in MultifamilyInputs) MultifamilyResult {
	units, gpr := in.unitMix()
	otherIncome := in.Ancillary.Monthly() * 12
	gpi := gpr + otherIncome

	vacancy := finance.Of(gpr, in.VacancyRate)
	creditLoss := finance.Of(gpr, in.CreditLossRate)
	egi := gpi - vacancy - creditLoss

	opex := in.Expenses.Total(egi)
	noi := egi - opex

	downPayment := finance.Of(in.PurchasePrice, in.DownPaymentPercent)
	loanAmount := in.PurchasePrice - downPayment
	closing := finance.Of(in.PurchasePrice, in.ClosingCostsPercent)
	points := finance.Of(loanAmount, in.LoanPointsPercent)
	totalInvestment := downPayment + closing + points

	monthlyDebt := finance.LoanPayment(loanAmount, in.InterestRate, in.AmortizationYears)
	annualDebt := monthlyDebt * 12
	cashFlow := noi - annualDebt

	perUnit := func(v float64) float64 { return finance.Ratio(v, float64(units)) }
	costsToCover := opex + annualDebt

	return MultifamilyResult{
		GrossPotentialRent:          gpr,
		GrossPotentialRentMonthly:   gpr / 12,
		OtherIncomeAnnual:           otherIncome,
		GrossPotentialIncome:        gpi,
		VacancyLoss:                 vacancy,
		CreditLoss:                  creditLoss,
		EffectiveGrossIncome:        egi,
		EffectiveGrossIncomeMonthly: egi / 12,

		TotalOperatingExpenses:        opex,
		TotalOperatingExpensesMonthly: opex / 12,
		ExpenseRatioActual:            finance.Percent(opex, egi),

		NetOperatingIncome:        noi,
		NetOperatingIncomeMonthly: noi / 12,

		LoanAmount:         loanAmount,
		DownPayment:        downPayment,
		ClosingCosts:       closing,
		LoanPoints:         points,
		TotalInvestment:    totalInvestment,
		MonthlyDebtService: monthlyDebt,
		AnnualDebtService:  annualDebt,

		CapRatePurchase:          finance.Percent(noi, in.PurchasePrice),
		CapRateMarket:            in.MarketCapRate,
		DebtServiceCoverageRatio: finance.Ratio(noi, annualDebt),
		CashOnCashReturn:         finance.Percent(cashFlow, totalInvestment),
		MonthlyCashFlow:          cashFlow / 12,
		AnnualCashFlow:           cashFlow,

		TotalUnits:           units,
		PricePerUnit:         perUnit(in.PurchasePrice),
		PricePerSqFt:         finance.Ratio(in.PurchasePrice, in.SquareFootage),
		GrossRentMultiplier:  finance.Ratio(in.PurchasePrice, gpr),
		EstimatedMarketValue: marketValue(noi, in.MarketCapRate),

		BreakEvenOccupancy:   finance.Percent(costsToCover, gpi),
		BreakEvenRentPerUnit: perUnit(costsToCover / 12),

		NOIPerUnit:      perUnit(noi),
		ExpensesPerUnit: perUnit(opex),
		RentPerUnit:     perUnit(gpr / 12),
	}
}
