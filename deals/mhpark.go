package deals

import "github.com/dealforge/deal-engine/finance"

// MhParkInputs describes a manufactured housing community. Occupancy is a
// percentage of LotCount so partially filled parks need no fractional lots.
type MhParkInputs struct {
	LotCount           int     `json:"lot_count"`
	OccupancyPercent   float64 `json:"occupancy_percent"`
	AvgLotRent         float64 `json:"avg_lot_rent"`
	OtherIncomeMonthly float64 `json:"other_income_monthly"`

	Expenses ExpenseModel `json:"expenses"`

	PurchasePrice       float64 `json:"purchase_price"`
	DownPaymentPercent  float64 `json:"down_payment_percent"`
	ClosingCostsPercent float64 `json:"closing_costs_percent"`
	InterestRate        float64 `json:"interest_rate"`
	AmortizationYears   int     `json:"amortization_years"`

	MarketCapRate float64 `json:"market_cap_rate"`
}

// MhParkResult holds income, financing and per-lot metrics.
type MhParkResult struct {
	OccupancyRate float64 `json:"occupancy_rate"`
	OccupiedLots  float64 `json:"occupied_lots"`

	GrossPotentialRent   float64 `json:"gross_potential_rent"`
	VacancyLoss          float64 `json:"vacancy_loss"`
	OtherIncomeAnnual    float64 `json:"other_income_annual"`
	GrossPotentialIncome float64 `json:"gross_potential_income"`
	EffectiveGrossIncome float64 `json:"effective_gross_income"`

	TotalOperatingExpenses float64 `json:"total_operating_expenses"`
	NetOperatingIncome     float64 `json:"net_operating_income"`
	NOIPerLot              float64 `json:"noi_per_lot"`

	LoanAmount         float64 `json:"loan_amount"`
	DownPayment        float64 `json:"down_payment"`
	ClosingCosts       float64 `json:"closing_costs"`
	TotalInvestment    float64 `json:"total_investment"`
	MonthlyDebtService float64 `json:"monthly_debt_service"`
	AnnualDebtService  float64 `json:"annual_debt_service"`

	CapRate                  float64 `json:"cap_rate"`
	CashOnCashReturn         float64 `json:"cash_on_cash_return"`
	DebtServiceCoverageRatio float64 `json:"debt_service_coverage_ratio"`
	MonthlyCashFlow          float64 `json:"monthly_cash_flow"`
	AnnualCashFlow           float64 `json:"annual_cash_flow"`

	PricePerLot          float64 `json:"price_per_lot"`
	GrossRentMultiplier  float64 `json:"gross_rent_multiplier"`
	EstimatedMarketValue float64 `json:"estimated_market_value"`
}

func (MhParkInputs) Type() DealType { return TypeMhPark }
func (MhParkInputs) inputs()        {}
func (MhParkResult) Type() DealType { return TypeMhPark }
func (MhParkResult) result()        {}

// CalculateMhPark computes park metrics. GPR assumes every lot is rented;
// vacancy is taken off at the park's occupancy.
func CalculateMhPark(in MhParkInputs) MhParkResult {
	lots := float64(in.LotCount)
	gpr := lots * in.AvgLotRent * 12
	vacancy := gpr * (1 - in.OccupancyPercent/100)
	other := in.OtherIncomeMonthly * 12
	egi := gpr - vacancy + other

	opex := in.Expenses.Total(egi)
	noi := egi - opex

	downPayment := finance.Of(in.PurchasePrice, in.DownPaymentPercent)
	loanAmount := in.PurchasePrice - downPayment
	closing := finance.Of(in.PurchasePrice, in.ClosingCostsPercent)
	totalInvestment := downPayment + closing

	monthlyDebt := finance.LoanPayment(loanAmount, in.InterestRate, in.AmortizationYears)
	annualDebt := monthlyDebt * 12
	cashFlow := noi - annualDebt

	return MhParkResult{
		OccupancyRate: in.OccupancyPercent,
		OccupiedLots:  lots * in.OccupancyPercent / 100,

		GrossPotentialRent:   gpr,
		VacancyLoss:          vacancy,
		OtherIncomeAnnual:    other,
		GrossPotentialIncome: gpr + other,
		EffectiveGrossIncome: egi,

		TotalOperatingExpenses: opex,
		NetOperatingIncome:     noi,
		NOIPerLot:              finance.Ratio(noi, lots),

		LoanAmount:         loanAmount,
		DownPayment:        downPayment,
		ClosingCosts:       closing,
		TotalInvestment:    totalInvestment,
		MonthlyDebtService: monthlyDebt,
		AnnualDebtService:  annualDebt,

		CapRate:                  finance.Percent(noi, in.PurchasePrice),
		CashOnCashReturn:         finance.Percent(cashFlow, totalInvestment),
		DebtServiceCoverageRatio: finance.Ratio(noi, annualDebt),
		MonthlyCashFlow:          cashFlow / 12,
		AnnualCashFlow:           cashFlow,

		PricePerLot:          finance.Ratio(in.PurchasePrice, lots),
		GrossRentMultiplier:  finance.Ratio(in.PurchasePrice, gpr),
		EstimatedMarketValue: marketValue(noi, in.MarketCapRate),
	}
}
