package deals

import "github.com/dealforge/deal-engine/finance"

// RentalInputs describes a buy-and-hold rental. Income and HOA are monthly;
// tax and insurance are annual.
type RentalInputs struct {
	PurchasePrice      float64 `json:"purchase_price"`
	ClosingCosts       float64 `json:"closing_costs"`
	RehabCosts         float64 `json:"rehab_costs"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
	InterestRate       float64 `json:"interest_rate"`
	LoanTermYears      int     `json:"loan_term_years"`

	MonthlyRent float64 `json:"monthly_rent"`
	OtherIncome float64 `json:"other_income"`
	VacancyRate float64 `json:"vacancy_rate"`

	PropertyTaxAnnual  float64 `json:"property_tax_annual"`
	InsuranceAnnual    float64 `json:"insurance_annual"`
	HOAMonthly         float64 `json:"hoa_monthly"`
	MaintenancePercent float64 `json:"maintenance_percent"`
	CapexPercent       float64 `json:"capex_percent"`
	ManagementPercent  float64 `json:"management_percent"`
}

// RentalResult holds the derived rental metrics.
type RentalResult struct {
	CashOnCashReturn float64 `json:"cash_on_cash_return"`
	CapRate          float64 `json:"cap_rate"`
	TotalROI         float64 `json:"total_roi"`
	MonthlyCashFlow  float64 `json:"monthly_cash_flow"`
	AnnualCashFlow   float64 `json:"annual_cash_flow"`

	DownPayment              float64 `json:"down_payment"`
	TotalInvestment          float64 `json:"total_investment"`
	LoanAmount               float64 `json:"loan_amount"`
	MonthlyMortgage          float64 `json:"monthly_mortgage"`
	GrossMonthlyIncome       float64 `json:"gross_monthly_income"`
	EffectiveGrossIncome     float64 `json:"effective_gross_income"`
	TotalMonthlyExpenses     float64 `json:"total_monthly_expenses"`
	NetOperatingIncome       float64 `json:"net_operating_income"`
	DebtServiceCoverageRatio float64 `json:"debt_service_coverage_ratio"`

	Year1PrincipalPaydown float64 `json:"year1_principal_paydown"`
	Year1InterestPaid     float64 `json:"year1_interest_paid"`

	FiveYearEquity      float64 `json:"five_year_equity"`
	FiveYearTotalReturn float64 `json:"five_year_total_return"`
}

func (RentalInputs) Type() DealType { return TypeRental }
func (RentalInputs) inputs()        {}
func (RentalResult) Type() DealType { return TypeRental }
func (RentalResult) result()        {}

// operatingMonth is the monthly income/expense picture shared by the
// residential calculators (rental and the post-refinance BRRRR phase).
type operatingMonth struct {
	gross     float64
	effective float64
	expenses  float64
}

func residentialMonth(rent, other, vacancyPct, taxAnnual, insuranceAnnual, hoa, maintPct, capexPct, mgmtPct float64) operatingMonth {
	gross := rent + other
	effective := gross - finance.Of(gross, vacancyPct)
	expenses := taxAnnual/12 +
		insuranceAnnual/12 +
		hoa +
		finance.Of(gross, maintPct) +
		finance.Of(gross, capexPct) +
		finance.Of(gross, mgmtPct)
	return operatingMonth{gross: gross, effective: effective, expenses: expenses}
}

// CalculateRental computes buy-and-hold rental metrics.
func CalculateRental(in RentalInputs) RentalResult {
	downPayment := finance.Of(in.PurchasePrice, in.DownPaymentPercent)
	loanAmount := in.PurchasePrice - downPayment
	totalInvestment := downPayment + in.ClosingCosts + in.RehabCosts

	rate := finance.MonthlyRate(in.InterestRate)
	mortgage := finance.MonthlyPayment(loanAmount, rate, in.LoanTermYears*12)

	month := residentialMonth(in.MonthlyRent, in.OtherIncome, in.VacancyRate,
		in.PropertyTaxAnnual, in.InsuranceAnnual, in.HOAMonthly,
		in.MaintenancePercent, in.CapexPercent, in.ManagementPercent)

	noi := (month.effective - month.expenses) * 12
	monthlyCashFlow := month.effective - month.expenses - mortgage
	annualCashFlow := monthlyCashFlow * 12

	year1 := finance.Amortize(loanAmount, rate, mortgage, 12)
	year5 := finance.Amortize(loanAmount, rate, mortgage, 60)
	fiveYearReturn := finance.Percent(annualCashFlow*5+year5.PrincipalPaid, totalInvestment)

	return RentalResult{
		CashOnCashReturn: finance.Percent(annualCashFlow, totalInvestment),
		CapRate:          finance.Percent(noi, in.PurchasePrice),
		TotalROI:         fiveYearReturn / 5,
		MonthlyCashFlow:  monthlyCashFlow,
		AnnualCashFlow:   annualCashFlow,

		DownPayment:              downPayment,
		TotalInvestment:          totalInvestment,
		LoanAmount:               loanAmount,
		MonthlyMortgage:          mortgage,
		GrossMonthlyIncome:       month.gross,
		EffectiveGrossIncome:     month.effective,
		TotalMonthlyExpenses:     month.expenses,
		NetOperatingIncome:       noi,
		DebtServiceCoverageRatio: finance.Ratio(noi, mortgage*12),

		Year1PrincipalPaydown: year1.PrincipalPaid,
		Year1InterestPaid:     year1.InterestPaid,

		FiveYearEquity:      downPayment + year5.PrincipalPaid,
		FiveYearTotalReturn: fiveYearReturn,
	}
}
