package deals

import (
	"math"

	"github.com/dealforge/deal-engine/finance"
	"github.com/dealforge/deal-engine/waterfall"
)

// SyndicationInputs describes an LP/GP equity raise. Tiers defaults to the
// standard three-tier structure when empty.
type SyndicationInputs struct {
	// Capital stack
	PurchasePrice   float64 `json:"purchase_price"`
	ClosingCosts    float64 `json:"closing_costs"`
	CapexReserves   float64 `json:"capex_reserves"`
	LPEquityPercent float64 `json:"lp_equity_percent"`
	GPEquityPercent float64 `json:"gp_equity_percent"`

	// Debt
	LoanToValue       float64 `json:"loan_to_value"`
	InterestRate      float64 `json:"interest_rate"`
	LoanTermYears     int     `json:"loan_term_years"`
	AmortizationYears int     `json:"amortization_years"`
	InterestOnly      bool    `json:"interest_only"`
	InterestOnlyYears int     `json:"interest_only_years"`

	// Fees and waterfall
	AcquisitionFeePercent     float64           `json:"acquisition_fee_percent"`
	AssetManagementFeePercent float64           `json:"asset_management_fee_percent"`
	PreferredReturn           float64           `json:"preferred_return"`
	Tiers                     []waterfall.Tier  `json:"tiers"`
	CatchUp                   waterfall.CatchUp `json:"catch_up"`

	// Operations
	GrossPotentialRent    float64 `json:"gross_potential_rent"`
	VacancyRate           float64 `json:"vacancy_rate"`
	OtherIncome           float64 `json:"other_income"`
	OperatingExpenseRatio float64 `json:"operating_expense_ratio"`
	RentGrowthRate        float64 `json:"rent_growth_rate"`
	ExpenseGrowthRate     float64 `json:"expense_growth_rate"`

	// Exit
	HoldPeriodYears       int     `json:"hold_period_years"`
	ExitCapRate           float64 `json:"exit_cap_rate"`
	DispositionFeePercent float64 `json:"disposition_fee_percent"`
}

// Waterfall returns the distribution config for these inputs.
func (in SyndicationInputs) Waterfall() waterfall.Config {
	tiers := in.Tiers
	if len(tiers) == 0 {
		tiers = waterfall.StandardTiers()
	}
	return waterfall.Config{PreferredReturn: in.PreferredReturn, Tiers: tiers, CatchUp: in.CatchUp}
}

// SyndicationYear is one row of the hold-period projection.
type SyndicationYear struct {
	Year                 int     `json:"year"`
	GrossPotentialRent   float64 `json:"gross_potential_rent"`
	VacancyLoss          float64 `json:"vacancy_loss"`
	OtherIncome          float64 `json:"other_income"`
	EffectiveGrossIncome float64 `json:"effective_gross_income"`
	OperatingExpenses    float64 `json:"operating_expenses"`
	NOI                  float64 `json:"noi"`
	DebtService          float64 `json:"debt_service"`
	InterestPaid         float64 `json:"interest_paid"`
	PrincipalPaid        float64 `json:"principal_paid"`
	LoanBalance          float64 `json:"loan_balance"`
	CashFlow             float64 `json:"cash_flow"`
	AssetManagementFee   float64 `json:"asset_management_fee"`
	DistributableCash    float64 `json:"distributable_cash"`
	LPDistribution       float64 `json:"lp_distribution"`
	GPDistribution       float64 `json:"gp_distribution"`
	CashOnCash           float64 `json:"cash_on_cash"`
}

// SensitivityCell is one re-run of the pipeline with a perturbed exit cap
// rate and rent growth.
type SensitivityCell struct {
	ExitCapRate      float64      `json:"exit_cap_rate"`
	RentGrowthRate   float64      `json:"rent_growth_rate"`
	ExitValue        float64      `json:"exit_value"`
	LPIRR            finance.Rate `json:"lp_irr"`
	GPIRR            finance.Rate `json:"gp_irr"`
	LPEquityMultiple float64      `json:"lp_equity_multiple"`
	GPEquityMultiple float64      `json:"gp_equity_multiple"`
}

// SyndicationResult holds capitalization, projection, exit and waterfall
// outputs. IRRs are undefined (JSON null) when the solver cannot find one.
type SyndicationResult struct {
	TotalCapitalization float64 `json:"total_capitalization"`
	LoanAmount          float64 `json:"loan_amount"`
	TotalEquity         float64 `json:"total_equity"`
	LPEquity            float64 `json:"lp_equity"`
	GPEquity            float64 `json:"gp_equity"`

	GoingInCapRate    float64 `json:"going_in_cap_rate"`
	AverageCashOnCash float64 `json:"average_cash_on_cash"`
	TotalNOIOverHold  float64 `json:"total_noi_over_hold"`

	ExitNOI           float64 `json:"exit_noi"`
	ExitValue         float64 `json:"exit_value"`
	DispositionCosts  float64 `json:"disposition_costs"`
	LoanPayoff        float64 `json:"loan_payoff"`
	NetSaleProceeds   float64 `json:"net_sale_proceeds"`
	EquityAtSale      float64 `json:"equity_at_sale"`
	TotalProfitOnHold float64 `json:"total_profit_on_hold"`

	LPTotalDistributions    float64      `json:"lp_total_distributions"`
	LPCashFlowDistributions float64      `json:"lp_cash_flow_distributions"`
	LPSaleDistributions     float64      `json:"lp_sale_distributions"`
	LPPreferredReturnTotal  float64      `json:"lp_preferred_return_total"`
	LPEquityMultiple        float64      `json:"lp_equity_multiple"`
	LPIRR                   finance.Rate `json:"lp_irr"`
	GPTotalDistributions    float64      `json:"gp_total_distributions"`
	GPAcquisitionFee        float64      `json:"gp_acquisition_fee"`
	GPAssetManagementFees   float64      `json:"gp_asset_management_fees"`
	GPDispositionFee        float64      `json:"gp_disposition_fee"`
	GPTotalCompensation     float64      `json:"gp_total_compensation"`
	GPPromote               float64      `json:"gp_promote"`
	GPEquityMultiple        float64      `json:"gp_equity_multiple"`
	GPIRR                   finance.Rate `json:"gp_irr"`

	Waterfall         waterfall.Result  `json:"waterfall"`
	YearlyProjections []SyndicationYear `json:"yearly_projections"`
	Sensitivity       []SensitivityCell `json:"sensitivity"`
}

func (SyndicationInputs) Type() DealType { return TypeSyndication }
func (SyndicationInputs) inputs()        {}
func (SyndicationResult) Type() DealType { return TypeSyndication }
func (SyndicationResult) result()        {}

var (
	sensitivityCapSteps    = []float64{-1, -0.5, 0, 0.5, 1}
	sensitivityGrowthSteps = []float64{-1, 0, 1}
)

// =============================================================================
// PIPELINE
// =============================================================================

// syndicationRun is one pass of the pipeline for a given rent growth and
// exit cap rate.
type syndicationRun struct {
	years     []SyndicationYear
	exitNOI   float64
	exitValue float64
	dispFee   float64
	payoff    float64
	netSale   float64
	amFees    []float64
	waterfall waterfall.Result
	lpIRR     finance.Rate
	gpIRR     finance.Rate
}

type capitalization struct {
	total, loan, equity, lp, gp, acqFee float64
}

func (in SyndicationInputs) capitalize() capitalization {
	c := capitalization{total: in.PurchasePrice + in.ClosingCosts + in.CapexReserves}
	c.loan = finance.Of(in.PurchasePrice, in.LoanToValue)
	c.equity = c.total - c.loan
	c.lp = finance.Of(c.equity, in.LPEquityPercent)
	c.gp = finance.Of(c.equity, in.GPEquityPercent)
	c.acqFee = finance.Of(in.PurchasePrice, in.AcquisitionFeePercent)
	return c
}

// operatingYear projects income and expenses for year y (1-based).
func (in SyndicationInputs) operatingYear(y int, rentGrowth float64) SyndicationYear {
	growth := math.Pow(1+rentGrowth/100, float64(y-1))
	gpr := in.GrossPotentialRent * growth
	vacancy := finance.Of(gpr, in.VacancyRate)
	other := in.OtherIncome * growth
	egi := gpr - vacancy + other

	firstEGI := in.GrossPotentialRent - finance.Of(in.GrossPotentialRent, in.VacancyRate) + in.OtherIncome
	opex := finance.Of(firstEGI, in.OperatingExpenseRatio) * math.Pow(1+in.ExpenseGrowthRate/100, float64(y-1))

	return SyndicationYear{
		Year:                 y,
		GrossPotentialRent:   gpr,
		VacancyLoss:          vacancy,
		OtherIncome:          other,
		EffectiveGrossIncome: egi,
		OperatingExpenses:    opex,
		NOI:                  egi - opex,
	}
}

// debtSchedule walks the loan year by year: interest only while in the IO
// window, then amortizing over AmortizationYears from the balance left.
type debtSchedule struct {
	in      SyndicationInputs
	balance float64
	payment float64
}

func (d *debtSchedule) year(y int) (interest, principal float64) {
	if d.balance <= 0 {
		return 0, 0
	}
	if d.in.InterestOnly && y <= d.in.InterestOnlyYears {
		return finance.InterestOnlyPayment(d.balance, d.in.InterestRate) * 12, 0
	}
	rate := finance.MonthlyRate(d.in.InterestRate)
	if d.payment == 0 {
		d.payment = finance.MonthlyPayment(d.balance, rate, d.in.AmortizationYears*12)
	}
	pd := finance.Amortize(d.balance, rate, d.payment, 12)
	d.balance = pd.EndingBalance
	return pd.InterestPaid, pd.PrincipalPaid
}

func (in SyndicationInputs) run(rentGrowth, exitCap float64) syndicationRun {
	stack := in.capitalize()
	hold := max(in.HoldPeriodYears, 1)
	debt := &debtSchedule{in: in, balance: stack.loan}

	r := syndicationRun{
		years:  make([]SyndicationYear, 0, hold),
		amFees: make([]float64, hold+1),
	}
	amFee := finance.Of(stack.equity, in.AssetManagementFeePercent)

	periods := make([]waterfall.Period, 0, hold+1)
	for y := 1; y <= hold; y++ {
		row := in.operatingYear(y, rentGrowth)
		row.InterestPaid, row.PrincipalPaid = debt.year(y)
		row.DebtService = row.InterestPaid + row.PrincipalPaid
		row.LoanBalance = debt.balance
		row.CashFlow = row.NOI - row.DebtService
		row.AssetManagementFee = math.Min(amFee, math.Max(row.CashFlow, 0))
		row.DistributableCash = math.Max(row.CashFlow-row.AssetManagementFee, 0)
		row.CashOnCash = finance.Percent(row.CashFlow, stack.equity)

		r.amFees[y] = row.AssetManagementFee
		r.years = append(r.years, row)
		periods = append(periods, waterfall.Period{Year: y, Cash: row.DistributableCash})
	}

	r.exitNOI = in.operatingYear(hold+1, rentGrowth).NOI
	r.exitValue = marketValue(r.exitNOI, exitCap)
	r.dispFee = finance.Of(r.exitValue, in.DispositionFeePercent)
	r.payoff = debt.balance
	r.netSale = r.exitValue - r.dispFee - r.payoff
	periods = append(periods, waterfall.Period{Year: hold, Cash: math.Max(r.netSale, 0), CapitalEvent: true})

	r.waterfall = waterfall.Distribute(in.Waterfall(), stack.lp, stack.gp, periods)
	for _, a := range r.waterfall.Allocations {
		if a.CapitalEvent {
			continue
		}
		r.years[a.Year-1].LPDistribution = a.LP
		r.years[a.Year-1].GPDistribution = a.GP
	}

	gpFlows := append([]float64(nil), r.waterfall.GPFlows...)
	gpFlows[0] += stack.acqFee
	for y := 1; y <= hold; y++ {
		gpFlows[y] += r.amFees[y]
	}
	gpFlows[hold] += r.dispFee
	r.lpIRR = finance.IRROrUndefined(r.waterfall.LPFlows)
	r.gpIRR = finance.IRROrUndefined(gpFlows)
	return r
}

// CalculateSyndication projects the hold period, sells at the exit cap rate
// and runs all cash through the waterfall. The asset-management fee is
// subordinate: it is paid only out of positive operating cash flow. Sale
// proceeds below zero distribute nothing.
func CalculateSyndication(in SyndicationInputs) SyndicationResult {
	stack := in.capitalize()
	r := in.run(in.RentGrowthRate, in.ExitCapRate)
	wf := r.waterfall

	var totalNOI, totalCashFlow, totalAMFees float64
	for _, y := range r.years {
		totalNOI += y.NOI
		totalCashFlow += y.CashFlow
		totalAMFees += y.AssetManagementFee
	}

	var lpSale float64
	for _, a := range wf.Allocations {
		if a.CapitalEvent {
			lpSale += a.LP
		}
	}

	res := SyndicationResult{
		TotalCapitalization: stack.total,
		LoanAmount:          stack.loan,
		TotalEquity:         stack.equity,
		LPEquity:            stack.lp,
		GPEquity:            stack.gp,

		GoingInCapRate:    finance.Percent(r.years[0].NOI, in.PurchasePrice),
		AverageCashOnCash: finance.Percent(totalCashFlow/float64(len(r.years)), stack.equity),
		TotalNOIOverHold:  totalNOI,

		ExitNOI:           r.exitNOI,
		ExitValue:         r.exitValue,
		DispositionCosts:  r.dispFee,
		LoanPayoff:        r.payoff,
		NetSaleProceeds:   r.netSale,
		EquityAtSale:      r.exitValue - r.payoff,
		TotalProfitOnHold: wf.Distributed - stack.equity,

		LPTotalDistributions:    wf.LPTotal,
		LPCashFlowDistributions: wf.LPTotal - lpSale,
		LPSaleDistributions:     lpSale,
		LPPreferredReturnTotal:  wf.LPPreferredPaid,
		LPEquityMultiple:        finance.Ratio(wf.LPTotal, stack.lp),
		LPIRR:                   r.lpIRR,

		GPTotalDistributions:  wf.GPTotal,
		GPAcquisitionFee:      stack.acqFee,
		GPAssetManagementFees: totalAMFees,
		GPDispositionFee:      r.dispFee,
		GPTotalCompensation:   wf.GPTotal + stack.acqFee + totalAMFees + r.dispFee,
		GPPromote:             math.Max(wf.GPTotal-finance.Ratio(wf.Distributed*stack.gp, stack.equity), 0),
		GPEquityMultiple:      finance.Ratio(wf.GPTotal, stack.gp),
		GPIRR:                 r.gpIRR,

		Waterfall:         wf,
		YearlyProjections: r.years,
	}

	for _, dc := range sensitivityCapSteps {
		exitCap := in.ExitCapRate + dc
		if exitCap <= 0 {
			continue
		}
		for _, dg := range sensitivityGrowthSteps {
			growth := in.RentGrowthRate + dg
			cell := in.run(growth, exitCap)
			res.Sensitivity = append(res.Sensitivity, SensitivityCell{
				ExitCapRate:      exitCap,
				RentGrowthRate:   growth,
				ExitValue:        cell.exitValue,
				LPIRR:            cell.lpIRR,
				GPIRR:            cell.gpIRR,
				LPEquityMultiple: finance.Ratio(cell.waterfall.LPTotal, stack.lp),
				GPEquityMultiple: finance.Ratio(cell.waterfall.GPTotal, stack.gp),
			})
		}
	}
	return res
}
