package deals

import "github.com/dealforge/deal-engine/finance"

// seventyPercentRule is the share of ARV a flipper should pay, before rehab.
const seventyPercentRule = 0.70

// FlipInputs describes a single buy-rehab-sell transaction.
type FlipInputs struct {
	PurchasePrice          float64 `json:"purchase_price"`
	ClosingCostsBuyPercent float64 `json:"closing_costs_buy_percent"`
	RehabCosts             float64 `json:"rehab_costs"`
	AfterRepairValue       float64 `json:"after_repair_value"`

	HoldingPeriodMonths int     `json:"holding_period_months"`
	HoldingCostsMonthly float64 `json:"holding_costs_monthly"`

	UseLoan            bool    `json:"use_loan"`
	LoanToValuePercent float64 `json:"loan_to_value_percent"`
	LoanInterestRate   float64 `json:"loan_interest_rate"`
	LoanPointsPercent  float64 `json:"loan_points_percent"`
	IncludeRehabInLoan bool    `json:"include_rehab_in_loan"`

	AgentCommissionPercent  float64 `json:"agent_commission_percent"`
	ClosingCostsSellPercent float64 `json:"closing_costs_sell_percent"`
}

// FlipResult holds project costs, profit and offer analysis.
type FlipResult struct {
	ClosingCostsBuy      float64 `json:"closing_costs_buy"`
	TotalAcquisitionCost float64 `json:"total_acquisition_cost"`

	LoanAmount         float64 `json:"loan_amount"`
	DownPayment        float64 `json:"down_payment"`
	LoanPoints         float64 `json:"loan_points"`
	MonthlyLoanPayment float64 `json:"monthly_loan_payment"`
	TotalLoanInterest  float64 `json:"total_loan_interest"`

	TotalHoldingCosts float64 `json:"total_holding_costs"`

	AgentCommission   float64 `json:"agent_commission"`
	ClosingCostsSell  float64 `json:"closing_costs_sell"`
	TotalSellingCosts float64 `json:"total_selling_costs"`

	TotalProjectCost  float64 `json:"total_project_cost"`
	TotalCashRequired float64 `json:"total_cash_required"`

	GrossProfit   float64 `json:"gross_profit"`
	NetProfit     float64 `json:"net_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
	ROI           float64 `json:"roi"`
	AnnualizedROI float64 `json:"annualized_roi"`

	BreakEvenPrice              float64 `json:"break_even_price"`
	MaxAllowableOffer           float64 `json:"max_allowable_offer"`
	DealMeetsSeventyPercentRule bool    `json:"deal_meets_seventy_percent_rule"`
}

func (FlipInputs) Type() DealType { return TypeFlip }
func (FlipInputs) inputs()        {}
func (FlipResult) Type() DealType { return TypeFlip }
func (FlipResult) result()        {}

// CalculateFlip computes profit for a flip. Financing costs only apply when
// the deal is leveraged.
func CalculateFlip(in FlipInputs) FlipResult {
	closingBuy := finance.Of(in.PurchasePrice, in.ClosingCostsBuyPercent)
	acquisition := in.PurchasePrice + closingBuy + in.RehabCosts
	months := float64(in.HoldingPeriodMonths)
	carrying := in.HoldingCostsMonthly * months

	var loan, points, payment, interest float64
	down := in.PurchasePrice
	leveraged := in.UseLoan && in.LoanToValuePercent > 0
	if leveraged {
		purchaseLoan := finance.Of(in.PurchasePrice, in.LoanToValuePercent)
		loan = purchaseLoan
		down = in.PurchasePrice - purchaseLoan
		if in.IncludeRehabInLoan {
			loan += in.RehabCosts
		} else {
			down += in.RehabCosts
		}
		points = finance.Of(loan, in.LoanPointsPercent)
		payment = finance.InterestOnlyPayment(loan, in.LoanInterestRate)
		interest = payment * months
	}

	holding := carrying + interest

	commission := finance.Of(in.AfterRepairValue, in.AgentCommissionPercent)
	closingSell := finance.Of(in.AfterRepairValue, in.ClosingCostsSellPercent)
	selling := commission + closingSell

	projectCost := in.PurchasePrice + closingBuy + in.RehabCosts + points + holding + selling

	cashRequired := acquisition + carrying
	if leveraged {
		cashRequired = down + closingBuy + points + carrying
	}

	netProfit := in.AfterRepairValue - projectCost
	roi := finance.Percent(netProfit, cashRequired)

	var annualized float64
	if in.HoldingPeriodMonths > 0 {
		annualized = roi * 12 / months
	}

	// Sale price S breaks even when S*(1 - sell%) covers the fixed costs.
	fixed := in.PurchasePrice + closingBuy + in.RehabCosts + points + holding
	sellShare := (in.AgentCommissionPercent + in.ClosingCostsSellPercent) / 100
	breakEven := fixed
	if sellShare < 1 {
		breakEven = fixed / (1 - sellShare)
	}

	mao := in.AfterRepairValue*seventyPercentRule - in.RehabCosts

	return FlipResult{
		ClosingCostsBuy:      closingBuy,
		TotalAcquisitionCost: acquisition,

		LoanAmount:         loan,
		DownPayment:        down,
		LoanPoints:         points,
		MonthlyLoanPayment: payment,
		TotalLoanInterest:  interest,

		TotalHoldingCosts: holding,

		AgentCommission:   commission,
		ClosingCostsSell:  closingSell,
		TotalSellingCosts: selling,

		TotalProjectCost:  projectCost,
		TotalCashRequired: cashRequired,

		GrossProfit:   in.AfterRepairValue - in.PurchasePrice - in.RehabCosts,
		NetProfit:     netProfit,
		ProfitMargin:  finance.Percent(netProfit, in.AfterRepairValue),
		ROI:           roi,
		AnnualizedROI: annualized,

		BreakEvenPrice:              breakEven,
		MaxAllowableOffer:           mao,
		DealMeetsSeventyPercentRule: in.PurchasePrice <= mao,
	}
}
