package deals

import (
	"math"

	"github.com/dealforge/deal-engine/finance"
)

// FinancingType selects the loan program for a house hack.
type FinancingType string

const (
	FinancingConventional FinancingType = "conventional"
	FinancingFHA          FinancingType = "fha"
	FinancingVA           FinancingType = "va"
	FinancingCash         FinancingType = "cash"
)

// pmiThresholdPercent is the down payment at or above which PMI is waived.
const pmiThresholdPercent = 20

// HouseHackInputs describes a 1-4 unit property where the owner lives in
// one unit. UnitRents holds one monthly rent per unit; OwnerOccupiedUnit
// is 1-based.
type HouseHackInputs struct {
	PurchasePrice      float64       `json:"purchase_price"`
	ClosingCosts       float64       `json:"closing_costs"`
	RehabCosts         float64       `json:"rehab_costs"`
	DownPaymentPercent float64       `json:"down_payment_percent"`
	InterestRate       float64       `json:"interest_rate"`
	LoanTermYears      int           `json:"loan_term_years"`
	FinancingType      FinancingType `json:"financing_type"`
	PMIRate            float64       `json:"pmi_rate"`

	UnitRents         []float64 `json:"unit_rents"`
	OwnerOccupiedUnit int       `json:"owner_occupied_unit"`
	VacancyRate       float64   `json:"vacancy_rate"`

	// EquivalentRent is what the owner would pay to live elsewhere. It also
	// stands in for the owner unit's rent in the all-rented scenario when
	// that unit has no listed rent.
	EquivalentRent float64 `json:"equivalent_rent"`

	PropertyTaxAnnual  float64 `json:"property_tax_annual"`
	InsuranceAnnual    float64 `json:"insurance_annual"`
	HOAMonthly         float64 `json:"hoa_monthly"`
	UtilitiesMonthly   float64 `json:"utilities_monthly"`
	MaintenancePercent float64 `json:"maintenance_percent"`
	CapexPercent       float64 `json:"capex_percent"`
	ManagementPercent  float64 `json:"management_percent"`
}

// HouseHackResult pairs the owner-occupied picture with the investment
// picture as if every unit were rented.
type HouseHackResult struct {
	LoanAmount              float64 `json:"loan_amount"`
	MonthlyMortgage         float64 `json:"monthly_mortgage"`
	MonthlyPMI              float64 `json:"monthly_pmi"`
	TotalMonthlyDebtService float64 `json:"total_monthly_debt_service"`

	GrossPotentialRent     float64 `json:"gross_potential_rent"`
	RentalIncomeMonthly    float64 `json:"rental_income_monthly"`
	EffectiveRentalIncome  float64 `json:"effective_rental_income"`
	OwnerUnitPotentialRent float64 `json:"owner_unit_potential_rent"`

	MonthlyPropertyTax   float64 `json:"monthly_property_tax"`
	MonthlyInsurance     float64 `json:"monthly_insurance"`
	MonthlyMaintenance   float64 `json:"monthly_maintenance"`
	MonthlyCapex         float64 `json:"monthly_capex"`
	MonthlyManagement    float64 `json:"monthly_management"`
	TotalMonthlyExpenses float64 `json:"total_monthly_expenses"`

	GrossMonthlyCost     float64 `json:"gross_monthly_cost"`
	NetHousingCost       float64 `json:"net_housing_cost"`
	SavingsVsRenting     float64 `json:"savings_vs_renting"`
	EffectiveHousingCost float64 `json:"effective_housing_cost"`
	LivesForFree         bool    `json:"lives_for_free"`

	CashFlowIfRented       float64 `json:"cash_flow_if_rented"`
	AnnualCashFlowIfRented float64 `json:"annual_cash_flow_if_rented"`
	CashOnCashIfRented     float64 `json:"cash_on_cash_if_rented"`
	CapRate                float64 `json:"cap_rate"`
	NetOperatingIncome     float64 `json:"net_operating_income"`

	BreakEvenRent     float64 `json:"break_even_rent"`
	RentCoverageRatio float64 `json:"rent_coverage_ratio"`

	TotalInvestment float64 `json:"total_investment"`
	DownPayment     float64 `json:"down_payment"`
}

func (HouseHackInputs) Type() DealType { return TypeHouseHack }
func (HouseHackInputs) inputs()        {}
func (HouseHackResult) Type() DealType { return TypeHouseHack }
func (HouseHackResult) result()        {}

// rents splits UnitRents into the rent collected while the owner lives on
// site and the owner unit's market rent once they move out.
func (in HouseHackInputs) rents() (rented, ownerUnit float64) {
	for i, rent := range in.UnitRents {
		if i+1 == in.OwnerOccupiedUnit {
			ownerUnit = rent
			continue
		}
		rented += rent
	}
	if ownerUnit <= 0 {
		ownerUnit = in.EquivalentRent
	}
	return rented, ownerUnit
}

func (in HouseHackInputs) requiresPMI() bool {
	return in.DownPaymentPercent < pmiThresholdPercent &&
		in.FinancingType != FinancingCash &&
		in.FinancingType != FinancingVA
}

// CalculateHouseHack computes net housing cost while owner-occupied and the
// investment metrics after the owner moves out. Both scenarios share one
// expense base; only management differs because it follows collected rent.
func CalculateHouseHack(in HouseHackInputs) HouseHackResult {
	downPayment := finance.Of(in.PurchasePrice, in.DownPaymentPercent)
	loanAmount := in.PurchasePrice - downPayment
	if in.FinancingType == FinancingCash {
		loanAmount = 0
	}
	totalInvestment := downPayment + in.ClosingCosts + in.RehabCosts

	mortgage := finance.LoanPayment(loanAmount, in.InterestRate, in.LoanTermYears)
	var pmi float64
	if in.requiresPMI() {
		pmi = finance.Of(loanAmount, in.PMIRate) / 12
	}
	debtService := mortgage + pmi

	rentedIncome, ownerUnitRent := in.rents()
	grossPotential := rentedIncome + ownerUnitRent
	effectiveRental := rentedIncome - finance.Of(rentedIncome, in.VacancyRate)

	// Shared expense base.
	tax := in.PropertyTaxAnnual / 12
	insurance := in.InsuranceAnnual / 12
	maintenance := finance.Of(grossPotential, in.MaintenancePercent)
	capex := finance.Of(grossPotential, in.CapexPercent)
	fixed := tax + insurance + in.HOAMonthly + maintenance + capex + in.UtilitiesMonthly

	// Owner-occupied scenario.
	management := finance.Of(effectiveRental, in.ManagementPercent)
	expenses := fixed + management
	grossCost := debtService + expenses
	netHousing := grossCost - effectiveRental

	// All-rented scenario.
	effectiveAll := grossPotential - finance.Of(grossPotential, in.VacancyRate)
	expensesAll := fixed + finance.Of(effectiveAll, in.ManagementPercent)
	noi := (effectiveAll - expensesAll) * 12
	cashFlowAll := effectiveAll - expensesAll - debtService

	return HouseHackResult{
		LoanAmount:              loanAmount,
		MonthlyMortgage:         mortgage,
		MonthlyPMI:              pmi,
		TotalMonthlyDebtService: debtService,

		GrossPotentialRent:     grossPotential,
		RentalIncomeMonthly:    rentedIncome,
		EffectiveRentalIncome:  effectiveRental,
		OwnerUnitPotentialRent: ownerUnitRent,

		MonthlyPropertyTax:   tax,
		MonthlyInsurance:     insurance,
		MonthlyMaintenance:   maintenance,
		MonthlyCapex:         capex,
		MonthlyManagement:    management,
		TotalMonthlyExpenses: expenses,

		GrossMonthlyCost:     grossCost,
		NetHousingCost:       netHousing,
		SavingsVsRenting:     in.EquivalentRent - netHousing,
		EffectiveHousingCost: math.Max(0, netHousing),
		LivesForFree:         netHousing <= 0,

		CashFlowIfRented:       cashFlowAll,
		AnnualCashFlowIfRented: cashFlowAll * 12,
		CashOnCashIfRented:     finance.Percent(cashFlowAll*12, totalInvestment),
		CapRate:                finance.Percent(noi, in.PurchasePrice),
		NetOperatingIncome:     noi,

		BreakEvenRent:     grossCost,
		RentCoverageRatio: finance.Ratio(effectiveRental, grossCost),

		TotalInvestment: totalInvestment,
		DownPayment:     downPayment,
	}
}
