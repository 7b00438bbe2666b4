package factory

import (
	"fmt"

	"github.com/dealforge/deal-engine/deals"
)

const maxHouseHackUnits = 4

// validator accumulates field errors.
type validator struct {
	errs ValidationErrors
}

func (v *validator) fail(field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) percent(field string, val float64) {
	if val < 0 || val > 100 {
		v.fail(field, "must be between 0 and 100, got %g", val)
	}
}

func (v *validator) nonNegative(field string, val float64) {
	if val < 0 {
		v.fail(field, "must not be negative, got %g", val)
	}
}

func (v *validator) positive(field string, val float64) {
	if val <= 0 {
		v.fail(field, "must be positive, got %g", val)
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// Validate enforces the range contract the calculators rely on. It reports
// every problem at once as ValidationErrors.
func Validate(in deals.Inputs) error {
	v := &validator{}
	switch d := in.(type) {
	case deals.RentalInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.nonNegative("closing_costs", d.ClosingCosts)
		v.nonNegative("rehab_costs", d.RehabCosts)
		v.percent("down_payment_percent", d.DownPaymentPercent)
		v.nonNegative("interest_rate", d.InterestRate)
		v.positive("loan_term_years", float64(d.LoanTermYears))
		v.nonNegative("monthly_rent", d.MonthlyRent)
		v.nonNegative("other_income", d.OtherIncome)
		v.percent("vacancy_rate", d.VacancyRate)
		v.nonNegative("property_tax_annual", d.PropertyTaxAnnual)
		v.nonNegative("insurance_annual", d.InsuranceAnnual)
		v.nonNegative("hoa_monthly", d.HOAMonthly)
		v.percent("maintenance_percent", d.MaintenancePercent)
		v.percent("capex_percent", d.CapexPercent)
		v.percent("management_percent", d.ManagementPercent)

	case deals.BRRRRInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.nonNegative("closing_costs", d.ClosingCosts)
		v.nonNegative("rehab_costs", d.RehabCosts)
		v.percent("initial_loan_percent", d.InitialLoanPercent)
		v.nonNegative("initial_interest_rate", d.InitialInterestRate)
		v.percent("initial_points_percent", d.InitialPointsPercent)
		v.nonNegative("rehab_duration_months", float64(d.RehabDurationMonths))
		v.nonNegative("holding_costs_monthly", d.HoldingCostsMonthly)
		v.nonNegative("after_repair_value", d.AfterRepairValue)
		v.percent("refinance_ltv", d.RefinanceLTV)
		v.nonNegative("refinance_rate", d.RefinanceRate)
		v.positive("refinance_term_years", float64(d.RefinanceTermYears))
		v.nonNegative("refinance_closing_costs", d.RefinanceClosingCosts)
		v.nonNegative("monthly_rent", d.MonthlyRent)
		v.percent("vacancy_rate", d.VacancyRate)
		v.percent("maintenance_percent", d.MaintenancePercent)
		v.percent("capex_percent", d.CapexPercent)
		v.percent("management_percent", d.ManagementPercent)

	case deals.FlipInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.percent("closing_costs_buy_percent", d.ClosingCostsBuyPercent)
		v.nonNegative("rehab_costs", d.RehabCosts)
		v.nonNegative("after_repair_value", d.AfterRepairValue)
		v.nonNegative("holding_period_months", float64(d.HoldingPeriodMonths))
		v.nonNegative("holding_costs_monthly", d.HoldingCostsMonthly)
		v.percent("loan_to_value_percent", d.LoanToValuePercent)
		v.nonNegative("loan_interest_rate", d.LoanInterestRate)
		v.percent("loan_points_percent", d.LoanPointsPercent)
		v.percent("agent_commission_percent", d.AgentCommissionPercent)
		v.percent("closing_costs_sell_percent", d.ClosingCostsSellPercent)

	case deals.HouseHackInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.percent("down_payment_percent", d.DownPaymentPercent)
		v.nonNegative("interest_rate", d.InterestRate)
		v.positive("loan_term_years", float64(d.LoanTermYears))
		v.percent("pmi_rate", d.PMIRate)
		switch d.FinancingType {
		case "", deals.FinancingConventional, deals.FinancingFHA, deals.FinancingVA, deals.FinancingCash:
		default:
			v.fail("financing_type", "unknown financing type %q", d.FinancingType)
		}
		if n := len(d.UnitRents); n == 0 || n > maxHouseHackUnits {
			v.fail("unit_rents", "must list 1 to %d units, got %d", maxHouseHackUnits, n)
		} else if d.OwnerOccupiedUnit < 1 || d.OwnerOccupiedUnit > n {
			v.fail("owner_occupied_unit", "must be between 1 and %d, got %d", n, d.OwnerOccupiedUnit)
		}
		for i, r := range d.UnitRents {
			v.nonNegative(fmt.Sprintf("unit_rents[%d]", i), r)
		}
		v.nonNegative("equivalent_rent", d.EquivalentRent)
		v.percent("vacancy_rate", d.VacancyRate)
		v.percent("maintenance_percent", d.MaintenancePercent)
		v.percent("capex_percent", d.CapexPercent)
		v.percent("management_percent", d.ManagementPercent)

	case deals.MultifamilyInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		var units int
		for i, tier := range d.UnitMix {
			if tier.Count < 0 {
				v.fail(fmt.Sprintf("unit_mix[%d].count", i), "must not be negative")
			}
			v.nonNegative(fmt.Sprintf("unit_mix[%d].monthly_rent", i), tier.MonthlyRent)
			units += tier.Count
		}
		if len(d.UnitMix) == 0 {
			units = d.TotalUnits
		}
		if units <= 0 {
			v.fail("unit_mix", "must contain at least one unit")
		}
		v.percent("vacancy_rate", d.VacancyRate)
		v.percent("credit_loss_rate", d.CreditLossRate)
		validateExpenses(v, d.Expenses)
		v.percent("down_payment_percent", d.DownPaymentPercent)
		v.percent("closing_costs_percent", d.ClosingCostsPercent)
		v.percent("loan_points_percent", d.LoanPointsPercent)
		v.nonNegative("interest_rate", d.InterestRate)
		v.positive("amortization_years", float64(d.AmortizationYears))
		v.nonNegative("market_cap_rate", d.MarketCapRate)

	case deals.MhParkInputs:
		v.positive("lot_count", float64(d.LotCount))
		v.percent("occupancy_percent", d.OccupancyPercent)
		v.nonNegative("avg_lot_rent", d.AvgLotRent)
		v.nonNegative("other_income_monthly", d.OtherIncomeMonthly)
		validateExpenses(v, d.Expenses)
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.percent("down_payment_percent", d.DownPaymentPercent)
		v.percent("closing_costs_percent", d.ClosingCostsPercent)
		v.nonNegative("interest_rate", d.InterestRate)
		v.positive("amortization_years", float64(d.AmortizationYears))
		v.nonNegative("market_cap_rate", d.MarketCapRate)

	case deals.SyndicationInputs:
		v.nonNegative("purchase_price", d.PurchasePrice)
		v.nonNegative("closing_costs", d.ClosingCosts)
		v.nonNegative("capex_reserves", d.CapexReserves)
		v.percent("lp_equity_percent", d.LPEquityPercent)
		v.percent("gp_equity_percent", d.GPEquityPercent)
		if sum := d.LPEquityPercent + d.GPEquityPercent; sum < 99.999 || sum > 100.001 {
			v.fail("gp_equity_percent", "LP and GP equity must sum to 100, got %g", sum)
		}
		v.percent("loan_to_value", d.LoanToValue)
		v.nonNegative("interest_rate", d.InterestRate)
		v.positive("amortization_years", float64(d.AmortizationYears))
		v.nonNegative("interest_only_years", float64(d.InterestOnlyYears))
		v.percent("acquisition_fee_percent", d.AcquisitionFeePercent)
		v.percent("asset_management_fee_percent", d.AssetManagementFeePercent)
		v.percent("preferred_return", d.PreferredReturn)
		v.nonNegative("gross_potential_rent", d.GrossPotentialRent)
		v.percent("vacancy_rate", d.VacancyRate)
		v.nonNegative("other_income", d.OtherIncome)
		v.percent("operating_expense_ratio", d.OperatingExpenseRatio)
		v.positive("hold_period_years", float64(d.HoldPeriodYears))
		v.positive("exit_cap_rate", d.ExitCapRate)
		v.percent("disposition_fee_percent", d.DispositionFeePercent)
		if err := d.Waterfall().Validate(); err != nil {
			v.fail("tiers", "%s", err.Error())
		}

	case nil:
		v.fail("type", "missing deal inputs")

	default:
		v.fail("type", "unsupported inputs %T", in)
	}
	return v.err()
}

func validateExpenses(v *validator, m deals.ExpenseModel) {
	if m.UseExpenseRatio {
		v.percent("expenses.expense_ratio_percent", m.ExpenseRatioPercent)
		return
	}
	e := m.Itemized
	v.nonNegative("expenses.itemized.property_tax_annual", e.PropertyTaxAnnual)
	v.nonNegative("expenses.itemized.insurance_annual", e.InsuranceAnnual)
	v.nonNegative("expenses.itemized.utilities_annual", e.UtilitiesAnnual)
	v.nonNegative("expenses.itemized.repairs_maintenance_annual", e.RepairsMaintenanceAnnual)
	v.percent("expenses.itemized.management_percent", e.ManagementPercent)
	v.percent("expenses.itemized.reserves_percent", e.ReservesPercent)
}
