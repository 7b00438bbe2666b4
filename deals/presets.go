package deals

import (
	"fmt"

	"github.com/dealforge/deal-engine/waterfall"
)

// Preset returns starter inputs for a deal type. Each call returns a fresh
// value; callers may modify it freely.
func Preset(t DealType) (Inputs, error) {
	switch t {
	case TypeRental:
		return RentalInputs{
			PurchasePrice:      200000,
			ClosingCosts:       4000,
			DownPaymentPercent: 20,
			InterestRate:       7,
			LoanTermYears:      30,
			MonthlyRent:        1800,
			VacancyRate:        5,
			PropertyTaxAnnual:  2400,
			InsuranceAnnual:    1200,
			MaintenancePercent: 5,
			CapexPercent:       5,
			ManagementPercent:  10,
		}, nil

	case TypeBRRRR:
		return BRRRRInputs{
			PurchasePrice:         100000,
			ClosingCosts:          2500,
			RehabCosts:            30000,
			InitialLoanPercent:    90,
			InitialInterestRate:   12,
			InitialPointsPercent:  2,
			RehabDurationMonths:   3,
			HoldingCostsMonthly:   800,
			AfterRepairValue:      180000,
			RefinanceLTV:          75,
			RefinanceRate:         7,
			RefinanceTermYears:    30,
			RefinanceClosingCosts: 3500,
			MonthlyRent:           1500,
			VacancyRate:           5,
			PropertyTaxAnnual:     2000,
			InsuranceAnnual:       1200,
			MaintenancePercent:    5,
			CapexPercent:          5,
			ManagementPercent:     8,
		}, nil

	case TypeFlip:
		return FlipInputs{
			PurchasePrice:           150000,
			ClosingCostsBuyPercent:  2,
			RehabCosts:              40000,
			AfterRepairValue:        250000,
			HoldingPeriodMonths:     6,
			HoldingCostsMonthly:     1500,
			LoanToValuePercent:      80,
			LoanInterestRate:        12,
			LoanPointsPercent:       2,
			AgentCommissionPercent:  6,
			ClosingCostsSellPercent: 1.2,
		}, nil

	case TypeHouseHack:
		return HouseHackInputs{
			PurchasePrice:      350000,
			ClosingCosts:       7000,
			DownPaymentPercent: 3.5,
			InterestRate:       7,
			LoanTermYears:      30,
			FinancingType:      FinancingFHA,
			PMIRate:            0.85,
			UnitRents:          []float64{0, 1400},
			OwnerOccupiedUnit:  1,
			EquivalentRent:     1500,
			VacancyRate:        5,
			PropertyTaxAnnual:  4200,
			InsuranceAnnual:    1800,
			MaintenancePercent: 5,
			CapexPercent:       5,
			ManagementPercent:  8,
		}, nil

	case TypeMultifamily:
		return MultifamilyInputs{
			PurchasePrice: 1500000,
			UnitMix: []UnitTier{
				{Label: "1BR", Count: 4, MonthlyRent: 950},
				{Label: "2BR", Count: 6, MonthlyRent: 1200},
				{Label: "3BR", Count: 2, MonthlyRent: 1500},
			},
			Ancillary:   AncillaryIncome{Laundry: 200, Parking: 300, Storage: 100, PetFees: 150},
			VacancyRate: 8,
			Expenses: ExpenseModel{
				ExpenseRatioPercent: 45,
				Itemized: ItemizedExpenses{
					PropertyTaxAnnual:        18000,
					InsuranceAnnual:          8000,
					UtilitiesAnnual:          14400,
					RepairsMaintenanceAnnual: 9600,
					ManagementPercent:        8,
					LegalAccountingAnnual:    2400,
					ContractServicesAnnual:   3600,
					ReservesPercent:          3.5,
				},
			},
			DownPaymentPercent:  25,
			ClosingCostsPercent: 2,
			InterestRate:        7,
			AmortizationYears:   30,
			MarketCapRate:       7,
		}, nil

	case TypeMhPark:
		return MhParkInputs{
			LotCount:            75,
			OccupancyPercent:    68.0 / 75 * 100,
			AvgLotRent:          450,
			OtherIncomeMonthly:  500,
			Expenses:            ExpenseModel{UseExpenseRatio: true, ExpenseRatioPercent: 35},
			PurchasePrice:       2500000,
			DownPaymentPercent:  25,
			ClosingCostsPercent: 2,
			InterestRate:        7,
			AmortizationYears:   20,
			MarketCapRate:       8,
		}, nil

	case TypeSyndication:
		return SyndicationInputs{
			PurchasePrice:             5000000,
			ClosingCosts:              100000,
			CapexReserves:             150000,
			LPEquityPercent:           90,
			GPEquityPercent:           10,
			LoanToValue:               65,
			InterestRate:              6.5,
			LoanTermYears:             10,
			AmortizationYears:         30,
			InterestOnly:              true,
			InterestOnlyYears:         3,
			AcquisitionFeePercent:     2,
			AssetManagementFeePercent: 2,
			PreferredReturn:           8,
			Tiers:                     waterfall.StandardTiers(),
			GrossPotentialRent:        600000,
			VacancyRate:               5,
			OtherIncome:               24000,
			OperatingExpenseRatio:     45,
			RentGrowthRate:            3,
			ExpenseGrowthRate:         2,
			HoldPeriodYears:           5,
			ExitCapRate:               6,
			DispositionFeePercent:     2,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDealType, t)
}
