package deals

import "fmt"

// Calculate dispatches to the calculator for the concrete input type. It
// fails only for a nil or foreign Inputs value; numeric degeneracy never
// produces an error.
func Calculate(in Inputs) (Result, error) {
	switch v := in.(type) {
	case RentalInputs:
		return CalculateRental(v), nil
	case BRRRRInputs:
		return CalculateBRRRR(v), nil
	case FlipInputs:
		return CalculateFlip(v), nil
	case HouseHackInputs:
		return CalculateHouseHack(v), nil
	case MultifamilyInputs:
		return CalculateMultifamily(v), nil
	case MhParkInputs:
		return CalculateMhPark(v), nil
	case SyndicationInputs:
		return CalculateSyndication(v), nil
	case nil:
		return nil, fmt.Errorf("%w: nil inputs", ErrUnknownDealType)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownDealType, in)
	}
}
