package deals

import "errors"

// ErrUnknownDealType is returned for a nil or unrecognized deal variant.
var ErrUnknownDealType = errors.New("unknown deal type")
