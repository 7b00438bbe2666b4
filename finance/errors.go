package finance

import "errors"

// ErrIRRUndefined is returned when a cash-flow stream has no internal rate
// of return: every flow has the same sign, or the solver did not converge.
var ErrIRRUndefined = errors.New("irr undefined")
