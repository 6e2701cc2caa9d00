package common

import "errors"

// Error taxonomy for Book submissions. All three are synchronous and leave
// the Book unchanged on return.
var (
	// ErrInvalidArgument covers zero quantity on limit/market, and price
	// zero on a limit submission.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateOrder is returned when limit is called with a uid that
	// is already resting.
	ErrDuplicateOrder = errors.New("duplicate order")

	// ErrUnknownOrder is returned when cancel is called with a uid that
	// is not resting.
	ErrUnknownOrder = errors.New("unknown order")
)
