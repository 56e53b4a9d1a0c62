package window

import "errors"

// Common errors returned by the evaluator.
var (
	// ErrInvalidCostLimit is returned when the cost limit is not a
	// positive finite number.
	ErrInvalidCostLimit = errors.New("cost limit must be positive")

	// ErrInvalidTimeBound is returned when a since/until bound cannot
	// be parsed.
	ErrInvalidTimeBound = errors.New("invalid time bound")

	// ErrInvalidRange is returned when since is after until.
	ErrInvalidRange = errors.New("since must not be after until")
)
