package analytics

import "errors"

var (
	// ErrInsufficientData means the input window is too short for the statistic.
	ErrInsufficientData = errors.New("analytics: insufficient data")

	// ErrDegenerateInput means the input is numerically unusable
	// (zero variance, NaN/Inf values, non-positive prices).
	ErrDegenerateInput = errors.New("analytics: degenerate input")
)
