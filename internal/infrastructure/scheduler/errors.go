package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSweepTimeout is returned when a sweep run exceeds its timeout
	ErrSweepTimeout = errors.New("overdue sweep timed out")
)
