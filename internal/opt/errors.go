package opt

import "errors"

var (
	ErrInvalidCoordinate         = errors.New("invalid coordinate")
	ErrInvalidInput              = errors.New("invalid input")
	ErrInfeasibleLocation        = errors.New("location exceeds every vehicle capacity")
	ErrCapacityInvariantViolated = errors.New("capacity invariant violated")
	errPartition                 = errors.New("partition invariant violated")
)
