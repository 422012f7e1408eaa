package tracer

import "errors"

var (
	ErrNoHierarchy        = errors.New("tracer: no hierarchy supplied")
	ErrResultSizeMismatch = errors.New("tracer: result slice length does not match ray count")
	ErrInvalidWorkerCount = errors.New("tracer: worker count must not be negative")
)
