package bvh

import "errors"

var (
	ErrEmptyMesh             = errors.New("bvh: mesh contains no triangles")
	ErrInvalidLeafThreshold  = errors.New("bvh: leaf threshold must not be negative")
	ErrUnknownSplitMode      = errors.New("bvh: unknown split mode")
	ErrBuilderConsumed       = errors.New("bvh: builder has already produced a hierarchy")
	ErrTriangleCountMismatch = errors.New("bvh: hierarchy was built for a different triangle count")
	ErrIndexOutOfRange       = errors.New("bvh: triangle index out of range")
	ErrDuplicateIndex        = errors.New("bvh: triangle index referenced more than once")
	ErrCorruptHierarchy      = errors.New("bvh: corrupt hierarchy")
	ErrNotCached             = errors.New("bvh: hierarchy not present in cache")
)
