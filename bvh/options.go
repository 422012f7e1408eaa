package bvh

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// The strategy used for partitioning a node's triangles between its children.
type SplitMode uint8

const (
	// Split at the median centroid along the longest axis of the
	// centroid bounds.
	MedianSplit SplitMode = iota

	// Evaluate every split position along the longest centroid axis and
	// keep the one with the lowest surface area heuristic cost.
	SurfaceAreaHeuristic
)

const (
	defaultMedianLeafThreshold = 6
	defaultSAHLeafThreshold    = 2
)

// Get the split mode name.
func (m SplitMode) String() string {
	switch m {
	case MedianSplit:
		return "median"
	case SurfaceAreaHeuristic:
		return "sah"
	}
	return fmt.Sprintf("SplitMode(%d)", uint8(m))
}

// Parse a split mode name ("median" or "sah").
func ParseSplitMode(name string) (SplitMode, error) {
	switch strings.ToLower(name) {
	case "median":
		return MedianSplit, nil
	case "sah":
		return SurfaceAreaHeuristic, nil
	}
	return 0, errors.Wrapf(ErrUnknownSplitMode, "parse split mode %q", name)
}

// Options control how a hierarchy is built.
type Options struct {
	SplitMode SplitMode

	// Ranges with at most this many triangles become leaves. A zero value
	// selects the default for the split mode.
	LeafThreshold int
}

// Return a copy of the options with defaults applied and validate them.
func (o Options) normalize() (Options, error) {
	if o.SplitMode != MedianSplit && o.SplitMode != SurfaceAreaHeuristic {
		return o, ErrUnknownSplitMode
	}
	if o.LeafThreshold < 0 {
		return o, ErrInvalidLeafThreshold
	}
	if o.LeafThreshold == 0 {
		o.LeafThreshold = defaultMedianLeafThreshold
		if o.SplitMode == SurfaceAreaHeuristic {
			o.LeafThreshold = defaultSAHLeafThreshold
		}
	}
	return o, nil
}
