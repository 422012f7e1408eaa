package tracer

import (
	"context"

	"github.com/chewxy/math32"
)

// A Mismatch records a ray for which two raycasters disagree.
type Mismatch struct {
	RayIndex int
	Expected Hit
	Got      Hit
}

// Returns true if both hits refer to the same triangle at the same distance
// within a relative tolerance, or if both are misses.
func SameHit(a, b Hit, tolerance float32) bool {
	if a.Ok() != b.Ok() {
		return false
	}
	if !a.Ok() {
		return true
	}
	if a.Index != b.Index {
		return false
	}
	return math32.Abs(a.T-b.T) <= tolerance*math32.Max(1, math32.Abs(a.T))
}

// Trace rays with both raycasters and collect the rays whose results
// differ. Rays are traced as segments if segment is set.
func Compare(ctx context.Context, reference, candidate Raycaster, rays []Ray, segment bool, tolerance float32) ([]Mismatch, error) {
	var mismatches []Mismatch
	for i, r := range rays {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return mismatches, err
			}
		}

		var exp, got Hit
		if segment {
			exp = reference.RaycastSegment(r.Origin, r.Dir)
			got = candidate.RaycastSegment(r.Origin, r.Dir)
		} else {
			exp = reference.Raycast(r.Origin, r.Dir)
			got = candidate.Raycast(r.Origin, r.Dir)
		}
		if !SameHit(exp, got, tolerance) {
			mismatches = append(mismatches, Mismatch{RayIndex: i, Expected: exp, Got: got})
		}
	}
	return mismatches, nil
}
