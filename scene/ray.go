package scene

import (
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// A Ray caches the per-ray data needed by the box and triangle tests.
type Ray struct {
	// Origin and direction as supplied by the caller. Dir is not
	// normalized; hit distances are expressed in multiples of it.
	Origin types.Vec3
	Dir    types.Vec3

	// Normalized direction, its elementwise reciprocal and the per-axis
	// sign flags (1 if the direction component is negative, including -0).
	NormDir types.Vec3
	InvDir  types.Vec3
	Sign    [3]int
}

// Create a ray and precompute its reciprocal direction and sign flags.
func NewRay(origin, dir types.Vec3) Ray {
	r := Ray{
		Origin:  origin,
		Dir:     dir,
		NormDir: dir.Normalize(),
	}
	r.InvDir = r.NormDir.Recip()
	for axis := 0; axis < 3; axis++ {
		if math32.Signbit(r.NormDir[axis]) {
			r.Sign[axis] = 1
		}
	}
	return r
}

// Returns true if the ray direction is the zero vector.
func (r *Ray) IsDegenerate() bool {
	return r.Dir == types.Vec3{}
}

// Get the point at distance t along the caller supplied direction.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
