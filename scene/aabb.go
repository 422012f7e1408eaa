package scene

import (
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// Half the float32 machine epsilon (unit roundoff).
const unitRoundoff float32 = 5.960464477539063e-08

// Exit distances are stretched by 1 + 2*gamma(3) so that rounding in the
// slab arithmetic never rejects a ray that touches the box.
var slabExitScale = 1 + 2*gamma(3)

// Calculate the bound on the relative error accumulated by n float32 ops.
func gamma(n int) float32 {
	return float32(n) * unitRoundoff / (1 - float32(n)*unitRoundoff)
}

// AABB is an axis aligned bounding box.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty (inverted) box. It acts as the identity element for Union
// and Extend.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// Create a degenerate box enclosing a single point.
func PointAABB(p types.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// Returns true if the box does not enclose any point.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Calculate the box enclosing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// Grow the box so it encloses p.
func (b AABB) Extend(p types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, p),
		Max: types.MaxVec3(b.Max, p),
	}
}

// Get the box side lengths.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Calculate the box surface area: 2 * (dx*dy + dy*dz + dz*dx). Empty boxes
// have zero area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Extent()
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Get the axis with the largest extent. Ties favor y over x and z over
// both.
func (b AABB) LongestAxis() int {
	d := b.Extent()
	switch {
	case d[0] > d[1] && d[0] > d[2]:
		return 0
	case d[1] > d[2]:
		return 1
	}
	return 2
}

// Returns true if other lies entirely inside b.
func (b AABB) Contains(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Select the min (0) or max (1) corner.
func (b *AABB) corner(index int) *types.Vec3 {
	if index == 0 {
		return &b.Min
	}
	return &b.Max
}

// Test whether the ray intersects the box using the slab method.
//
// The ray sign flags select the entry plane for each axis. An axis whose
// slab distances evaluate to NaN (the ray is parallel to the axis and its
// origin lies on one of the planes) does not constrain the interval.
func (b *AABB) Intersect(r *Ray) bool {
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		near := b.corner(r.Sign[axis])[axis]
		far := b.corner(1 - r.Sign[axis])[axis]

		t0 := (near - r.Origin[axis]) * r.InvDir[axis]
		t1 := (far - r.Origin[axis]) * r.InvDir[axis] * slabExitScale

		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
	}

	return tmin <= tmax && tmax >= 0
}
