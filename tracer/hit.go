package tracer

import (
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// A Hit describes the closest intersection of a ray with the mesh.
type Hit struct {
	// The intersected triangle or nil if the ray missed. The pointer
	// refers into the triangle list the tracer was created with.
	Triangle *scene.Triangle

	// Index of the intersected triangle or -1 for a miss.
	Index int

	// Hit distance in multiples of Dir (+Inf for a miss) and the
	// barycentric coordinates of the hit point.
	T float32
	U float32
	V float32

	// Hit point, calculated as Origin + T * Dir.
	Point types.Vec3

	Origin types.Vec3
	Dir    types.Vec3
}

func missHit(origin, dir types.Vec3) Hit {
	return Hit{
		Index:  -1,
		T:      math32.Inf(1),
		Origin: origin,
		Dir:    dir,
	}
}

// Returns true if the ray intersected a triangle.
func (h *Hit) Ok() bool {
	return h.Triangle != nil
}

// Get the interpolated vertex normal at the hit point.
func (h *Hit) ShadingNormal() types.Vec3 {
	if h.Triangle == nil {
		return types.Vec3{}
	}
	return h.Triangle.ShadingNormal(h.U, h.V)
}

// Get the interpolated texture coordinates at the hit point.
func (h *Hit) TexCoord() types.Vec2 {
	if h.Triangle == nil {
		return types.Vec2{}
	}
	return h.Triangle.TexCoord(h.U, h.V)
}
