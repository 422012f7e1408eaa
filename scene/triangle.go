package scene

import (
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// Determinants smaller than this indicate a ray parallel to the triangle
// plane or a degenerate triangle.
const parallelEpsilon float32 = 1e-12

// A triangle vertex.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
	UV       types.Vec2
}

// A triangle primitive. Triangles are immutable once the mesh is loaded.
type Triangle struct {
	Vertices [3]Vertex

	// Index into the material list of the mesh that owns this triangle.
	MaterialIndex int
}

// Create a triangle from three positions. All vertex normals are set to the
// face normal.
func NewTriangle(p0, p1, p2 types.Vec3) Triangle {
	tri := Triangle{
		Vertices: [3]Vertex{
			{Position: p0},
			{Position: p1},
			{Position: p2},
		},
	}
	n := tri.Normal()
	for i := range tri.Vertices {
		tri.Vertices[i].Normal = n
	}
	return tri
}

// Get the min corner of the triangle bbox.
func (tri *Triangle) Min() types.Vec3 {
	return types.MinVec3(tri.Vertices[0].Position, types.MinVec3(tri.Vertices[1].Position, tri.Vertices[2].Position))
}

// Get the max corner of the triangle bbox.
func (tri *Triangle) Max() types.Vec3 {
	return types.MaxVec3(tri.Vertices[0].Position, types.MaxVec3(tri.Vertices[1].Position, tri.Vertices[2].Position))
}

// Get the triangle bbox.
func (tri *Triangle) BBox() AABB {
	return AABB{Min: tri.Min(), Max: tri.Max()}
}

// Get the triangle centroid (average of its vertices).
func (tri *Triangle) Centroid() types.Vec3 {
	return tri.Vertices[0].Position.Add(tri.Vertices[1].Position).Add(tri.Vertices[2].Position).Mul(1.0 / 3.0)
}

// Calculate the triangle area: 0.5 * |e1 x e2|.
func (tri *Triangle) Area() float32 {
	e1 := tri.Vertices[1].Position.Sub(tri.Vertices[0].Position)
	e2 := tri.Vertices[2].Position.Sub(tri.Vertices[0].Position)
	return 0.5 * e1.Cross(e2).Len()
}

// Get the unit face normal. Degenerate triangles return a zero vector.
func (tri *Triangle) Normal() types.Vec3 {
	e1 := tri.Vertices[1].Position.Sub(tri.Vertices[0].Position)
	e2 := tri.Vertices[2].Position.Sub(tri.Vertices[0].Position)
	return e1.Cross(e2).Normalize()
}

// Interpolate the vertex texture coordinates at barycentric coords (u, v).
func (tri *Triangle) TexCoord(u, v float32) types.Vec2 {
	w := 1 - u - v
	return tri.Vertices[0].UV.Mul(w).Add(tri.Vertices[1].UV.Mul(u)).Add(tri.Vertices[2].UV.Mul(v))
}

// Interpolate the vertex normals at barycentric coords (u, v).
func (tri *Triangle) ShadingNormal(u, v float32) types.Vec3 {
	w := 1 - u - v
	return tri.Vertices[0].Normal.Mul(w).Add(tri.Vertices[1].Normal.Mul(u)).Add(tri.Vertices[2].Normal.Mul(v)).Normalize()
}

// Intersect a ray with the triangle using the Möller-Trumbore algorithm.
//
// On a hit, t is expressed in multiples of dir and (u, v) are the
// barycentric coordinates such that p = (1-u-v)*v0 + u*v1 + v*v2. Points on
// the triangle edges count as hits. Rays parallel to the triangle plane,
// degenerate triangles and hits with t <= 0 are rejected.
func (tri *Triangle) Intersect(origin, dir types.Vec3) (t, u, v float32, ok bool) {
	v0 := tri.Vertices[0].Position
	e1 := tri.Vertices[1].Position.Sub(v0)
	e2 := tri.Vertices[2].Position.Sub(v0)

	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math32.Abs(det) < parallelEpsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := origin.Sub(v0)
	u = s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	if !(t > 0) {
		return 0, 0, 0, false
	}

	return t, u, v, true
}
