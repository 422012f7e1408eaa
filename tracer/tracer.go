package tracer

import (
	"sync/atomic"

	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// Initial capacity of the traversal stack. Balanced trees over a few
// million triangles stay well below this depth; deeper trees grow the
// stack on the heap.
const traversalStackSize = 64

// The Raycaster interface is implemented by all closest-hit query engines.
type Raycaster interface {
	// Find the closest triangle hit by the ray.
	Raycast(origin, dir types.Vec3) Hit

	// Find the closest triangle hit by the segment [origin, origin+dir).
	// Only hits with T < 1 are reported.
	RaycastSegment(origin, dir types.Vec3) Hit
}

// A Tracer answers closest-hit queries by walking a BVH. Tracers are
// read-only and may be queried concurrently from any number of goroutines.
type Tracer struct {
	triangles []scene.Triangle
	bvh       *bvh.Hierarchy

	rayCount atomic.Int64
}

// Create a tracer for a triangle list and the hierarchy built for it. The
// hierarchy is validated against the triangle list.
func New(triangles []scene.Triangle, h *bvh.Hierarchy) (*Tracer, error) {
	if h == nil {
		return nil, ErrNoHierarchy
	}
	if err := h.Validate(len(triangles)); err != nil {
		return nil, err
	}

	return &Tracer{
		triangles: triangles,
		bvh:       h,
	}, nil
}

// Get the hierarchy used by the tracer.
func (tr *Tracer) Hierarchy() *bvh.Hierarchy {
	return tr.bvh
}

// Get the triangle list used by the tracer.
func (tr *Tracer) Triangles() []scene.Triangle {
	return tr.triangles
}

// Get the number of rays traced since the tracer was created or the counter
// was last reset.
func (tr *Tracer) RayCount() int64 {
	return tr.rayCount.Load()
}

// Reset the ray counter.
func (tr *Tracer) ResetRayCounter() {
	tr.rayCount.Store(0)
}

// Find the closest triangle hit by the ray. The direction does not need to
// be normalized; the returned T is expressed in multiples of it.
func (tr *Tracer) Raycast(origin, dir types.Vec3) Hit {
	return tr.trace(origin, dir, math32.Inf(1))
}

// Find the closest triangle hit by the segment from origin to origin+dir.
func (tr *Tracer) RaycastSegment(origin, dir types.Vec3) Hit {
	return tr.trace(origin, dir, 1)
}

// Walk the hierarchy and return the closest hit with T < maxT. Hits at
// equal distance resolve to the lowest triangle index.
func (tr *Tracer) trace(origin, dir types.Vec3, maxT float32) Hit {
	tr.rayCount.Add(1)

	hit := missHit(origin, dir)
	ray := scene.NewRay(origin, dir)
	if ray.IsDegenerate() {
		return hit
	}

	closestT := maxT
	closestIndex := -1
	var closestU, closestV float32

	var buf [traversalStackSize]int32
	stack := append(buf[:0], tr.bvh.Root())
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := tr.bvh.Node(id)
		if !node.BBox.Intersect(&ray) {
			continue
		}

		if !node.IsLeaf() {
			stack = append(stack, node.Right, node.Left)
			continue
		}

		for slot := node.Start; slot < node.End; slot++ {
			index := int(tr.bvh.Index(slot))
			t, u, v, ok := tr.triangles[index].Intersect(origin, dir)
			if !ok || t > closestT {
				continue
			}
			if t == closestT && (closestIndex == -1 || index > closestIndex) {
				continue
			}

			closestT = t
			closestIndex = index
			closestU, closestV = u, v
		}
	}

	if closestIndex == -1 {
		return hit
	}

	hit.Triangle = &tr.triangles[closestIndex]
	hit.Index = closestIndex
	hit.T = closestT
	hit.U = closestU
	hit.V = closestV
	hit.Point = origin.Add(dir.Mul(closestT))
	return hit
}
