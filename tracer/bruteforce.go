package tracer

import (
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

// BruteForce answers closest-hit queries by testing every triangle. It is
// the reference used to verify BVH traversal results.
type BruteForce struct {
	triangles []scene.Triangle
}

// Create a brute force raycaster over a triangle list.
func NewBruteForce(triangles []scene.Triangle) *BruteForce {
	return &BruteForce{triangles: triangles}
}

// Find the closest triangle hit by the ray.
func (bf *BruteForce) Raycast(origin, dir types.Vec3) Hit {
	return bf.trace(origin, dir, math32.Inf(1))
}

// Find the closest triangle hit by the segment from origin to origin+dir.
func (bf *BruteForce) RaycastSegment(origin, dir types.Vec3) Hit {
	return bf.trace(origin, dir, 1)
}

func (bf *BruteForce) trace(origin, dir types.Vec3, maxT float32) Hit {
	hit := missHit(origin, dir)
	closestT := maxT
	for index := range bf.triangles {
		// Strict comparison keeps the lowest index on ties
		t, u, v, ok := bf.triangles[index].Intersect(origin, dir)
		if !ok || t >= closestT {
			continue
		}

		closestT = t
		hit.Triangle = &bf.triangles[index]
		hit.Index = index
		hit.T = t
		hit.U = u
		hit.V = v
	}

	if hit.Triangle != nil {
		hit.Point = origin.Add(dir.Mul(hit.T))
	}
	return hit
}
