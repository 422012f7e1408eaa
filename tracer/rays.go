package tracer

import (
	"math/rand"

	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
)

// Generate count rays whose origins are uniformly distributed inside the
// given bounds grown by half their extent on each side. Each ray points
// towards a random point inside the bounds so most rays cross the mesh. The
// same rng state always yields the same rays. A non-positive count yields
// no rays.
func RandomRays(rng *rand.Rand, bounds scene.AABB, count int) []Ray {
	if count <= 0 {
		return nil
	}

	extent := bounds.Extent()
	outer := scene.AABB{
		Min: bounds.Min.Sub(extent.Mul(0.5)),
		Max: bounds.Max.Add(extent.Mul(0.5)),
	}

	rays := make([]Ray, count)
	for i := range rays {
		origin := randomPoint(rng, outer)
		target := randomPoint(rng, bounds)
		dir := target.Sub(origin)
		if dir == (types.Vec3{}) {
			dir = types.XYZ(0, 0, -1)
		}
		rays[i] = Ray{Origin: origin, Dir: dir}
	}
	return rays
}

func randomPoint(rng *rand.Rand, b scene.AABB) types.Vec3 {
	extent := b.Extent()
	return types.XYZ(
		b.Min[0]+rng.Float32()*extent[0],
		b.Min[1]+rng.Float32()*extent[1],
		b.Min[2]+rng.Float32()*extent[2],
	)
}
