package mesh

import "github.com/achilleasa/bvhtrace/scene"

// A Mesh is a flat list of triangles loaded from an asset.
type Mesh struct {
	Name      string
	Triangles []scene.Triangle

	// Material names referenced by the triangles. Triangle.MaterialIndex
	// indexes this list.
	Materials []string
}

// Calculate the bounding box enclosing all mesh triangles.
func (m *Mesh) Bounds() scene.AABB {
	bounds := scene.EmptyAABB()
	for i := range m.Triangles {
		bounds = bounds.Union(m.Triangles[i].BBox())
	}
	return bounds
}

// Get the index of a named material, registering it if needed.
func (m *Mesh) materialIndex(name string) int {
	for index, matName := range m.Materials {
		if matName == name {
			return index
		}
	}
	m.Materials = append(m.Materials, name)
	return len(m.Materials) - 1
}
