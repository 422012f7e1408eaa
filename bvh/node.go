package bvh

import "github.com/achilleasa/bvhtrace/scene"

// Sentinel child handle for nodes without children.
const NoChild int32 = -1

// A Node covers the triangle index range [Start, End) of the hierarchy
// permutation. Interior nodes address their children by arena handle; leaves
// set both handles to NoChild.
type Node struct {
	BBox scene.AABB

	Start uint32
	End   uint32

	Left  int32
	Right int32
}

// Returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == NoChild && n.Right == NoChild
}

// Get the number of triangles covered by the node.
func (n *Node) Count() int {
	return int(n.End - n.Start)
}
