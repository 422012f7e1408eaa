package bvh

import "github.com/pkg/errors"

// A Hierarchy is the immutable result of a build: the node arena and the
// triangle index permutation that node ranges refer to. All methods are
// read-only and safe for concurrent use.
type Hierarchy struct {
	nodes   []Node
	indices []uint32
	root    int32
	opts    Options
}

func (h *Hierarchy) setRoot(root int32) {
	h.root = root
}

// Get the handle of the root node.
func (h *Hierarchy) Root() int32 {
	return h.root
}

// Get a node by handle.
func (h *Hierarchy) Node(id int32) Node {
	return h.nodes[id]
}

// Get the number of nodes in the arena.
func (h *Hierarchy) NodeCount() int {
	return len(h.nodes)
}

// Get the number of triangles covered by the hierarchy.
func (h *Hierarchy) TriangleCount() int {
	return len(h.indices)
}

// Get the triangle index stored at slot i of the permutation.
func (h *Hierarchy) Index(i uint32) uint32 {
	return h.indices[i]
}

// Get a copy of the index permutation.
func (h *Hierarchy) Indices() []uint32 {
	out := make([]uint32, len(h.indices))
	copy(out, h.indices)
	return out
}

// Get the options the hierarchy was built with.
func (h *Hierarchy) Options() Options {
	return h.opts
}

// Check that the hierarchy can be used with a list of triangleCount
// triangles. The permutation must be a bijection on [0, triangleCount) and
// every node must cover a non-empty range that its children split exactly
// and a box that encloses the boxes of its children.
func (h *Hierarchy) Validate(triangleCount int) error {
	if len(h.indices) != triangleCount {
		return errors.Wrapf(ErrTriangleCountMismatch, "expected %d triangles; hierarchy covers %d", triangleCount, len(h.indices))
	}

	seen := make([]bool, triangleCount)
	for slot, index := range h.indices {
		if int(index) >= triangleCount {
			return errors.Wrapf(ErrIndexOutOfRange, "slot %d references triangle %d", slot, index)
		}
		if seen[index] {
			return errors.Wrapf(ErrDuplicateIndex, "slot %d references triangle %d", slot, index)
		}
		seen[index] = true
	}

	if len(h.nodes) == 0 || h.root < 0 || int(h.root) >= len(h.nodes) {
		return errors.Wrap(ErrCorruptHierarchy, "missing root node")
	}
	root := &h.nodes[h.root]
	if root.Start != 0 || int(root.End) != len(h.indices) {
		return errors.Wrapf(ErrCorruptHierarchy, "root covers [%d, %d) instead of the full permutation", root.Start, root.End)
	}

	for id := range h.nodes {
		node := &h.nodes[id]
		if node.Start >= node.End || int(node.End) > len(h.indices) {
			return errors.Wrapf(ErrCorruptHierarchy, "node %d has invalid range [%d, %d)", id, node.Start, node.End)
		}
		if node.IsLeaf() {
			continue
		}

		// Children are stored after their parent so following child
		// handles can never loop.
		if node.Left <= int32(id) || node.Right <= int32(id) ||
			int(node.Left) >= len(h.nodes) || int(node.Right) >= len(h.nodes) {
			return errors.Wrapf(ErrCorruptHierarchy, "node %d has invalid children (%d, %d)", id, node.Left, node.Right)
		}
		left, right := &h.nodes[node.Left], &h.nodes[node.Right]
		if left.Start != node.Start || left.End != right.Start || right.End != node.End {
			return errors.Wrapf(ErrCorruptHierarchy, "children of node %d do not split its range", id)
		}
		if !node.BBox.Contains(left.BBox) || !node.BBox.Contains(right.BBox) {
			return errors.Wrapf(ErrCorruptHierarchy, "boxes of the children of node %d escape its bounds", id)
		}
	}

	return nil
}
