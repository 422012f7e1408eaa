package bvh

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/pkg/errors"
)

var magic = [4]byte{'B', 'V', 'H', 0x01}

// Upper bound on slice capacity reserved from header counts.
const maxPrealloc = 1 << 16

const (
	flagLeft uint8 = 1 << iota
	flagRight
)

// Stream layout (little endian):
//
//	header
//	nodes in pre-order (NodeCount entries)
//	index permutation (TriangleCount uint32 values)
type streamHeader struct {
	Magic         [4]byte
	SplitMode     uint8
	_             [3]byte
	LeafThreshold uint32
	NodeCount     uint32
	TriangleCount uint32
}

type streamNode struct {
	Min   [3]float32
	Max   [3]float32
	Start uint32
	End   uint32
	Flags uint8
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Serialize the hierarchy to w. The stream can only be read back by
// ReadHierarchy from the same build of this package.
func (h *Hierarchy) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	hdr := streamHeader{
		Magic:         magic,
		SplitMode:     uint8(h.opts.SplitMode),
		LeafThreshold: uint32(h.opts.LeafThreshold),
		NodeCount:     uint32(len(h.nodes)),
		TriangleCount: uint32(len(h.indices)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return cw.n, errors.Wrap(err, "bvh: write header")
	}

	// Emit nodes in pre-order; right children are pushed first so that
	// left subtrees are written before right ones.
	stack := []int32{h.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &h.nodes[id]

		out := streamNode{
			Min:   node.BBox.Min,
			Max:   node.BBox.Max,
			Start: node.Start,
			End:   node.End,
		}
		if node.Left != NoChild {
			out.Flags |= flagLeft
		}
		if node.Right != NoChild {
			out.Flags |= flagRight
			stack = append(stack, node.Right)
		}
		if node.Left != NoChild {
			stack = append(stack, node.Left)
		}

		if err := binary.Write(bw, binary.LittleEndian, &out); err != nil {
			return cw.n, errors.Wrapf(err, "bvh: write node %d", id)
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, h.indices); err != nil {
		return cw.n, errors.Wrap(err, "bvh: write index permutation")
	}
	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "bvh: flush hierarchy stream")
	}
	return cw.n, nil
}

// Read a hierarchy previously written with WriteTo. The returned hierarchy
// is structurally validated; callers must still validate it against the
// triangle list they intend to trace.
func ReadHierarchy(r io.Reader) (*Hierarchy, error) {
	br := bufio.NewReader(r)

	var hdr streamHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "bvh: read header")
	}
	if hdr.Magic != magic {
		return nil, errors.Wrap(ErrCorruptHierarchy, "bad magic")
	}
	if hdr.TriangleCount == 0 || hdr.NodeCount == 0 || uint64(hdr.NodeCount) > 2*uint64(hdr.TriangleCount) {
		return nil, errors.Wrapf(ErrCorruptHierarchy, "implausible node count %d for %d triangles", hdr.NodeCount, hdr.TriangleCount)
	}

	opts, err := Options{
		SplitMode:     SplitMode(hdr.SplitMode),
		LeafThreshold: int(hdr.LeafThreshold),
	}.normalize()
	if err != nil {
		return nil, errors.Wrap(ErrCorruptHierarchy, err.Error())
	}

	h := &Hierarchy{
		nodes: make([]Node, 0, min(hdr.NodeCount, maxPrealloc)),
		opts:  opts,
	}
	if err := h.readNodes(br, hdr.NodeCount); err != nil {
		return nil, err
	}

	// The header counts are untrusted so the permutation is read in chunks
	// and only grows as data actually arrives.
	h.indices = make([]uint32, 0, min(hdr.TriangleCount, maxPrealloc))
	chunk := make([]uint32, min(hdr.TriangleCount, maxPrealloc))
	for remaining := hdr.TriangleCount; remaining > 0; {
		n := min(remaining, uint32(len(chunk)))
		if err := binary.Read(br, binary.LittleEndian, chunk[:n]); err != nil {
			return nil, errors.Wrap(err, "bvh: read index permutation")
		}
		h.indices = append(h.indices, chunk[:n]...)
		remaining -= n
	}

	if err := h.Validate(int(hdr.TriangleCount)); err != nil {
		return nil, err
	}
	return h, nil
}

// Read the pre-order node list into the arena. Nodes waiting for a child
// are tracked on an explicit stack so that the stream depth cannot
// exhaust the goroutine stack.
func (h *Hierarchy) readNodes(r io.Reader, nodeCount uint32) error {
	type pendingChild struct {
		parent int32
		right  bool
	}
	pending := []pendingChild{{parent: NoChild}}

	for len(pending) > 0 {
		slot := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if len(h.nodes) >= int(nodeCount) {
			return errors.Wrap(ErrCorruptHierarchy, "node count exceeded")
		}

		var in streamNode
		if err := binary.Read(r, binary.LittleEndian, &in); err != nil {
			return errors.Wrapf(err, "bvh: read node %d", len(h.nodes))
		}

		id := int32(len(h.nodes))
		h.nodes = append(h.nodes, Node{
			BBox:  scene.AABB{Min: types.Vec3(in.Min), Max: types.Vec3(in.Max)},
			Start: in.Start,
			End:   in.End,
			Left:  NoChild,
			Right: NoChild,
		})

		switch {
		case slot.parent == NoChild:
			h.setRoot(id)
		case slot.right:
			h.nodes[slot.parent].Right = id
		default:
			h.nodes[slot.parent].Left = id
		}

		switch in.Flags {
		case 0:
		case flagLeft | flagRight:
			pending = append(pending, pendingChild{id, true}, pendingChild{id, false})
		default:
			return errors.Wrapf(ErrCorruptHierarchy, "node %d has a single child", id)
		}
	}

	if len(h.nodes) != int(nodeCount) {
		return errors.Wrapf(ErrCorruptHierarchy, "expected %d nodes; read %d", nodeCount, len(h.nodes))
	}
	return nil
}
