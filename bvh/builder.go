package bvh

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/chewxy/math32"
)

type buildStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

// A Builder partitions a triangle list into a hierarchy. A builder can only
// be used once; Build hands its index permutation and node arena over to
// the returned Hierarchy.
type Builder struct {
	logger log.Logger

	opts Options

	// Per-triangle bounds and centroids, indexed by triangle index.
	boxes     []scene.AABB
	centroids []types.Vec3

	// The index permutation. Node ranges refer to slots of this slice.
	indices []uint32

	// Bvh nodes stored as a contiguous list
	nodes []Node

	// Scratch buffers for the SAH prefix and suffix area sweeps.
	leftAreas  []float32
	rightAreas []float32

	consumed bool

	stats buildStats
}

// Create a builder for the given triangle list.
func NewBuilder(triangles []scene.Triangle, opts Options) (*Builder, error) {
	if len(triangles) == 0 {
		return nil, ErrEmptyMesh
	}
	if uint64(len(triangles)) > math.MaxUint32 {
		return nil, ErrIndexOutOfRange
	}

	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	b := &Builder{
		logger:    log.New("bvh builder"),
		opts:      opts,
		boxes:     make([]scene.AABB, len(triangles)),
		centroids: make([]types.Vec3, len(triangles)),
		indices:   make([]uint32, len(triangles)),
		nodes:     make([]Node, 0, 2*len(triangles)/opts.LeafThreshold+1),
	}

	for i := range triangles {
		b.boxes[i] = triangles[i].BBox()
		b.centroids[i] = triangles[i].Centroid()
		b.indices[i] = uint32(i)
	}

	return b, nil
}

// Build the hierarchy. Subsequent calls return ErrBuilderConsumed.
func (b *Builder) Build() (*Hierarchy, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	start := time.Now()
	root := b.partition(0, uint32(len(b.indices)), 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, mode: %s, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.opts.SplitMode, b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	h := &Hierarchy{
		nodes:   b.nodes,
		indices: b.indices,
		opts:    b.opts,
	}
	h.setRoot(root)

	b.nodes = nil
	b.indices = nil
	b.boxes = nil
	b.centroids = nil
	b.leftAreas = nil
	b.rightAreas = nil

	return h, nil
}

// Build a hierarchy over triangles in one step.
func Build(triangles []scene.Triangle, opts Options) (*Hierarchy, error) {
	b, err := NewBuilder(triangles, opts)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Partition the index range [start, end) and return the node handle.
func (b *Builder) partition(start, end uint32, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	// Nodes are appended before their children so the arena is in pre-order.
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Start: start,
		End:   end,
		Left:  NoChild,
		Right: NoChild,
	})
	b.stats.nodes++

	if int(end-start) <= b.opts.LeafThreshold {
		return b.createLeaf(nodeIndex)
	}

	// Order the range along the longest axis of the centroid bounds
	centroidBox := scene.EmptyAABB()
	for _, index := range b.indices[start:end] {
		centroidBox = centroidBox.Extend(b.centroids[index])
	}
	axis := centroidBox.LongestAxis()
	slices.SortStableFunc(b.indices[start:end], func(i, j uint32) int {
		return cmp.Compare(b.centroids[i][axis], b.centroids[j][axis])
	})

	var mid uint32
	switch b.opts.SplitMode {
	case SurfaceAreaHeuristic:
		mid = b.sahSplit(start, end)
	default:
		mid = medianSplit(start, end)
	}

	left := b.partition(start, mid, depth+1)
	right := b.partition(mid, end, depth+1)

	node := &b.nodes[nodeIndex]
	node.Left = left
	node.Right = right
	node.BBox = b.nodes[left].BBox.Union(b.nodes[right].BBox)
	return nodeIndex
}

// Setup the node as a leaf whose box encloses all triangles in its range.
func (b *Builder) createLeaf(nodeIndex int32) int32 {
	node := &b.nodes[nodeIndex]
	node.BBox = scene.EmptyAABB()
	for _, index := range b.indices[node.Start:node.End] {
		node.BBox = node.BBox.Union(b.boxes[index])
	}
	b.stats.leafs++
	return nodeIndex
}

func medianSplit(start, end uint32) uint32 {
	return start + (end-start)/2
}

// Select the split position in a range already sorted along the split axis.
// Each candidate i is scored as
//
//	(leftArea(i) * (i - start) + rightArea(i) * (end - i)) / totalArea
//
// where the areas are those of the centroid bounds on either side of i. The
// first candidate with the lowest cost wins. Ranges whose centroid bounds
// have no area (all centroids collinear) are split at the median.
func (b *Builder) sahSplit(start, end uint32) uint32 {
	count := int(end - start)
	if cap(b.leftAreas) < count {
		b.leftAreas = make([]float32, count)
		b.rightAreas = make([]float32, count)
	}
	leftAreas := b.leftAreas[:count]
	rightAreas := b.rightAreas[:count]
	items := b.indices[start:end]

	// leftAreas[k] covers items[0:k+1]; rightAreas[k] covers items[k:]
	box := scene.EmptyAABB()
	for k, index := range items {
		box = box.Extend(b.centroids[index])
		leftAreas[k] = box.SurfaceArea()
	}
	box = scene.EmptyAABB()
	for k := count - 1; k >= 0; k-- {
		box = box.Extend(b.centroids[items[k]])
		rightAreas[k] = box.SurfaceArea()
	}

	totalArea := rightAreas[0]
	if totalArea == 0 {
		return medianSplit(start, end)
	}

	bestMid := start + 1
	bestCost := math32.Inf(1)
	for k := 1; k < count; k++ {
		cost := (leftAreas[k-1]*float32(k) + rightAreas[k]*float32(count-k)) / totalArea
		if cost < bestCost {
			bestCost = cost
			bestMid = start + uint32(k)
		}
	}
	return bestMid
}
