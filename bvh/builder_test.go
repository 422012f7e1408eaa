package bvh

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/pkg/errors"
)

func randomMesh(seed int64, count int) []scene.Triangle {
	rng := rand.New(rand.NewSource(seed))
	rnd := func(scale float32) float32 {
		return (rng.Float32()*2 - 1) * scale
	}

	triangles := make([]scene.Triangle, count)
	for i := range triangles {
		c := types.XYZ(rnd(10), rnd(10), rnd(10))
		triangles[i] = scene.NewTriangle(
			c.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
			c.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
			c.Add(types.XYZ(rnd(1), rnd(1), rnd(1))),
		)
	}
	return triangles
}

// Create a small triangle whose vertex average is c.
func triangleAt(c types.Vec3) scene.Triangle {
	return scene.NewTriangle(
		c.Add(types.XYZ(-0.1, -0.1, 0)),
		c.Add(types.XYZ(0.1, -0.1, 0)),
		c.Add(types.XYZ(0, 0.2, 0)),
	)
}

func TestBuildErrors(t *testing.T) {
	mesh := randomMesh(1, 8)

	type spec struct {
		triangles []scene.Triangle
		opts      Options
		expErr    error
	}
	specs := []spec{
		{nil, Options{}, ErrEmptyMesh},
		{[]scene.Triangle{}, Options{SplitMode: SurfaceAreaHeuristic}, ErrEmptyMesh},
		{mesh, Options{LeafThreshold: -1}, ErrInvalidLeafThreshold},
		{mesh, Options{SplitMode: SplitMode(7)}, ErrUnknownSplitMode},
	}

	for index, s := range specs {
		h, err := Build(s.triangles, s.opts)
		if !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
		if h != nil {
			t.Fatalf("[spec %d] expected no hierarchy to be returned on error", index)
		}
	}
}

func TestBuilderConsumed(t *testing.T) {
	b, err := NewBuilder(randomMesh(2, 16), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err = b.Build(); err != nil {
		t.Fatal(err)
	}
	if _, err = b.Build(); err != ErrBuilderConsumed {
		t.Fatalf("expected ErrBuilderConsumed; got %v", err)
	}
}

func TestLeafThresholdDefaults(t *testing.T) {
	specs := []struct {
		opts         Options
		expThreshold int
	}{
		{Options{SplitMode: MedianSplit}, 6},
		{Options{SplitMode: SurfaceAreaHeuristic}, 2},
		{Options{SplitMode: MedianSplit, LeafThreshold: 3}, 3},
		{Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 1}, 1},
	}

	for index, s := range specs {
		h, err := Build(randomMesh(3, 32), s.opts)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if got := h.Options().LeafThreshold; got != s.expThreshold {
			t.Fatalf("[spec %d] expected leaf threshold %d; got %d", index, s.expThreshold, got)
		}
	}
}

func TestParseSplitMode(t *testing.T) {
	specs := []struct {
		name    string
		expMode SplitMode
		expErr  bool
	}{
		{"median", MedianSplit, false},
		{"SAH", SurfaceAreaHeuristic, false},
		{"octree", 0, true},
	}

	for index, s := range specs {
		mode, err := ParseSplitMode(s.name)
		if s.expErr {
			if !errors.Is(err, ErrUnknownSplitMode) {
				t.Fatalf("[spec %d] expected ErrUnknownSplitMode; got %v", index, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if mode != s.expMode {
			t.Fatalf("[spec %d] expected mode %s; got %s", index, s.expMode, mode)
		}
		if mode.String() != map[SplitMode]string{MedianSplit: "median", SurfaceAreaHeuristic: "sah"}[mode] {
			t.Fatalf("[spec %d] unexpected mode name %q", index, mode.String())
		}
	}
}

func TestBuildInvariants(t *testing.T) {
	mesh := randomMesh(42, 500)

	for _, mode := range []SplitMode{MedianSplit, SurfaceAreaHeuristic} {
		for _, threshold := range []int{0, 1, 4} {
			h, err := Build(mesh, Options{SplitMode: mode, LeafThreshold: threshold})
			if err != nil {
				t.Fatalf("[%s/%d] %v", mode, threshold, err)
			}
			if err = h.Validate(len(mesh)); err != nil {
				t.Fatalf("[%s/%d] expected index permutation to be a bijection: %v", mode, threshold, err)
			}
			checkTree(t, h, mesh)
		}
	}
}

// Walk the tree and check that every node box is tight and every leaf
// respects the leaf threshold.
func checkTree(t *testing.T, h *Hierarchy, mesh []scene.Triangle) {
	t.Helper()

	threshold := h.Options().LeafThreshold
	visited := 0
	stack := []int32{h.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		node := h.Node(id)

		if node.IsLeaf() {
			if node.Count() < 1 || node.Count() > threshold {
				t.Fatalf("leaf %d holds %d triangles; threshold is %d", id, node.Count(), threshold)
			}
			expBox := scene.EmptyAABB()
			for slot := node.Start; slot < node.End; slot++ {
				tri := mesh[h.Index(slot)]
				expBox = expBox.Union(tri.BBox())
			}
			if node.BBox != expBox {
				t.Fatalf("leaf %d box %+v is not the union of its triangle boxes %+v", id, node.BBox, expBox)
			}
			continue
		}

		left, right := h.Node(node.Left), h.Node(node.Right)
		if expBox := left.BBox.Union(right.BBox); node.BBox != expBox {
			t.Fatalf("node %d box %+v is not the union of its children %+v", id, node.BBox, expBox)
		}
		stack = append(stack, node.Left, node.Right)
	}

	if visited != h.NodeCount() {
		t.Fatalf("expected all %d nodes to be reachable from the root; visited %d", h.NodeCount(), visited)
	}
}

func TestBuildLeafCount(t *testing.T) {
	mesh := []scene.Triangle{
		triangleAt(types.XYZ(-1.5, 0.5, -1.5)),
		triangleAt(types.XYZ(1.5, 0.5, -1.5)),
		triangleAt(types.XYZ(-1.5, 0.5, 1.5)),
		triangleAt(types.XYZ(1.5, 0.5, 1.5)),
	}

	type spec struct {
		opts        Options
		expLeafs    int
		expNodes    int
		expLeafSize int
	}
	specs := []spec{
		{Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 1}, 4, 7, 1},
		{Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 2}, 2, 3, 2},
		{Options{SplitMode: MedianSplit, LeafThreshold: 1}, 4, 7, 1},
		{Options{SplitMode: MedianSplit, LeafThreshold: 2}, 2, 3, 2},
		{Options{SplitMode: MedianSplit}, 1, 1, 4},
	}

	for index, s := range specs {
		h, err := Build(mesh, s.opts)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if h.NodeCount() != s.expNodes {
			t.Fatalf("[spec %d] expected bvh tree to have %d nodes; got %d", index, s.expNodes, h.NodeCount())
		}

		leafs := 0
		for id := 0; id < h.NodeCount(); id++ {
			node := h.Node(int32(id))
			if !node.IsLeaf() {
				continue
			}
			leafs++
			if node.Count() != s.expLeafSize {
				t.Fatalf("[spec %d] expected leaf to hold %d triangles; got %d", index, s.expLeafSize, node.Count())
			}
		}
		if leafs != s.expLeafs {
			t.Fatalf("[spec %d] expected %d leafs; got %d", index, s.expLeafs, leafs)
		}
	}
}

func TestSAHSplitsBetweenClusters(t *testing.T) {
	mesh := []scene.Triangle{
		triangleAt(types.XYZ(0, 0, 0)),
		triangleAt(types.XYZ(0.5, 1, 1)),
		triangleAt(types.XYZ(100, 0, 0)),
		triangleAt(types.XYZ(100.5, 1, 0)),
		triangleAt(types.XYZ(101, 0, 1)),
		triangleAt(types.XYZ(101.5, 1, 1)),
		triangleAt(types.XYZ(102, 0.5, 0.5)),
		triangleAt(types.XYZ(102.5, 0, 1)),
	}

	specs := []struct {
		mode       SplitMode
		expLeftEnd uint32
	}{
		{SurfaceAreaHeuristic, 2},
		{MedianSplit, 4},
	}

	for index, s := range specs {
		h, err := Build(mesh, Options{SplitMode: s.mode, LeafThreshold: 1})
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		root := h.Node(h.Root())
		left := h.Node(root.Left)
		if left.Start != 0 || left.End != s.expLeftEnd {
			t.Fatalf("[spec %d] expected left child of root to cover [0, %d); got [%d, %d)", index, s.expLeftEnd, left.Start, left.End)
		}
		for slot := left.Start; slot < left.End; slot++ {
			if got := h.Index(slot); got >= s.expLeftEnd {
				t.Fatalf("[spec %d] expected left child to contain triangles sorted along x; found triangle %d", index, got)
			}
		}
	}
}

func TestSAHCollinearCentroidsFallBackToMedian(t *testing.T) {
	mesh := []scene.Triangle{
		triangleAt(types.XYZ(0, 0, 0)),
		triangleAt(types.XYZ(1, 0, 0)),
		triangleAt(types.XYZ(5, 0, 0)),
		triangleAt(types.XYZ(30, 0, 0)),
		triangleAt(types.XYZ(31, 0, 0)),
	}

	h, err := Build(mesh, Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 1})
	if err != nil {
		t.Fatal(err)
	}
	checkTree(t, h, mesh)

	left := h.Node(h.Node(h.Root()).Left)
	if left.End != 2 {
		t.Fatalf("expected median split at slot 2; got %d", left.End)
	}
}

func TestSAHDeterminism(t *testing.T) {
	mesh := randomMesh(7, 300)

	h1, err := Build(mesh, Options{SplitMode: SurfaceAreaHeuristic})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Build(mesh, Options{SplitMode: SurfaceAreaHeuristic})
	if err != nil {
		t.Fatal(err)
	}

	assertSameHierarchy(t, h1, h2)
}

func assertSameHierarchy(t *testing.T, h1, h2 *Hierarchy) {
	t.Helper()

	if h1.Root() != h2.Root() {
		t.Fatalf("expected root %d; got %d", h1.Root(), h2.Root())
	}
	if h1.Options() != h2.Options() {
		t.Fatalf("expected options %+v; got %+v", h1.Options(), h2.Options())
	}
	if h1.NodeCount() != h2.NodeCount() {
		t.Fatalf("expected %d nodes; got %d", h1.NodeCount(), h2.NodeCount())
	}
	for id := 0; id < h1.NodeCount(); id++ {
		if n1, n2 := h1.Node(int32(id)), h2.Node(int32(id)); n1 != n2 {
			t.Fatalf("node %d differs: %+v vs %+v", id, n1, n2)
		}
	}

	i1, i2 := h1.Indices(), h2.Indices()
	if len(i1) != len(i2) {
		t.Fatalf("expected %d indices; got %d", len(i1), len(i2))
	}
	for slot := range i1 {
		if i1[slot] != i2[slot] {
			t.Fatalf("index permutation differs at slot %d: %d vs %d", slot, i1[slot], i2[slot])
		}
	}
}
