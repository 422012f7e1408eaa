package bvh

import (
	"strings"
	"testing"

	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/types"
)

func TestHierarchyStats(t *testing.T) {
	mesh := []scene.Triangle{
		triangleAt(types.XYZ(-1.5, 0.5, -1.5)),
		triangleAt(types.XYZ(1.5, 0.5, -1.5)),
		triangleAt(types.XYZ(-1.5, 0.5, 1.5)),
		triangleAt(types.XYZ(1.5, 0.5, 1.5)),
	}

	h, err := Build(mesh, Options{SplitMode: SurfaceAreaHeuristic, LeafThreshold: 1})
	if err != nil {
		t.Fatal(err)
	}

	st := h.Stats()
	if st.Nodes != 7 || st.Leafs != 4 || st.MaxDepth != 2 {
		t.Fatalf("expected 7 nodes, 4 leafs and depth 2; got %d, %d, %d", st.Nodes, st.Leafs, st.MaxDepth)
	}
	if st.MinLeafSize != 1 || st.MaxLeafSize != 1 || st.AvgLeafSize != 1 {
		t.Fatalf("expected all leafs to hold 1 triangle; got min %d, avg %f, max %d", st.MinLeafSize, st.AvgLeafSize, st.MaxLeafSize)
	}
	if st.SAHCost <= 0 {
		t.Fatalf("expected positive SAH cost; got %f", st.SAHCost)
	}
	if st.IndexBytes != 16 {
		t.Fatalf("expected index permutation to occupy 16 bytes; got %d", st.IndexBytes)
	}

	out := st.String()
	for _, exp := range []string{"sah", "Max depth", "SAH cost"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, out)
		}
	}
}

func TestFmtSize(t *testing.T) {
	specs := []struct {
		in  int
		exp string
	}{
		{12, " 12 bytes"},
		{2500, "2.5 kb"},
		{3500000, "  3.5 mb"},
	}

	for index, s := range specs {
		if got := fmtSize(s.in); got != s.exp {
			t.Fatalf("[spec %d] expected %q; got %q", index, s.exp, got)
		}
	}
}
