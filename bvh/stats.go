package bvh

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/olekukonko/tablewriter"
)

// Relative costs used when estimating the SAH cost of a whole tree.
const (
	traversalCost    float32 = 1
	intersectionCost float32 = 1
)

// Stats summarize the shape of a hierarchy.
type Stats struct {
	SplitMode     SplitMode
	LeafThreshold int

	Triangles int
	Nodes     int
	Leafs     int
	MaxDepth  int

	MinLeafSize int
	MaxLeafSize int
	AvgLeafSize float32

	// Expected cost of tracing a ray that hits the root box.
	SAHCost float32

	// Memory used by the node arena and the index permutation.
	NodeBytes  int
	IndexBytes int
}

// Collect hierarchy statistics.
func (h *Hierarchy) Stats() Stats {
	st := Stats{
		SplitMode:     h.opts.SplitMode,
		LeafThreshold: h.opts.LeafThreshold,
		Triangles:     len(h.indices),
		Nodes:         len(h.nodes),
		NodeBytes:     byteSize(h.nodes),
		IndexBytes:    byteSize(h.indices),
	}
	if len(h.nodes) == 0 {
		return st
	}

	rootArea := h.nodes[h.root].BBox.SurfaceArea()

	type entry struct {
		id    int32
		depth int
	}
	leafItems := 0
	stack := []entry{{h.root, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &h.nodes[e.id]

		if e.depth > st.MaxDepth {
			st.MaxDepth = e.depth
		}

		var areaRatio float32 = 1
		if rootArea > 0 {
			areaRatio = node.BBox.SurfaceArea() / rootArea
		}

		if !node.IsLeaf() {
			st.SAHCost += traversalCost * areaRatio
			stack = append(stack, entry{node.Right, e.depth + 1}, entry{node.Left, e.depth + 1})
			continue
		}

		count := node.Count()
		st.Leafs++
		leafItems += count
		st.SAHCost += intersectionCost * float32(count) * areaRatio
		if st.MinLeafSize == 0 || count < st.MinLeafSize {
			st.MinLeafSize = count
		}
		if count > st.MaxLeafSize {
			st.MaxLeafSize = count
		}
	}
	if st.Leafs > 0 {
		st.AvgLeafSize = float32(leafItems) / float32(st.Leafs)
	}

	return st
}

// Build a tabular representation of the statistics.
func (st Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Split mode", st.SplitMode.String()})
	table.Append([]string{"Leaf threshold", fmt.Sprint(st.LeafThreshold)})
	table.Append([]string{"Triangles", fmt.Sprint(st.Triangles)})
	table.Append([]string{" ", " "})
	table.Append([]string{"Nodes", fmt.Sprint(st.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprint(st.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprint(st.MaxDepth)})
	table.Append([]string{"Leaf size (min/avg/max)", fmt.Sprintf("%d / %.2f / %d", st.MinLeafSize, st.AvgLeafSize, st.MaxLeafSize)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.3f", st.SAHCost)})
	table.Append([]string{" ", " "})
	table.Append([]string{"Nodes size", fmtSize(st.NodeBytes)})
	table.Append([]string{"Indices size", fmtSize(st.IndexBytes)})
	table.SetFooter([]string{"Total size", fmtSize(st.NodeBytes + st.IndexBytes)})

	table.Render()
	return buf.String()
}

// Get the number of bytes occupied by the elements of a slice.
func byteSize(slice interface{}) int {
	t := reflect.TypeOf(slice)
	v := reflect.ValueOf(slice)
	return int(t.Elem().Size()) * v.Len()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
