package dashboard

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// Node is a positioned vertex of the regulatory interconnection graph.
type Node struct {
	ID    string  `json:"id"`
	Group int     `json:"group"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Link joins two nodes; Width is the stroke width derived from Value.
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  int     `json:"value"`
	Width  float64 `json:"width"`
}

type Network struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Links  []Link  `json:"links"`
}

const (
	DefaultNetworkWidth  = 400
	DefaultNetworkHeight = 300
	networkPadding       = 24
	layoutSeed           = 1
)

// orderedGraph walks nodes and neighbours in ID order. Together with a seeded
// source this makes the layout repeat exactly; the plain graph iterates a map.
type orderedGraph struct {
	*simple.UndirectedGraph
}

func byID(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return iterator.NewOrderedNodes(nodes)
}

func (g orderedGraph) Nodes() graph.Nodes { return byID(g.UndirectedGraph.Nodes()) }

func (g orderedGraph) From(id int64) graph.Nodes { return byID(g.UndirectedGraph.From(id)) }

func harmonizationGraph() ([]Node, []Link) {
	nodes := []Node{
		{ID: "Global Harmonization", Group: 1},
		{ID: "FDA (USA)", Group: 2},
		{ID: "MDR (EU)", Group: 2},
		{ID: "NMPA (China)", Group: 2},
		{ID: "ISO 13485", Group: 3},
		{ID: "AI Act", Group: 3},
		{ID: "IMDRF", Group: 1},
	}
	links := []Link{
		{Source: "FDA (USA)", Target: "Global Harmonization", Value: 5},
		{Source: "MDR (EU)", Target: "Global Harmonization", Value: 5},
		{Source: "ISO 13485", Target: "FDA (USA)", Value: 8},
		{Source: "AI Act", Target: "MDR (EU)", Value: 8},
		{Source: "IMDRF", Target: "Global Harmonization", Value: 10},
		{Source: "NMPA (China)", Target: "Global Harmonization", Value: 3},
	}
	return nodes, links
}

func groupColor(group int) string {
	switch group {
	case 1:
		return "#ff0000"
	case 2:
		return "#00ff00"
	default:
		return "#0000ff"
	}
}

// LayoutNetwork runs a seeded Eades force-directed layout over the
// harmonization graph and fits the result into a width x height viewport.
// Non-positive sizes fall back to the defaults. Equal sizes give equal output.
func LayoutNetwork(width, height float64) Network {
	if width <= 0 {
		width = DefaultNetworkWidth
	}
	if height <= 0 {
		height = DefaultNetworkHeight
	}
	nodes, links := harmonizationGraph()

	index := make(map[string]int64, len(nodes))
	g := simple.NewUndirectedGraph()
	for i, n := range nodes {
		index[n.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for i, l := range links {
		g.SetEdge(g.NewEdge(simple.Node(index[l.Source]), simple.Node(index[l.Target])))
		links[i].Width = math.Sqrt(float64(l.Value))
	}

	eades := layout.EadesR2{
		Repulsion: 1,
		Rate:      0.05,
		Updates:   120,
		Theta:     0.2,
		Src:       rand.NewPCG(layoutSeed, layoutSeed),
	}
	opt := layout.NewOptimizerR2(orderedGraph{g}, eades.Update)
	for opt.Update() {
	}

	raw := make([]r2.Vec, len(nodes))
	for i := range nodes {
		raw[i] = opt.Coord2(int64(i))
	}
	fitted := fit(raw, width, height, networkPadding)
	for i := range nodes {
		nodes[i].Color = groupColor(nodes[i].Group)
		nodes[i].X = fitted[i].X
		nodes[i].Y = fitted[i].Y
	}
	return Network{Width: width, Height: height, Nodes: nodes, Links: links}
}

// fit scales points uniformly into the padded viewport and centres them.
func fit(pts []r2.Vec, width, height, pad float64) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	if len(pts) == 0 {
		return out
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	if pad*2 >= width || pad*2 >= height {
		pad = 0
	}
	spanX, spanY := hi.X-lo.X, hi.Y-lo.Y
	scale := math.Inf(1)
	if spanX > 0 {
		scale = (width - 2*pad) / spanX
	}
	if spanY > 0 {
		scale = math.Min(scale, (height-2*pad)/spanY)
	}
	if math.IsInf(scale, 1) {
		scale = 0
	}
	mid := r2.Vec{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
	centre := r2.Vec{X: width / 2, Y: height / 2}
	for i, p := range pts {
		out[i] = r2.Add(centre, r2.Scale(scale, r2.Sub(p, mid)))
	}
	return out
}
