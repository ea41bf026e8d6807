package flow

import "fmt"

// Graph is an immutable snapshot of a flow: its nodes and edges in canvas
// order.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Empty returns a graph with no nodes and no edges.
func Empty() Graph {
	return Graph{Nodes: []*Node{}, Edges: []*Edge{}}
}

// Node looks up a node by id.
func (g Graph) Node(id string) (*Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return nil, false
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	return g.nodeIndex(id) >= 0
}

// Edge looks up an edge by id.
func (g Graph) Edge(id string) (*Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// EdgeBetween returns the first edge from source to target, if any.
func (g Graph) EdgeBetween(source, target string) (*Edge, bool) {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return nil, false
}

func (g Graph) nodeIndex(id string) int {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Check verifies the structural invariants of the graph: unique node ids,
// unique edge ids and no dangling edge endpoints.
func (g Graph) Check() error {
	nodes := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n == nil {
			return fmt.Errorf("nil node in graph")
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		nodes[n.ID] = struct{}{}
	}

	edges := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if e == nil {
			return fmt.Errorf("nil edge in graph")
		}
		if _, dup := edges[e.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateEdge, e.ID)
		}
		edges[e.ID] = struct{}{}
		if _, ok := nodes[e.Source]; !ok {
			return fmt.Errorf("%w: edge %q source %q not found", ErrInvalidConnection, e.ID, e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			return fmt.Errorf("%w: edge %q target %q not found", ErrInvalidConnection, e.ID, e.Target)
		}
	}
	return nil
}
