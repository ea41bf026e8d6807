package graphstore

import (
	"fmt"

	"github.com/project-sai/chatflow/internal/flow"
)

// ApplyNodeDeltas applies deltas to g in order and returns the resulting
// graph along with the deltas that were skipped. Removing a node also
// removes every edge that starts or ends at it.
//
// g is never modified. Applying an empty batch returns g itself.
func ApplyNodeDeltas(g flow.Graph, deltas []NodeDelta) (flow.Graph, []Rejection) {
	nodes, edges := g.Nodes, g.Edges
	var rejected []Rejection

	for _, d := range deltas {
		i := indexOfNode(nodes, d.NodeID())
		if i < 0 {
			rejected = append(rejected, Rejection{
				Delta: d,
				Err:   fmt.Errorf("%w: %q", flow.ErrUnknownNode, d.NodeID()),
			})
			continue
		}

		switch d := d.(type) {
		case NodePosition:
			nodes = replaceNode(nodes, i, nodes[i].WithPosition(d.Position))
		case NodeSelect:
			if nodes[i].Selected != d.Selected {
				nodes = replaceNode(nodes, i, nodes[i].WithSelected(d.Selected))
			}
		case NodeRemove:
			nodes = removeNode(nodes, i)
			edges = pruneEdges(edges, d.ID)
		}
	}

	return flow.Graph{Nodes: nodes, Edges: edges}, rejected
}

// ApplyEdgeDeltas applies deltas to g in order and returns the resulting
// graph along with the deltas that were skipped. An added edge must not
// reuse an existing id and both of its endpoints must exist.
//
// g is never modified. Applying an empty batch returns g itself.
func ApplyEdgeDeltas(g flow.Graph, deltas []EdgeDelta) (flow.Graph, []Rejection) {
	edges := g.Edges
	var rejected []Rejection
	reject := func(d EdgeDelta, err error) {
		rejected = append(rejected, Rejection{Delta: d, Err: err})
	}

	for _, d := range deltas {
		switch d := d.(type) {
		case EdgeAdd:
			if indexOfEdge(edges, d.Edge.ID) >= 0 {
				reject(d, fmt.Errorf("%w: %q", flow.ErrDuplicateEdge, d.Edge.ID))
				continue
			}
			if err := checkEndpoints(g, d.Edge.Source, d.Edge.Target); err != nil {
				reject(d, err)
				continue
			}
			e := d.Edge
			edges = appendEdge(edges, &e)
		case EdgeSelect:
			i := indexOfEdge(edges, d.ID)
			if i < 0 {
				reject(d, fmt.Errorf("%w: %q", flow.ErrUnknownEdge, d.ID))
				continue
			}
			if edges[i].Selected != d.Selected {
				edges = replaceEdge(edges, i, edges[i].WithSelected(d.Selected))
			}
		case EdgeRemove:
			i := indexOfEdge(edges, d.ID)
			if i < 0 {
				reject(d, fmt.Errorf("%w: %q", flow.ErrUnknownEdge, d.ID))
				continue
			}
			edges = removeEdge(edges, i)
		}
	}

	return flow.Graph{Nodes: g.Nodes, Edges: edges}, rejected
}

// Connect adds an edge from source to target with the given id. It fails
// with flow.ErrInvalidConnection when either endpoint is missing.
//
// Self-loops are allowed. Connecting a pair that is already connected is a
// no-op that returns g unchanged together with the existing edge.
func Connect(g flow.Graph, source, target, id string) (flow.Graph, *flow.Edge, error) {
	if err := checkEndpoints(g, source, target); err != nil {
		return g, nil, err
	}
	if existing, ok := g.EdgeBetween(source, target); ok {
		return g, existing, nil
	}
	if indexOfEdge(g.Edges, id) >= 0 {
		return g, nil, fmt.Errorf("%w: %q", flow.ErrDuplicateEdge, id)
	}

	e := &flow.Edge{ID: id, Source: source, Target: target}
	return flow.Graph{Nodes: g.Nodes, Edges: appendEdge(g.Edges, e)}, e, nil
}

// AddNode appends n to the graph. It does not select the node.
func AddNode(g flow.Graph, n *flow.Node) (flow.Graph, error) {
	if g.HasNode(n.ID) {
		return g, fmt.Errorf("%w: %q", flow.ErrDuplicateNode, n.ID)
	}
	nodes := make([]*flow.Node, len(g.Nodes), len(g.Nodes)+1)
	copy(nodes, g.Nodes)
	return flow.Graph{Nodes: append(nodes, n), Edges: g.Edges}, nil
}

// SetNodeText replaces the text of the node with the given id. Every other
// node keeps its identity. It reports false, and returns g unchanged, when
// the node does not exist.
func SetNodeText(g flow.Graph, id, text string) (flow.Graph, bool) {
	i := indexOfNode(g.Nodes, id)
	if i < 0 {
		return g, false
	}
	return flow.Graph{
		Nodes: replaceNode(g.Nodes, i, g.Nodes[i].WithText(text)),
		Edges: g.Edges,
	}, true
}

func checkEndpoints(g flow.Graph, source, target string) error {
	if !g.HasNode(source) {
		return fmt.Errorf("%w: source node %q not found", flow.ErrInvalidConnection, source)
	}
	if !g.HasNode(target) {
		return fmt.Errorf("%w: target node %q not found", flow.ErrInvalidConnection, target)
	}
	return nil
}

func indexOfNode(nodes []*flow.Node, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func indexOfEdge(edges []*flow.Edge, id string) int {
	for i, e := range edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func replaceNode(nodes []*flow.Node, i int, n *flow.Node) []*flow.Node {
	out := make([]*flow.Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

func removeNode(nodes []*flow.Node, i int) []*flow.Node {
	out := make([]*flow.Node, 0, len(nodes)-1)
	out = append(out, nodes[:i]...)
	return append(out, nodes[i+1:]...)
}

func replaceEdge(edges []*flow.Edge, i int, e *flow.Edge) []*flow.Edge {
	out := make([]*flow.Edge, len(edges))
	copy(out, edges)
	out[i] = e
	return out
}

func removeEdge(edges []*flow.Edge, i int) []*flow.Edge {
	out := make([]*flow.Edge, 0, len(edges)-1)
	out = append(out, edges[:i]...)
	return append(out, edges[i+1:]...)
}

func appendEdge(edges []*flow.Edge, e *flow.Edge) []*flow.Edge {
	out := make([]*flow.Edge, len(edges), len(edges)+1)
	copy(out, edges)
	return append(out, e)
}

// pruneEdges drops every edge incident to the node id. The input slice is
// returned as is when nothing is pruned.
func pruneEdges(edges []*flow.Edge, id string) []*flow.Edge {
	touched := false
	for _, e := range edges {
		if e.Touches(id) {
			touched = true
			break
		}
	}
	if !touched {
		return edges
	}

	out := make([]*flow.Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}
