package flowfile

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
)

// fileRoot is the top-level schema of a flow file.
type fileRoot struct {
	Nodes []*nodeBlock `hcl:"node,block"`
	Edges []*edgeBlock `hcl:"edge,block"`
}

type nodeBlock struct {
	ID   string  `hcl:"id,label"`
	Type string  `hcl:"type"`
	X    float64 `hcl:"x,optional"`
	Y    float64 `hcl:"y,optional"`
	Text string  `hcl:"text,optional"`
}

type edgeBlock struct {
	ID     string `hcl:"id,label"`
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

// Load reads the flow file at path.
func Load(ctx context.Context, path string) (flow.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading flow file.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return flow.Graph{}, fmt.Errorf("failed to read flow file %s: %w", path, err)
	}

	g, err := Parse(src, path)
	if err != nil {
		return flow.Graph{}, err
	}
	logger.Info("Flow file loaded.", "path", path, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// Parse decodes flow file source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (flow.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return flow.Graph{}, fmt.Errorf("failed to parse flow file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return flow.Graph{}, fmt.Errorf("failed to decode flow file %s: %w", filename, diags)
	}

	g, err := translate(&root)
	if err != nil {
		return flow.Graph{}, fmt.Errorf("invalid flow file %s: %w", filename, err)
	}
	return g, nil
}

// translate converts the decoded blocks into a checked flow graph.
func translate(root *fileRoot) (flow.Graph, error) {
	g := flow.Graph{
		Nodes: make([]*flow.Node, 0, len(root.Nodes)),
		Edges: make([]*flow.Edge, 0, len(root.Edges)),
	}

	for _, nb := range root.Nodes {
		nt, err := flow.ParseNodeType(nb.Type)
		if err != nil {
			return flow.Graph{}, fmt.Errorf("node %q: %w", nb.ID, err)
		}
		g.Nodes = append(g.Nodes, &flow.Node{
			ID:       nb.ID,
			Type:     nt,
			Position: flow.Position{X: nb.X, Y: nb.Y},
			Data:     flow.NodeData{Text: nb.Text},
		})
	}
	for _, eb := range root.Edges {
		g.Edges = append(g.Edges, &flow.Edge{ID: eb.ID, Source: eb.Source, Target: eb.Target})
	}

	if err := g.Check(); err != nil {
		return flow.Graph{}, err
	}
	return g, nil
}
