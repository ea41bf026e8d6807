package flowfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders g as a flow file. Selection flags are canvas state and are
// not written.
func Encode(g flow.Graph) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for i, n := range g.Nodes {
		if i > 0 {
			body.AppendNewline()
		}
		nb := body.AppendNewBlock("node", []string{n.ID}).Body()
		nb.SetAttributeValue("type", cty.StringVal(n.Type.String()))
		nb.SetAttributeValue("x", cty.NumberFloatVal(n.Position.X))
		nb.SetAttributeValue("y", cty.NumberFloatVal(n.Position.Y))
		nb.SetAttributeValue("text", cty.StringVal(n.Data.Text))
	}

	for i, e := range g.Edges {
		if i > 0 || len(g.Nodes) > 0 {
			body.AppendNewline()
		}
		eb := body.AppendNewBlock("edge", []string{e.ID}).Body()
		eb.SetAttributeValue("source", cty.StringVal(e.Source))
		eb.SetAttributeValue("target", cty.StringVal(e.Target))
	}

	return f.Bytes()
}

// FileSink writes every saved flow to Path, replacing the previous version
// atomically.
type FileSink struct {
	Path string
}

// Save encodes g and writes it to the sink's path.
func (s FileSink) Save(ctx context.Context, g flow.Graph) error {
	logger := ctxlog.FromContext(ctx)

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create flow directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".flow-*.hcl")
	if err != nil {
		return fmt.Errorf("failed to create temporary flow file: %w", err)
	}
	// Removing after a successful rename fails harmlessly.
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Encode(g)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace flow file %s: %w", s.Path, err)
	}

	logger.Info("Flow written.", "path", s.Path, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}
