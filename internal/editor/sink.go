package editor

import (
	"context"

	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
)

// Sink receives flows that passed validation. Storage is the sink's
// business; the editor only validates and hands the snapshot over.
type Sink interface {
	Save(ctx context.Context, g flow.Graph) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, g flow.Graph) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, g flow.Graph) error {
	return f(ctx, g)
}

// LogSink writes saved flows to the context logger.
type LogSink struct{}

// Save logs the flow at info level.
func (LogSink) Save(ctx context.Context, g flow.Graph) error {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	ctxlog.FromContext(ctx).Info("Flow saved.", "node_ids", ids, "edge_count", len(g.Edges))
	return nil
}
