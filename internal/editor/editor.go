// Package editor composes the graph store, the selection state, the node
// factory and the flow validator into the commands a canvas issues.
//
// Every command runs to completion under one mutex, so a graph is never
// mutated by two commands at once. Each command returns the State the
// canvas should render next; failed commands return the unchanged state.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/project-sai/chatflow/internal/graphstore"
	"github.com/project-sai/chatflow/internal/nodefactory"
	"github.com/project-sai/chatflow/internal/selection"
	"github.com/project-sai/chatflow/internal/validator"
)

// Editor is the single writer of one flow graph.
type Editor struct {
	mu    sync.Mutex
	store *graphstore.Store
	sel   selection.State
	sink  Sink
}

// Option configures an Editor.
type Option func(*Editor)

// WithSink sets where accepted flows are handed on save. The default is
// LogSink.
func WithSink(s Sink) Option {
	return func(e *Editor) {
		e.sink = s
	}
}

// New creates an editor over store with nothing selected.
func New(store *graphstore.Store, opts ...Option) *Editor {
	e := &Editor{
		store: store,
		sel:   selection.None,
		sink:  LogSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current graph and panel.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateOf(e.store.Snapshot())
}

func (e *Editor) stateOf(g flow.Graph) State {
	return State{Nodes: g.Nodes, Edges: g.Edges, Panel: e.sel.Panel()}
}

// Reset replaces the graph and clears the selection.
func (e *Editor) Reset(ctx context.Context, g flow.Graph) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Reset(ctx, g); err != nil {
		return err
	}
	e.sel = selection.None
	for _, n := range g.Nodes {
		if n.Selected {
			e.sel = selection.Of(n.ID)
		}
	}
	e.syncSelectionFlags(ctx, e.store.Snapshot())
	return nil
}

// ApplyNodeChanges applies a batch of canvas node changes. Selection
// changes drive the side panel; removing the selected node returns the
// canvas to the nodes panel. Changes that reference unknown nodes are
// logged and skipped.
func (e *Editor) ApplyNodeChanges(ctx context.Context, deltas []graphstore.NodeDelta) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, rejected := e.store.ApplyNodeDeltas(ctx, deltas)
	logRejections(ctx, rejected)

	for _, d := range deltas {
		switch d := d.(type) {
		case graphstore.NodeSelect:
			if d.Selected && !g.HasNode(d.ID) {
				continue
			}
			e.sel = e.sel.OnSelectionDelta(d.ID, d.Selected)
		case graphstore.NodeRemove:
			e.sel = e.sel.Forget(d.ID)
		}
	}

	return e.stateOf(e.syncSelectionFlags(ctx, g))
}

// syncSelectionFlags clears the selection flag of every node other than the
// selected one, so the graph never shows two selected nodes.
func (e *Editor) syncSelectionFlags(ctx context.Context, g flow.Graph) flow.Graph {
	current, _ := e.sel.Current()
	var stale []graphstore.NodeDelta
	for _, n := range g.Nodes {
		if n.Selected && n.ID != current {
			stale = append(stale, graphstore.NodeSelect{ID: n.ID, Selected: false})
		}
	}
	if len(stale) == 0 {
		return g
	}
	g, _ = e.store.ApplyNodeDeltas(ctx, stale)
	return g
}

// ApplyEdgeChanges applies a batch of canvas edge changes. Changes that
// reference unknown edges or nodes are logged and skipped.
func (e *Editor) ApplyEdgeChanges(ctx context.Context, deltas []graphstore.EdgeDelta) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, rejected := e.store.ApplyEdgeDeltas(ctx, deltas)
	logRejections(ctx, rejected)
	return e.stateOf(g)
}

// Connect draws an edge between two nodes. It fails with
// flow.ErrInvalidConnection, leaving the graph unchanged, when either node
// does not exist.
func (e *Editor) Connect(ctx context.Context, req ConnectRequest) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, edge, err := e.store.Connect(ctx, req.Source, req.Target)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Connection refused.", "source", req.Source, "target", req.Target, "error", err)
		return e.stateOf(e.store.Snapshot()), err
	}
	ctxlog.FromContext(ctx).Debug("Connection accepted.", "edge", edge.ID)
	return e.stateOf(g), nil
}

// AddNode creates a node with the default payload for its type. The new
// node is not selected.
func (e *Editor) AddNode(ctx context.Context, req AddNodeRequest) (State, *flow.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := nodefactory.DefaultPosition
	if req.Position != nil {
		pos = *req.Position
	}

	g, n, err := e.store.AddNode(ctx, req.Type, pos, nodefactory.DefaultData(req.Type))
	if err != nil {
		return e.stateOf(e.store.Snapshot()), nil, err
	}
	ctxlog.FromContext(ctx).Info("Node added.", "id", n.ID, "type", n.Type)
	return e.stateOf(g), n, nil
}

// ChangeText replaces the text of a node. An unknown node id is a stale
// event: it is logged and ignored.
func (e *Editor) ChangeText(ctx context.Context, req TextEditRequest) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.store.SetNodeText(ctx, req.NodeID, req.Text)
	if !ok {
		ctxlog.FromContext(ctx).Warn("Ignoring text edit.", "error", fmt.Errorf("%w: %q", flow.ErrUnknownNode, req.NodeID))
	}
	return e.stateOf(g)
}

// CloseSettings is the settings panel's back action: it deselects the
// active node so the nodes panel shows again.
func (e *Editor) CloseSettings(ctx context.Context) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.sel.Current()
	if !ok {
		return e.stateOf(e.store.Snapshot())
	}
	e.sel = selection.None
	g, _ := e.store.ApplyNodeDeltas(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: id, Selected: false}})
	return e.stateOf(g)
}

// Save validates the current flow and, when it is valid, hands it to the
// sink. The graph is never modified by a save.
func (e *Editor) Save(ctx context.Context) SaveResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	g := e.store.Snapshot()

	res := validator.Validate(g)
	if !res.OK {
		logger.Warn("Flow rejected.", "rule", res.Rule, "roots", res.Roots)
		return SaveResponse{
			Accepted: false,
			Message:  "Cannot save flow: " + res.Reason,
			Result:   res,
		}
	}

	if err := e.sink.Save(ctx, g); err != nil {
		logger.Error("Flow sink failed.", "error", err)
		return SaveResponse{
			Accepted: false,
			Message:  fmt.Sprintf("Cannot save flow: %v", err),
			Result:   res,
		}
	}

	msg := fmt.Sprintf("Flow saved successfully (%s, %s).", plural(len(g.Nodes), "node"), plural(len(g.Edges), "edge"))
	if len(g.Nodes) == 0 {
		msg = "Flow saved successfully (empty flow)."
	}
	return SaveResponse{Accepted: true, Message: msg, Result: res}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func logRejections(ctx context.Context, rejected []graphstore.Rejection) {
	if len(rejected) == 0 {
		return
	}
	logger := ctxlog.FromContext(ctx)
	for _, r := range rejected {
		logger.Warn("Ignoring canvas change.", "delta", fmt.Sprintf("%T", r.Delta), "error", r.Err)
	}
}
