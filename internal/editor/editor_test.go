package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/project-sai/chatflow/internal/graphstore"
	"github.com/project-sai/chatflow/internal/selection"
	"github.com/project-sai/chatflow/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink remembers every flow it receives.
type recordingSink struct {
	saved []flow.Graph
	err   error
}

func (s *recordingSink) Save(ctx context.Context, g flow.Graph) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, g)
	return nil
}

// newTestEditor returns an editor seeded with the given nodes and edges, a
// recording sink and a context whose logger writes into the returned buffer.
func newTestEditor(t *testing.T, nodeIDs []string, edges [][2]string) (*Editor, *recordingSink, context.Context, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	g := flow.Empty()
	for _, id := range nodeIDs {
		g.Nodes = append(g.Nodes, &flow.Node{ID: id, Type: flow.TextMessage, Data: flow.NodeData{Text: "msg " + id}})
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, &flow.Edge{ID: fmt.Sprintf("e%s-%s", e[0], e[1]), Source: e[0], Target: e[1]})
	}

	sink := &recordingSink{}
	ed := New(graphstore.New(), WithSink(sink))
	require.NoError(t, ed.Reset(ctx, g))
	return ed, sink, ctx, &logs
}

func TestSave_ScenarioA_EmptyFlow(t *testing.T) {
	ed, sink, ctx, _ := newTestEditor(t, nil, nil)

	resp := ed.Save(ctx)

	assert.True(t, resp.Accepted)
	assert.Contains(t, resp.Message, "saved")
	assert.Contains(t, resp.Message, "empty flow")
	require.Len(t, sink.saved, 1)
	assert.Empty(t, sink.saved[0].Nodes)
}

func TestSave_ScenarioB_SingleNode(t *testing.T) {
	ed, sink, ctx, _ := newTestEditor(t, []string{"1"}, nil)

	resp := ed.Save(ctx)

	assert.True(t, resp.Accepted)
	assert.Equal(t, "Flow saved successfully (1 node, 0 edges).", resp.Message)
	require.Len(t, sink.saved, 1)
	assert.Len(t, sink.saved[0].Nodes, 1)
}

func TestSave_ScenarioC_TwoRoots(t *testing.T) {
	ed, sink, ctx, _ := newTestEditor(t, []string{"1", "2"}, nil)
	before := ed.State()

	resp := ed.Save(ctx)

	assert.False(t, resp.Accepted)
	assert.Contains(t, resp.Message, validator.RuleMultipleRoots)
	assert.Contains(t, resp.Message, "2 nodes")
	assert.Contains(t, resp.Message, `"1", "2"`)
	assert.Equal(t, validator.RuleMultipleRoots, resp.Result.Rule)
	assert.Empty(t, sink.saved, "rejected flows must not reach the sink")
	assert.Equal(t, before, ed.State(), "a rejected save must not change the graph")
}

func TestSave_ScenarioD_ConnectedPair(t *testing.T) {
	ed, sink, ctx, _ := newTestEditor(t, []string{"1", "2"}, [][2]string{{"1", "2"}})

	resp := ed.Save(ctx)

	assert.True(t, resp.Accepted)
	assert.Equal(t, "Flow saved successfully (2 nodes, 1 edge).", resp.Message)
	assert.Len(t, sink.saved, 1)
}

func TestSave_SinkFailure(t *testing.T) {
	ed, sink, ctx, _ := newTestEditor(t, []string{"1"}, nil)
	sink.err = errors.New("disk full")

	resp := ed.Save(ctx)

	assert.False(t, resp.Accepted)
	assert.Contains(t, resp.Message, "disk full")
	assert.True(t, resp.Result.OK, "the flow itself was valid")
}

func TestConnect_ScenarioE_MissingNode(t *testing.T) {
	ed, _, ctx, logs := newTestEditor(t, []string{"1"}, nil)

	state, err := ed.Connect(ctx, ConnectRequest{Source: "1", Target: "missing"})

	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrInvalidConnection)
	assert.Empty(t, state.Edges)
	assert.Empty(t, ed.State().Edges)
	assert.Contains(t, logs.String(), "Connection refused.")
}

func TestConnect_AddsEdge(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, nil)

	state, err := ed.Connect(ctx, ConnectRequest{Source: "1", Target: "2"})

	require.NoError(t, err)
	require.Len(t, state.Edges, 1)
	assert.Equal(t, "1", state.Edges[0].Source)
	assert.Equal(t, "2", state.Edges[0].Target)
	assert.NotEmpty(t, state.Edges[0].ID)
	assert.True(t, ed.Save(ctx).Accepted)
}

func TestSelection_ScenarioF_SelectOverwrites(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, nil)

	ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "1", Selected: true}})
	state := ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "2", Selected: true}})

	assert.Equal(t, selection.PanelMode{Kind: selection.SettingsPanel, NodeID: "2"}, state.Panel)
	assert.False(t, state.Nodes[0].Selected, "node 1 is implicitly deselected")
	assert.True(t, state.Nodes[1].Selected)
}

func TestSelection_DeselectShowsNodesPanel(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1"}, nil)

	state := ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "1", Selected: true}})
	require.Equal(t, selection.SettingsPanel, state.Panel.Kind)

	state = ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "1", Selected: false}})
	assert.Equal(t, selection.PanelMode{Kind: selection.NodesPanel}, state.Panel)
}

// TestSelection_CanvasDeselectThenSelect mirrors the canvas's own event
// order when clicking another node: deselect the old one, select the new one.
func TestSelection_CanvasDeselectThenSelect(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, nil)
	ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "1", Selected: true}})

	state := ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{
		graphstore.NodeSelect{ID: "1", Selected: false},
		graphstore.NodeSelect{ID: "2", Selected: true},
	})

	assert.Equal(t, selection.PanelMode{Kind: selection.SettingsPanel, NodeID: "2"}, state.Panel)
}

func TestSelection_UnknownNodeIsIgnored(t *testing.T) {
	ed, _, ctx, logs := newTestEditor(t, []string{"1"}, nil)

	state := ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "ghost", Selected: true}})

	assert.Equal(t, selection.PanelMode{Kind: selection.NodesPanel}, state.Panel)
	assert.Contains(t, logs.String(), "Ignoring canvas change.")
	assert.Contains(t, logs.String(), "unknown node reference")
}

func TestRemoveSelectedNode_ClearsSelection(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, [][2]string{{"1", "2"}})
	ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "2", Selected: true}})

	state := ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeRemove{ID: "2"}})

	assert.Equal(t, selection.PanelMode{Kind: selection.NodesPanel}, state.Panel)
	assert.Len(t, state.Nodes, 1)
	assert.Empty(t, state.Edges, "incident edges are removed with the node")
}

func TestCloseSettings(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1"}, nil)
	ed.ApplyNodeChanges(ctx, []graphstore.NodeDelta{graphstore.NodeSelect{ID: "1", Selected: true}})

	state := ed.CloseSettings(ctx)

	assert.Equal(t, selection.PanelMode{Kind: selection.NodesPanel}, state.Panel)
	assert.False(t, state.Nodes[0].Selected)

	// Closing again is harmless.
	assert.Equal(t, state, ed.CloseSettings(ctx))
}

func TestAddNode_Defaults(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, nil, nil)

	state, n, err := ed.AddNode(ctx, AddNodeRequest{Type: flow.TextMessage})

	require.NoError(t, err)
	assert.Equal(t, "New Message", n.Data.Text)
	assert.Equal(t, flow.Position{X: 100, Y: 100}, n.Position)
	require.Len(t, state.Nodes, 1)
	assert.Same(t, n, state.Nodes[0])
	assert.Equal(t, selection.NodesPanel, state.Panel.Kind, "adding does not select")
}

func TestAddNode_DropPosition(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, nil, nil)

	_, n, err := ed.AddNode(ctx, AddNodeRequest{Type: flow.TextMessage, Position: &flow.Position{X: 42, Y: 7}})

	require.NoError(t, err)
	assert.Equal(t, flow.Position{X: 42, Y: 7}, n.Position)
}

func TestAddNode_UnknownType(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, nil, nil)

	state, n, err := ed.AddNode(ctx, AddNodeRequest{Type: "carousel"})

	assert.ErrorIs(t, err, flow.ErrUnknownNodeType)
	assert.Nil(t, n)
	assert.Empty(t, state.Nodes)
}

func TestChangeText(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, nil)
	before := ed.State()

	state := ed.ChangeText(ctx, TextEditRequest{NodeID: "2", Text: "hello"})

	assert.Equal(t, "hello", state.Nodes[1].Data.Text)
	assert.Same(t, before.Nodes[0], state.Nodes[0])
	assert.Equal(t, "msg 2", before.Nodes[1].Data.Text)
}

func TestChangeText_UnknownNodeIsNoop(t *testing.T) {
	ed, _, ctx, logs := newTestEditor(t, []string{"1"}, nil)
	before := ed.State()

	state := ed.ChangeText(ctx, TextEditRequest{NodeID: "ghost", Text: "hello"})

	assert.Equal(t, before, state)
	assert.Contains(t, logs.String(), "Ignoring text edit.")
}

func TestApplyEdgeChanges(t *testing.T) {
	ed, _, ctx, _ := newTestEditor(t, []string{"1", "2"}, [][2]string{{"1", "2"}})

	state := ed.ApplyEdgeChanges(ctx, []graphstore.EdgeDelta{graphstore.EdgeRemove{ID: "e1-2"}})
	assert.Empty(t, state.Edges)
	assert.False(t, ed.Save(ctx).Accepted, "two roots again after the edge is gone")

	state = ed.ApplyEdgeChanges(ctx, []graphstore.EdgeDelta{
		graphstore.EdgeAdd{Edge: flow.Edge{ID: "x", Source: "2", Target: "1"}},
	})
	require.Len(t, state.Edges, 1)
	assert.True(t, ed.Save(ctx).Accepted)
}

func TestReset_RestoresSelectionFromFlags(t *testing.T) {
	ed := New(graphstore.New())
	ctx := context.Background()

	err := ed.Reset(ctx, flow.Graph{Nodes: []*flow.Node{{ID: "1", Selected: true}, {ID: "2"}}})

	require.NoError(t, err)
	assert.Equal(t, selection.PanelMode{Kind: selection.SettingsPanel, NodeID: "1"}, ed.State().Panel)
}

func TestReset_RejectsInvalidGraph(t *testing.T) {
	ed := New(graphstore.New())

	err := ed.Reset(context.Background(), flow.Graph{Nodes: []*flow.Node{{ID: "1"}, {ID: "1"}}})

	assert.ErrorIs(t, err, flow.ErrDuplicateNode)
}

func TestLogSink(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	err := LogSink{}.Save(ctx, flow.Graph{Nodes: []*flow.Node{{ID: "7"}}})

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Flow saved.")
	assert.Contains(t, logs.String(), "7")
}
