package canvas

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/project-sai/chatflow/internal/editor"
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/project-sai/chatflow/internal/graphstore"
)

// Inbound events.
const (
	EventNodesChange   = "nodes_change"
	EventEdgesChange   = "edges_change"
	EventConnectNodes  = "connect_nodes"
	EventAddNode       = "add_node"
	EventTextEdit      = "text_edit"
	EventCloseSettings = "close_settings"
	EventSave          = "save"
	EventSync          = "sync"
)

// Outbound events.
const (
	EventState        = "state"
	EventSaveResult   = "save_result"
	EventCommandError = "command_error"
)

// ErrBadPayload marks an event payload that cannot be decoded.
var ErrBadPayload = errors.New("bad payload")

// nodeChange is a reactflow NodeChange. Only the fields of the kinds the
// editor understands are decoded.
type nodeChange struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Position *flow.Position `json:"position,omitempty"`
	Selected bool           `json:"selected"`
}

// edgeChange is a reactflow EdgeChange.
type edgeChange struct {
	Type     string    `json:"type"`
	ID       string    `json:"id"`
	Item     *wireEdge `json:"item,omitempty"`
	Selected bool      `json:"selected"`
}

type wireEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type connectPayload struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type addNodePayload struct {
	Type     string         `json:"type"`
	Position *flow.Position `json:"position,omitempty"`
}

type textEditPayload struct {
	NodeID string `json:"nodeId"`
	Text   string `json:"text"`
}

// SaveResult is the payload of save_result.
type SaveResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// CommandError is the payload of command_error.
type CommandError struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// decode converts a socket.io argument into v. Arguments arrive as decoded
// JSON values, raw bytes or a JSON string.
func decode(payload any, v any) error {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return fmt.Errorf("%w: missing payload", ErrBadPayload)
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// nodeDeltas translates reactflow node changes. Change kinds the editor
// does not track (dimensions, add, reset) and position changes without a
// position (the end of a drag) are skipped.
func nodeDeltas(changes []nodeChange) ([]graphstore.NodeDelta, error) {
	deltas := make([]graphstore.NodeDelta, 0, len(changes))
	for i, c := range changes {
		var d graphstore.NodeDelta
		switch c.Type {
		case "position":
			if c.Position == nil {
				continue
			}
			d = graphstore.NodePosition{ID: c.ID, Position: *c.Position}
		case "select":
			d = graphstore.NodeSelect{ID: c.ID, Selected: c.Selected}
		case "remove":
			d = graphstore.NodeRemove{ID: c.ID}
		default:
			continue
		}
		if c.ID == "" {
			return nil, fmt.Errorf("%w: %s node change %d has no id", ErrBadPayload, c.Type, i)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// edgeDeltas translates reactflow edge changes.
func edgeDeltas(changes []edgeChange) ([]graphstore.EdgeDelta, error) {
	deltas := make([]graphstore.EdgeDelta, 0, len(changes))
	for i, c := range changes {
		switch c.Type {
		case "add":
			if c.Item == nil || c.Item.ID == "" {
				return nil, fmt.Errorf("%w: edge change %d adds an edge without id", ErrBadPayload, i)
			}
			deltas = append(deltas, graphstore.EdgeAdd{Edge: flow.Edge{ID: c.Item.ID, Source: c.Item.Source, Target: c.Item.Target}})
		case "select":
			deltas = append(deltas, graphstore.EdgeSelect{ID: c.ID, Selected: c.Selected})
		case "remove":
			deltas = append(deltas, graphstore.EdgeRemove{ID: c.ID})
		}
	}
	return deltas, nil
}

func (p addNodePayload) request() (editor.AddNodeRequest, error) {
	t, err := flow.ParseNodeType(p.Type)
	if err != nil {
		return editor.AddNodeRequest{}, err
	}
	return editor.AddNodeRequest{Type: t, Position: p.Position}, nil
}
