package editor

import (
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/project-sai/chatflow/internal/selection"
	"github.com/project-sai/chatflow/internal/validator"
)

// State is what the editor publishes after every accepted command.
type State struct {
	Nodes []*flow.Node        `json:"nodes"`
	Edges []*flow.Edge        `json:"edges"`
	Panel selection.PanelMode `json:"panel"`
}

// Graph returns the node and edge sets of the state as a flow graph.
func (s State) Graph() flow.Graph {
	return flow.Graph{Nodes: s.Nodes, Edges: s.Edges}
}

// ConnectRequest asks for an edge from Source to Target.
type ConnectRequest struct {
	Source string
	Target string
}

// AddNodeRequest asks for a new node. A nil Position places the node at
// nodefactory.DefaultPosition, as the palette button does; a drop on the
// canvas supplies the drop point.
type AddNodeRequest struct {
	Type     flow.NodeType
	Position *flow.Position
}

// TextEditRequest replaces the text of a node.
type TextEditRequest struct {
	NodeID string
	Text   string
}

// SaveResponse is the outcome of a save request.
type SaveResponse struct {
	Accepted bool
	// Message is shown to the user. On rejection it names the violated rule
	// and the offending node ids.
	Message string
	// Result is the validation verdict the response is based on.
	Result validator.Result
}
