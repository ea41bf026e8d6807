package flow

import "fmt"

// NodeType distinguishes the kinds of node a flow can contain. It is
// serialised with the same names the canvas uses for its node renderers.
type NodeType string

const (
	// TextMessage is a node that sends a single text message.
	TextMessage NodeType = "textMessage"
)

// nodeTypes lists every NodeType the editor knows how to create.
var nodeTypes = map[NodeType]struct{}{
	TextMessage: {},
}

// ParseNodeType converts a canvas type name into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
	}
	return t, nil
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	_, ok := nodeTypes[t]
	return ok
}

func (t NodeType) String() string {
	return string(t)
}

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the user-editable payload of a node.
type NodeData struct {
	Text string `json:"text"`
}

// Node is a single vertex of the flow.
//
// Nodes are immutable once they belong to a published Graph; use the With*
// methods to derive a modified copy.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	// Selected mirrors the canvas selection flag for this node.
	Selected bool `json:"selected,omitempty"`
}

// WithPosition returns a copy of n moved to p.
func (n *Node) WithPosition(p Position) *Node {
	c := *n
	c.Position = p
	return &c
}

// WithText returns a copy of n whose data carries the given text.
func (n *Node) WithText(text string) *Node {
	c := *n
	c.Data.Text = text
	return &c
}

// WithSelected returns a copy of n with the selection flag set to selected.
func (n *Node) WithSelected(selected bool) *Node {
	c := *n
	c.Selected = selected
	return &c
}
