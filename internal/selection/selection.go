// Package selection tracks which node is active in the editor and derives
// which side panel the canvas shows from it.
//
// State is a value type: every transition returns a new State and leaves
// the receiver untouched, so the editor can publish it alongside a graph
// snapshot without copying.
package selection

import "encoding/json"

// State holds at most one selected node id.
type State struct {
	id string
	ok bool
}

// None is the empty selection.
var None = State{}

// Of returns a state with id selected.
func Of(id string) State {
	return State{id: id, ok: true}
}

// OnSelectionDelta folds a selection event into the state. Selecting a node
// replaces any previous selection, even without a deselect event for it.
// Deselecting only clears the state when id is the selected node.
func (s State) OnSelectionDelta(id string, selected bool) State {
	if selected {
		return Of(id)
	}
	if s.ok && s.id == id {
		return None
	}
	return s
}

// Forget clears the selection if it points at id, for example because the
// node was removed.
func (s State) Forget(id string) State {
	if s.ok && s.id == id {
		return None
	}
	return s
}

// Current returns the selected node id and whether there is one.
func (s State) Current() (string, bool) {
	return s.id, s.ok
}

// Panel derives the visible side panel.
func (s State) Panel() PanelMode {
	if !s.ok {
		return PanelMode{Kind: NodesPanel}
	}
	return PanelMode{Kind: SettingsPanel, NodeID: s.id}
}

// PanelKind names a side panel.
type PanelKind string

const (
	// NodesPanel is the palette used to add new nodes.
	NodesPanel PanelKind = "nodes"
	// SettingsPanel is the property editor of the selected node.
	SettingsPanel PanelKind = "settings"
)

// PanelMode is the side panel the canvas should show.
type PanelMode struct {
	Kind PanelKind
	// NodeID is the node being edited; empty for NodesPanel.
	NodeID string
}

func (p PanelMode) String() string {
	if p.Kind == SettingsPanel {
		return string(p.Kind) + "(" + p.NodeID + ")"
	}
	return string(p.Kind)
}

// MarshalJSON encodes the panel as {"mode":"settings","nodeId":"..."}.
func (p PanelMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode   PanelKind `json:"mode"`
		NodeID string    `json:"nodeId,omitempty"`
	}{p.Kind, p.NodeID})
}
