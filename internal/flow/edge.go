package flow

// Edge is a directed connection from one node to another. Source and Target
// are weak references: the edge does not own the nodes and is removed
// together with either of them.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Selected bool   `json:"selected,omitempty"`
}

// Touches reports whether the edge starts or ends at the node id.
func (e *Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// WithSelected returns a copy of e with the selection flag set to selected.
func (e *Edge) WithSelected(selected bool) *Edge {
	c := *e
	c.Selected = selected
	return &c
}
