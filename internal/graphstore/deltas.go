package graphstore

import (
	"fmt"

	"github.com/project-sai/chatflow/internal/flow"
)

// NodeDelta is an incremental change to a single node.
// It is one of NodePosition, NodeSelect or NodeRemove.
type NodeDelta interface {
	// NodeID is the id of the node the delta applies to.
	NodeID() string
	isNodeDelta()
}

// NodePosition moves a node.
type NodePosition struct {
	ID       string
	Position flow.Position
}

// NodeSelect sets a node's selection flag.
type NodeSelect struct {
	ID       string
	Selected bool
}

// NodeRemove deletes a node and every edge incident to it.
type NodeRemove struct {
	ID string
}

func (d NodePosition) NodeID() string { return d.ID }
func (d NodeSelect) NodeID() string   { return d.ID }
func (d NodeRemove) NodeID() string   { return d.ID }

func (NodePosition) isNodeDelta() {}
func (NodeSelect) isNodeDelta()   {}
func (NodeRemove) isNodeDelta()   {}

// EdgeDelta is an incremental change to a single edge.
// It is one of EdgeAdd, EdgeSelect or EdgeRemove.
type EdgeDelta interface {
	// EdgeID is the id of the edge the delta applies to.
	EdgeID() string
	isEdgeDelta()
}

// EdgeAdd inserts a fully formed edge.
type EdgeAdd struct {
	Edge flow.Edge
}

// EdgeSelect sets an edge's selection flag.
type EdgeSelect struct {
	ID       string
	Selected bool
}

// EdgeRemove deletes an edge.
type EdgeRemove struct {
	ID string
}

func (d EdgeAdd) EdgeID() string    { return d.Edge.ID }
func (d EdgeSelect) EdgeID() string { return d.ID }
func (d EdgeRemove) EdgeID() string { return d.ID }

func (EdgeAdd) isEdgeDelta()    {}
func (EdgeSelect) isEdgeDelta() {}
func (EdgeRemove) isEdgeDelta() {}

// Rejection records a delta that was skipped and why.
type Rejection struct {
	Delta any
	Err   error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("delta %T rejected: %v", r.Delta, r.Err)
}

func (r Rejection) Unwrap() error {
	return r.Err
}
