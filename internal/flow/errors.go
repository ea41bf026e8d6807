package flow

import "errors"

var (
	// ErrInvalidConnection is returned when an edge references a node id
	// that is not part of the graph.
	ErrInvalidConnection = errors.New("invalid connection")
	// ErrUnknownNode marks a command that references a node id absent from
	// the current graph, typically a stale canvas event.
	ErrUnknownNode = errors.New("unknown node reference")
	// ErrUnknownEdge marks a command that references an absent edge id.
	ErrUnknownEdge = errors.New("unknown edge reference")
	// ErrDuplicateNode is returned when a node id is already in use.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrDuplicateEdge is returned when an edge id is already in use.
	ErrDuplicateEdge = errors.New("duplicate edge id")
	// ErrUnknownNodeType is returned for a node type the editor cannot create.
	ErrUnknownNodeType = errors.New("unknown node type")
)
