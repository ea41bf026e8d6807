package graphstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/flow"
	"github.com/project-sai/chatflow/internal/nodefactory"
)

// Store holds the current flow graph. Mutations are serialised behind a
// single mutex; Snapshot is lock-free and always returns a consistent,
// immutable graph.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[flow.Graph]

	factory *nodefactory.Factory
	edgeID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithFactory sets the node factory used by AddNode.
func WithFactory(f *nodefactory.Factory) Option {
	return func(s *Store) {
		s.factory = f
	}
}

// WithEdgeIDs sets the generator for the ids of edges created by Connect.
func WithEdgeIDs(next func() string) Option {
	return func(s *Store) {
		s.edgeID = next
	}
}

// New creates a Store holding an empty graph.
func New(opts ...Option) *Store {
	s := &Store{
		factory: nodefactory.New(),
		edgeID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	g := flow.Empty()
	s.current.Store(&g)
	return s
}

// Snapshot returns the current graph.
func (s *Store) Snapshot() flow.Graph {
	return *s.current.Load()
}

// Reset replaces the whole graph after checking its invariants.
func (s *Store) Reset(ctx context.Context, g flow.Graph) error {
	if err := g.Check(); err != nil {
		return fmt.Errorf("cannot reset graph: %w", err)
	}
	if g.Nodes == nil {
		g.Nodes = []*flow.Node{}
	}
	if g.Edges == nil {
		g.Edges = []*flow.Edge{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&g)
	ctxlog.FromContext(ctx).Debug("Graph reset.", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

// ApplyNodeDeltas applies a node delta batch to the current graph.
func (s *Store) ApplyNodeDeltas(ctx context.Context, deltas []NodeDelta) (flow.Graph, []Rejection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, rejected := ApplyNodeDeltas(s.Snapshot(), deltas)
	s.current.Store(&next)
	ctxlog.FromContext(ctx).Debug("Node deltas applied.", "count", len(deltas), "rejected", len(rejected))
	return next, rejected
}

// ApplyEdgeDeltas applies an edge delta batch to the current graph.
func (s *Store) ApplyEdgeDeltas(ctx context.Context, deltas []EdgeDelta) (flow.Graph, []Rejection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, rejected := ApplyEdgeDeltas(s.Snapshot(), deltas)
	s.current.Store(&next)
	ctxlog.FromContext(ctx).Debug("Edge deltas applied.", "count", len(deltas), "rejected", len(rejected))
	return next, rejected
}

// Connect creates an edge from source to target with a fresh id.
func (s *Store) Connect(ctx context.Context, source, target string) (flow.Graph, *flow.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, edge, err := Connect(s.Snapshot(), source, target, s.edgeID())
	if err != nil {
		return next, nil, err
	}
	s.current.Store(&next)
	ctxlog.FromContext(ctx).Debug("Nodes connected.", "edge", edge.ID, "source", source, "target", target)
	return next, edge, nil
}

// AddNode creates a node through the factory and appends it to the graph.
// Factory ids that collide with ids already in the graph (for example ones
// loaded from a flow file) are skipped.
func (s *Store) AddNode(ctx context.Context, t flow.NodeType, pos flow.Position, data flow.NodeData) (flow.Graph, *flow.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Snapshot()
	for attempt := 0; attempt <= len(cur.Nodes); attempt++ {
		n, err := s.factory.Create(t, pos, data)
		if err != nil {
			return cur, nil, err
		}
		next, err := AddNode(cur, n)
		if err != nil {
			ctxlog.FromContext(ctx).Debug("Generated node id already in use, retrying.", "id", n.ID)
			continue
		}
		s.current.Store(&next)
		ctxlog.FromContext(ctx).Debug("Node added.", "id", n.ID, "type", n.Type)
		return next, n, nil
	}
	return cur, nil, fmt.Errorf("cannot add node: no free id after %d attempts", len(cur.Nodes)+1)
}

// SetNodeText replaces the text of a node. It reports false when the node
// does not exist.
func (s *Store) SetNodeText(ctx context.Context, id, text string) (flow.Graph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := SetNodeText(s.Snapshot(), id, text)
	if ok {
		s.current.Store(&next)
	}
	return next, ok
}
