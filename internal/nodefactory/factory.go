// Package nodefactory creates new flow nodes with process-unique ids and
// their default payload.
package nodefactory

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/project-sai/chatflow/internal/flow"
)

// DefaultPosition is where the palette button places a new node.
var DefaultPosition = flow.Position{X: 100, Y: 100}

// DefaultData returns the payload a freshly created node of type t starts
// with.
func DefaultData(t flow.NodeType) flow.NodeData {
	switch t {
	case flow.TextMessage:
		return flow.NodeData{Text: "New Message"}
	default:
		return flow.NodeData{}
	}
}

// Factory generates node ids from the wall clock in milliseconds. When the
// clock has not advanced since the previous id (or went backwards), the
// previous id plus one is used instead, so ids are strictly increasing for
// the lifetime of the factory regardless of how fast nodes are created.
type Factory struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock replaces the time source used for id generation.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		f.now = now
	}
}

// New creates a Factory.
func New(opts ...Option) *Factory {
	f := &Factory{now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NextID returns the next unique node id.
func (f *Factory) NextID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.now().UnixMilli()
	if id <= f.last {
		id = f.last + 1
	}
	f.last = id
	return strconv.FormatInt(id, 10)
}

// Create builds a new node of type t at pos carrying data.
func (f *Factory) Create(t flow.NodeType, pos flow.Position, data flow.NodeData) (*flow.Node, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot create node: %w: %q", flow.ErrUnknownNodeType, t)
	}
	return &flow.Node{
		ID:       f.NextID(),
		Type:     t,
		Position: pos,
		Data:     data,
	}, nil
}
