package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/editor"
	"github.com/project-sai/chatflow/internal/metrics"
)

// Reply is what the server sends in answer to an inbound event.
type Reply struct {
	Event   string
	Payload any
	// Broadcast sends the reply to every connected canvas instead of the
	// requester only.
	Broadcast bool
}

// Dispatcher maps canvas events onto editor commands.
type Dispatcher struct {
	editor  *editor.Editor
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher for ed. m may be nil.
func NewDispatcher(ed *editor.Editor, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{editor: ed, metrics: m}
}

// Handle processes one inbound event and returns the reply to send.
func (d *Dispatcher) Handle(ctx context.Context, event string, payload any) Reply {
	start := time.Now()
	reply, status := d.handle(ctx, event, payload)

	label := event
	if _, ok := inboundEvents[event]; !ok {
		label = "unknown"
	}
	d.metrics.ObserveEvent(label, status, time.Since(start))

	if ce, ok := reply.Payload.(CommandError); ok {
		ctxlog.FromContext(ctx).Warn("Canvas event refused.", "event", event, "reason", ce.Message)
	}
	return reply
}

var errUnknownEvent = errors.New("unknown event")

var inboundEvents = map[string]struct{}{
	EventNodesChange:   {},
	EventEdgesChange:   {},
	EventConnectNodes:  {},
	EventAddNode:       {},
	EventTextEdit:      {},
	EventCloseSettings: {},
	EventSave:          {},
	EventSync:          {},
}

func (d *Dispatcher) handle(ctx context.Context, event string, payload any) (Reply, string) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Canvas event received.", "event", event)

	switch event {
	case EventNodesChange:
		var changes []nodeChange
		if err := decode(payload, &changes); err != nil {
			return commandError(event, err), metrics.StatusError
		}
		deltas, err := nodeDeltas(changes)
		if err != nil {
			return commandError(event, err), metrics.StatusError
		}
		return d.broadcast(d.editor.ApplyNodeChanges(ctx, deltas)), metrics.StatusOK

	case EventEdgesChange:
		var changes []edgeChange
		if err := decode(payload, &changes); err != nil {
			return commandError(event, err), metrics.StatusError
		}
		deltas, err := edgeDeltas(changes)
		if err != nil {
			return commandError(event, err), metrics.StatusError
		}
		return d.broadcast(d.editor.ApplyEdgeChanges(ctx, deltas)), metrics.StatusOK

	case EventConnectNodes:
		var p connectPayload
		if err := decode(payload, &p); err != nil {
			return commandError(event, err), metrics.StatusError
		}
		state, err := d.editor.Connect(ctx, editor.ConnectRequest{Source: p.Source, Target: p.Target})
		if err != nil {
			return commandError(event, err), metrics.StatusRejected
		}
		return d.broadcast(state), metrics.StatusOK

	case EventAddNode:
		var p addNodePayload
		if err := decode(payload, &p); err != nil {
			return commandError(event, err), metrics.StatusError
		}
		req, err := p.request()
		if err != nil {
			return commandError(event, err), metrics.StatusRejected
		}
		state, _, err := d.editor.AddNode(ctx, req)
		if err != nil {
			return commandError(event, err), metrics.StatusRejected
		}
		return d.broadcast(state), metrics.StatusOK

	case EventTextEdit:
		var p textEditPayload
		if err := decode(payload, &p); err != nil {
			return commandError(event, err), metrics.StatusError
		}
		return d.broadcast(d.editor.ChangeText(ctx, editor.TextEditRequest{NodeID: p.NodeID, Text: p.Text})), metrics.StatusOK

	case EventCloseSettings:
		return d.broadcast(d.editor.CloseSettings(ctx)), metrics.StatusOK

	case EventSave:
		resp := d.editor.Save(ctx)
		switch {
		case resp.Accepted:
			d.metrics.ObserveSave(metrics.SaveAccepted)
		case resp.Result.OK:
			d.metrics.ObserveSave(metrics.SaveFailed)
		default:
			d.metrics.ObserveSave(metrics.SaveRejected)
		}
		status := metrics.StatusOK
		if !resp.Accepted {
			status = metrics.StatusRejected
		}
		return Reply{Event: EventSaveResult, Payload: SaveResult{Accepted: resp.Accepted, Message: resp.Message}}, status

	case EventSync:
		return Reply{Event: EventState, Payload: d.editor.State()}, metrics.StatusOK
	}

	return commandError(event, errUnknownEvent), metrics.StatusError
}

func (d *Dispatcher) broadcast(state editor.State) Reply {
	d.metrics.SetGraph(state.Graph())
	return Reply{Event: EventState, Payload: state, Broadcast: true}
}

func commandError(event string, err error) Reply {
	return Reply{Event: EventCommandError, Payload: CommandError{Event: event, Message: fmt.Sprint(err)}}
}
