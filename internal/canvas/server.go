package canvas

import (
	"context"
	"net/http"
	"sync"

	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/metrics"
	"github.com/zishang520/socket.io/v2/socket"
)

// Server is the socket.io endpoint canvases connect to.
type Server struct {
	// mu orders event handling together with reply delivery, so canvases
	// receive broadcast states in the order the editor applied them.
	mu sync.Mutex

	ctx        context.Context
	io         *socket.Server
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
}

// NewServer creates a socket.io server that feeds every inbound event to d.
// ctx carries the logger used for connection and event logs.
func NewServer(ctx context.Context, d *Dispatcher, m *metrics.Metrics) *Server {
	s := &Server{
		ctx:        ctxlog.With(ctx, "component", "canvas"),
		io:         socket.NewServer(nil, nil),
		dispatcher: d,
		metrics:    m,
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.onConnect(client)
	})
	return s
}

// Handler returns the HTTP handler to mount at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close disconnects every client.
func (s *Server) Close() {
	ctxlog.FromContext(s.ctx).Debug("Closing canvas server.")
	s.io.Close(nil)
}

func (s *Server) onConnect(client *socket.Socket) {
	ctx := ctxlog.With(s.ctx, "sid", client.Id())
	logger := ctxlog.FromContext(ctx)
	logger.Info("Canvas connected.")
	s.metrics.ClientConnected()

	client.On(EventNodesChange, s.listener(ctx, client, EventNodesChange))
	client.On(EventEdgesChange, s.listener(ctx, client, EventEdgesChange))
	client.On(EventConnectNodes, s.listener(ctx, client, EventConnectNodes))
	client.On(EventAddNode, s.listener(ctx, client, EventAddNode))
	client.On(EventTextEdit, s.listener(ctx, client, EventTextEdit))
	client.On(EventCloseSettings, s.listener(ctx, client, EventCloseSettings))
	client.On(EventSave, s.listener(ctx, client, EventSave))
	client.On(EventSync, s.listener(ctx, client, EventSync))

	client.On("disconnect", func(reason ...any) {
		logger.Info("Canvas disconnected.", "reason", reason)
		s.metrics.ClientDisconnected()
	})

	// A fresh canvas renders the current flow straight away.
	s.process(ctx, EventSync, nil, func(r Reply) { s.deliver(ctx, client, r) })
}

func (s *Server) listener(ctx context.Context, client *socket.Socket, event string) func(...any) {
	return func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		s.process(ctx, event, payload, func(r Reply) { s.deliver(ctx, client, r) })
	}
}

// process handles one event and passes its reply to send before the next
// event is handled.
func (s *Server) process(ctx context.Context, event string, payload any, send func(Reply)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	send(s.dispatcher.Handle(ctx, event, payload))
}

func (s *Server) deliver(ctx context.Context, client *socket.Socket, r Reply) {
	if r.Broadcast {
		s.io.Emit(r.Event, r.Payload)
		return
	}
	if err := client.Emit(r.Event, r.Payload); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to emit reply.", "event", r.Event, "error", err)
	}
}
