package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/project-sai/chatflow/internal/canvas"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/editor"
	"github.com/project-sai/chatflow/internal/flowfile"
	"github.com/project-sai/chatflow/internal/graphstore"
	"github.com/project-sai/chatflow/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx     context.Context
	logger  *slog.Logger
	config  *Config
	editor  *editor.Editor
	metrics *metrics.Metrics
	canvas  *canvas.Server

	httpServer   *http.Server
	healthServer *http.Server
}

// NewApp builds an App from cfg. Logs go to outW. When cfg.FlowPath is set
// the flow file is loaded as the initial graph; a missing or invalid seed
// file is a startup error.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var sink editor.Sink = editor.LogSink{}
	if cfg.SavePath != "" {
		sink = flowfile.FileSink{Path: cfg.SavePath}
	}

	m := metrics.New()
	ed := editor.New(graphstore.New(), editor.WithSink(sink))

	if cfg.FlowPath != "" {
		g, err := flowfile.Load(ctx, cfg.FlowPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed flow: %w", err)
		}
		if err := ed.Reset(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to load seed flow: %w", err)
		}
	}
	m.SetGraph(ed.State().Graph())

	a := &App{
		ctx:     ctx,
		logger:  logger,
		config:  cfg,
		editor:  ed,
		metrics: m,
		canvas:  canvas.NewServer(ctx, canvas.NewDispatcher(ed, m), m),
	}
	logger.Debug("App constructed.", "listen_addr", cfg.ListenAddr, "flow_path", cfg.FlowPath, "save_path", cfg.SavePath)
	return a, nil
}

// Editor returns the application's editor. This is primarily for testing.
func (a *App) Editor() *editor.Editor {
	return a.editor
}

// Handler returns the HTTP handler serving the canvas endpoint, /health and
// /metrics.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", a.canvas.Handler())
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}
