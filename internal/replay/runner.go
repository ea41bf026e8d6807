package replay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/project-sai/chatflow/internal/canvas"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Options configures a replay run.
type Options struct {
	// URL of the server, including the socket.io path, for example
	// http://localhost:8080/socket.io/.
	URL string
	// Namespace defaults to "/".
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

func (o Options) namespace() string {
	if o.Namespace == "" {
		return "/"
	}
	return o.Namespace
}

// Result is the reply one step produced.
type Result struct {
	Step  Step
	Reply string
	Data  any
}

// ExpectationError reports a step whose reply was not the expected one.
type ExpectationError struct {
	Index int
	Step  Step
	Got   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d (%s): expected %s reply, got %s", e.Index, e.Step.Event, e.Step.Expect, e.Got)
}

type reply struct {
	event string
	data  any
}

// Run connects to the server, waits for the initial state and plays the
// script step by step. Each step waits for the next reply before the
// following one is emitted. The results collected so far are returned
// together with any error.
func Run(ctx context.Context, opts Options, script *Script) ([]Result, error) {
	logger := ctxlog.FromContext(ctx).With("component", "replay", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.namespace(), sopts)
	defer func() {
		logger.Debug("Disconnecting replay client.")
		io.Disconnect()
	}()

	replies := make(chan reply, 16)
	connectErr := make(chan error, 1)

	io.Once(types.EventName("connect_error"), func(errs ...any) {
		cerr := fmt.Errorf("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				cerr = e
			}
		}
		connectErr <- cerr
	})
	for _, ev := range []string{canvas.EventState, canvas.EventSaveResult, canvas.EventCommandError} {
		io.On(types.EventName(ev), func(data ...any) {
			r := reply{event: ev}
			if len(data) > 0 {
				r.data = data[0]
			}
			select {
			case replies <- r:
			default:
				logger.Warn("Dropping reply, consumer is behind.", "event", ev)
			}
		})
	}

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 15 * time.Second
	}

	logger.Debug("Connecting replay client.")
	io.Connect()

	// The server greets every new canvas with its current state.
	if _, err := awaitReply(ctx, replies, connectErr, connectTimeout); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	logger.Info("Connected.", "sid", io.Id())

	results := make([]Result, 0, len(script.Steps))
	for i, step := range script.Steps {
		if step.Data != nil {
			if b, err := json.Marshal(step.Data); err == nil {
				logger.Debug("Emitting event.", "step", i, "event", step.Event, "data", string(b))
			}
			io.Emit(step.Event, step.Data)
		} else {
			logger.Debug("Emitting event.", "step", i, "event", step.Event)
			io.Emit(step.Event)
		}

		r, err := awaitReply(ctx, replies, nil, step.Timeout)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, step.Event, err)
		}
		results = append(results, Result{Step: step, Reply: r.event, Data: r.data})
		logger.Info("Step finished.", "step", i, "event", step.Event, "reply", r.event)

		if step.Expect != "" && step.Expect != r.event {
			return results, &ExpectationError{Index: i, Step: step, Got: r.event}
		}
	}
	return results, nil
}

func awaitReply(ctx context.Context, replies <-chan reply, errs <-chan error, timeout time.Duration) (reply, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-replies:
		return r, nil
	case err := <-errs:
		return reply{}, err
	case <-timer.C:
		return reply{}, fmt.Errorf("timed out after %v waiting for a reply", timeout)
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}
