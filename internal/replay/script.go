// Package replay plays a scripted sequence of canvas events against a
// running chatflow server and collects the replies. It is a smoke tool for
// the socket.io protocol.
package replay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTimeout bounds the wait for each reply when a step sets none.
const DefaultTimeout = 5 * time.Second

type scriptRoot struct {
	Events []*eventBlock `hcl:"event,block"`
}

type eventBlock struct {
	Name    string    `hcl:"name,label"`
	Data    cty.Value `hcl:"data,optional"`
	Expect  string    `hcl:"expect,optional"`
	Timeout string    `hcl:"timeout,optional"`
}

// Step is one event to emit.
type Step struct {
	Event string
	// Data is the JSON-compatible payload, nil for events without one.
	Data any
	// Expect, when set, is the reply event the step must produce.
	Expect  string
	Timeout time.Duration
}

// Script is an ordered list of steps.
type Script struct {
	Steps []Step
}

// LoadScript reads a replay script from path. When path is a directory,
// every .hcl file below it is read in lexical order and their steps are
// concatenated.
func LoadScript(ctx context.Context, path string) (*Script, error) {
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find replay scripts in %s: %w", path, err)
	}

	script := &Script{}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read replay script %s: %w", file, err)
		}
		s, err := ParseScript(src, file)
		if err != nil {
			return nil, err
		}
		script.Steps = append(script.Steps, s.Steps...)
		ctxlog.FromContext(ctx).Debug("Replay script loaded.", "path", file, "steps", len(s.Steps))
	}
	return script, nil
}

// ParseScript decodes replay script source.
func ParseScript(src []byte, filename string) (*Script, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse replay script %s: %w", filename, diags)
	}

	var root scriptRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode replay script %s: %w", filename, diags)
	}

	s := &Script{Steps: make([]Step, 0, len(root.Events))}
	for i, eb := range root.Events {
		data, err := ctyValueToInterface(eb.Data)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): data: %w", i, eb.Name, err)
		}

		timeout := DefaultTimeout
		if eb.Timeout != "" {
			timeout, err = time.ParseDuration(eb.Timeout)
			if err != nil {
				return nil, fmt.Errorf("event %d (%s): failed to parse timeout: %w", i, eb.Name, err)
			}
		}

		s.Steps = append(s.Steps, Step{Event: eb.Name, Data: data, Expect: eb.Expect, Timeout: timeout})
	}
	return s, nil
}
