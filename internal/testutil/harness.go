package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/project-sai/chatflow/internal/app"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds what an app harness produced.
type HarnessResult struct {
	App  *app.App
	Err  error
	Dir  string
	Logs *SafeBuffer
}

// WriteFiles writes files, keyed by relative path, below a fresh temporary
// directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// NewApp builds an app over files. Relative FlowPath and SavePath in cfg are
// resolved against the directory the files were written to. Empty log
// settings default to debug text logs. Set CHATFLOW_TEST_LOGS=true to print
// the captured logs.
func NewApp(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	if cfg.FlowPath != "" && !filepath.IsAbs(cfg.FlowPath) {
		cfg.FlowPath = filepath.Join(dir, cfg.FlowPath)
	}
	if cfg.SavePath != "" && !filepath.IsAbs(cfg.SavePath) {
		cfg.SavePath = filepath.Join(dir, cfg.SavePath)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	logs := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("CHATFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	a, err := app.NewApp(logs, &cfg)
	return &HarnessResult{App: a, Err: err, Dir: dir, Logs: logs}
}
