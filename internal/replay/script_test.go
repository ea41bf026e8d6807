package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseScript(t *testing.T) {
	src := `
event "add_node" {
  data = { type = "textMessage", position = { x = 10, y = 20.5 } }
}

event "nodes_change" {
  data = [{ type = "select", id = "1", selected = true }]
  timeout = "250ms"
}

event "connect_nodes" {
  data   = { source = "1", target = "missing" }
  expect = "command_error"
}

event "save" {}
`
	s, err := ParseScript([]byte(src), "script.hcl")
	require.NoError(t, err)

	want := []Step{
		{
			Event:   "add_node",
			Data:    map[string]any{"type": "textMessage", "position": map[string]any{"x": 10.0, "y": 20.5}},
			Timeout: DefaultTimeout,
		},
		{
			Event:   "nodes_change",
			Data:    []any{map[string]any{"type": "select", "id": "1", "selected": true}},
			Timeout: 250 * time.Millisecond,
		},
		{
			Event:   "connect_nodes",
			Data:    map[string]any{"source": "1", "target": "missing"},
			Expect:  "command_error",
			Timeout: DefaultTimeout,
		},
		{Event: "save", Timeout: DefaultTimeout},
	}
	if diff := cmp.Diff(want, s.Steps); diff != "" {
		t.Errorf("ParseScript() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScript_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax", src: `event "save" {`, wantErr: "failed to parse"},
		{name: "missing label", src: `event {}`, wantErr: "failed to decode"},
		{name: "bad timeout", src: `event "save" { timeout = "soon" }`, wantErr: "failed to parse timeout"},
		{name: "unknown attribute", src: `event "save" { payload = 1 }`, wantErr: "failed to decode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`event "sync" {}`), 0o600))

	s, err := LoadScript(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "sync", s.Steps[0].Event)
	assert.Nil(t, s.Steps[0].Data)
}

func TestLoadScript_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-save.hcl"), []byte(`event "save" {}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-add.hcl"), []byte(`event "add_node" {
  data = { type = "textMessage" }
}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a script"), 0o600))

	s, err := LoadScript(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "add_node", s.Steps[0].Event)
	assert.Equal(t, "save", s.Steps[1].Event)
}

func TestLoadScript_Missing(t *testing.T) {
	_, err := LoadScript(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCtyValueToInterface(t *testing.T) {
	testCases := []struct {
		name string
		in   cty.Value
		want any
	}{
		{name: "null", in: cty.NullVal(cty.String), want: nil},
		{name: "unknown", in: cty.UnknownVal(cty.String), want: nil},
		{name: "string", in: cty.StringVal("hi"), want: "hi"},
		{name: "number", in: cty.NumberIntVal(3), want: 3.0},
		{name: "bool", in: cty.True, want: true},
		{name: "list", in: cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}), want: []any{"a", "b"}},
		{name: "empty tuple", in: cty.EmptyTupleVal, want: []any{}},
		{name: "map", in: cty.MapVal(map[string]cty.Value{"k": cty.NumberFloatVal(1.5)}), want: map[string]any{"k": 1.5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ctyValueToInterface(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
