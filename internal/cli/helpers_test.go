package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/compiler"
	"github.com/roach88/wiregraph/internal/editor"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/testutil"
)

// newTestSession returns an empty session over the built-in catalog.
func newTestSession(t *testing.T) *editor.Session {
	t.Helper()
	return editor.New(compiler.MustBuiltin(), nil, editor.WithLogger(testutil.DiscardLogger()))
}

// linearDocument builds Start -> Preview -> End.
func linearDocument(t *testing.T) *ir.Document {
	t.Helper()
	s := newTestSession(t)
	start, err := s.CreateNodeAt("start_flow", [2]float64{0, 0})
	require.NoError(t, err)
	preview, err := s.CreateNodeAt("preview_flow", [2]float64{200, 0})
	require.NoError(t, err)
	end, err := s.CreateNodeAt("end_flow", [2]float64{400, 0})
	require.NoError(t, err)
	_, err = s.ConnectByName(start.ID, "flow_out", preview.ID, "flow_in")
	require.NoError(t, err)
	_, err = s.ConnectByName(preview.ID, "flow_out", end.ID, "flow_in")
	require.NoError(t, err)
	return s.Document()
}

// startOnlyDocument has a Start node and nothing else.
func startOnlyDocument(t *testing.T) *ir.Document {
	t.Helper()
	s := newTestSession(t)
	_, err := s.CreateNode("start_flow")
	require.NoError(t, err)
	return s.Document()
}

// writeDocument stores doc as name in dir and returns the path.
func writeDocument(t *testing.T, dir, name string, doc *ir.Document) string {
	t.Helper()
	data, err := ir.MarshalDocument(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
