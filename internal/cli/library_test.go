package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/ir"
)

func TestLibraryRequiresDatabase(t *testing.T) {
	path := writeDocument(t, t.TempDir(), "graph.json", linearDocument(t))

	_, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--name", "demo", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, NewRevisionsCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestSaveLoadRevisions(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	linear := linearDocument(t)
	first := writeDocument(t, dir, "start.json", startOnlyDocument(t))
	second := writeDocument(t, dir, "linear.json", linear)

	out, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--db", db, "--name", "demo", first)
	require.NoError(t, err)
	assert.Contains(t, out, `Saved "demo" revision 1`)

	out, err = execute(t, NewSaveCommand(&RootOptions{Format: "json"}), "--db", db, "--name", "demo", second)
	require.NoError(t, err)
	var saved struct {
		Status string     `json:"status"`
		Data   SaveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "ok", saved.Status)
	assert.True(t, saved.Data.Inserted)
	assert.Equal(t, int64(2), saved.Data.Revision.Seq)
	assert.Equal(t, 3, saved.Data.Revision.NodeCount)
	assert.Equal(t, ir.MustDocumentHash(linear), saved.Data.Revision.ContentHash)

	// Latest by name.
	out, err = execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", db, "demo")
	require.NoError(t, err)
	doc, err := ir.ParseDocument([]byte(out))
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 3)

	// Earlier revision by id.
	out, err = execute(t, NewLoadCommand(&RootOptions{Format: "json"}), "--db", db, "--seq", "1", saved.Data.Document.ID)
	require.NoError(t, err)
	var loaded struct {
		Data LoadCommandResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &loaded))
	assert.Equal(t, int64(1), loaded.Data.Revision.Seq)
	require.NotNil(t, loaded.Data.Body)
	assert.Len(t, loaded.Data.Body.Nodes, 1)

	out, err = execute(t, NewRevisionsCommand(&RootOptions{Format: "text"}), "--db", db, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo ("+saved.Data.Document.ID+")")
	assert.Contains(t, out, "#1  1 node(s), 0 link(s)")
	assert.Contains(t, out, "#2  3 node(s), 2 link(s)")

	out, err = execute(t, NewRevisionsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, saved.Data.Document.ID+"  demo")
}

func TestSaveUnchanged(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	path := writeDocument(t, dir, "graph.json", linearDocument(t))

	_, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--db", db, "--name", "demo", path)
	require.NoError(t, err)

	out, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--db", db, "--name", "demo", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"demo" unchanged, matches revision 1`)
}

func TestLoadToFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	path := writeDocument(t, dir, "graph.json", linearDocument(t))
	outPath := filepath.Join(dir, "restored", "graph.json")

	_, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--db", db, "--name", "demo", path)
	require.NoError(t, err)

	out, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", db, "demo", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "revision 1 to "+outPath)

	doc, err := LoadDocumentFile(outPath)
	require.NoError(t, err)
	assert.Len(t, doc.Links, 2)
}

func TestLibraryNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	tests := []struct {
		name string
		cmd  func(*RootOptions) *cobra.Command
	}{
		{name: "load", cmd: NewLoadCommand},
		{name: "revisions", cmd: NewRevisionsCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.cmd(&RootOptions{Format: "text"}), "--db", db, "missing")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), ErrCodeNotFound)
			assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
		})
	}
}

func TestLoadMissingRevision(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	path := writeDocument(t, dir, "graph.json", linearDocument(t))

	_, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), "--db", db, "--name", "demo", path)
	require.NoError(t, err)

	_, err = execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", db, "--seq", "7", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestRevisionsEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out, err := execute(t, NewRevisionsCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found in database.")

	out, err = execute(t, NewRevisionsCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, `"data":[]`)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}
