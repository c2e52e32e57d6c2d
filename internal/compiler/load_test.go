package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/registry"
)

func writeCUE(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
}

func TestLoadDir_MergesPackageFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `
package nodes

node: upper: {
	title: "Upper"
	fields: {
		in:  {type: "str", role: "input"}
		out: {type: "str", role: "output"}
	}
}
`)
	writeCUE(t, dir, "b.cue", `
package nodes

node: counter: {
	fields: {
		start: {type: "int", role: "input", native: true, default: 1}
		value: {type: "int", role: "output"}
	}
}
`)

	descs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "counter", descs[0].Type)
	assert.Equal(t, "upper", descs[1].Type)
	assert.Equal(t, "Miscellanea", descs[0].Section)
	assert.EqualValues(t, 1, descs[0].Fields[0].Default)
	assert.Equal(t, registry.RoleOutput, descs[1].Fields[1].Role)
}

func TestLoadDir_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})

	t.Run("not a directory", func(t *testing.T) {
		dir := t.TempDir()
		writeCUE(t, dir, "x.cue", "package x\n")
		_, err := LoadDir(filepath.Join(dir, "x.cue"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("no files", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("schema violation", func(t *testing.T) {
		dir := t.TempDir()
		writeCUE(t, dir, "bad.cue", `
package nodes

node: broken: {
	fields: {
		in: {type: "str", role: "sideways"}
	}
}
`)
		_, err := LoadDir(dir)
		require.Error(t, err)
	})
}

func TestLoadRegistry_OverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "override.cue", `
package nodes

node: native_string: {
	title: "Label"
	fields: {
		raw:   {type: "str", role: "input", native: true, default: "hi"}
		value: {type: "str", role: "output"}
	}
}

node: shout: {
	fields: {
		in:  {type: "str", role: "input"}
		out: {type: "str", role: "output"}
	}
}
`)

	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	d, ok := reg.Lookup("native_string")
	require.True(t, ok)
	assert.Equal(t, "Label", d.Title)

	_, ok = reg.Lookup("shout")
	assert.True(t, ok)
	_, ok = reg.Lookup("start_flow")
	assert.True(t, ok)
}

func TestLoadRegistry_EmptyDirIsBuiltin(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Equal(t, MustBuiltin().Len(), reg.Len())
}
