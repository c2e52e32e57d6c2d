package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/registry"
)

func TestCompileDescriptorBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		node: model_config: {
			title:       "Model"
			section:     "Configs"
			schema_name: "Schema"
			model_name:  "ModelConfig"
			fields: {
				source:  {type: "str", role: "input", native: true, default: "ollama"}
				version: {type: "Optional[str]", role: "input", optional: true}
				config:  {type: "ModelConfig", role: "output"}
			}
		}
	`)
	require.NoError(t, v.Err())

	desc, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.model_config")))
	require.NoError(t, err)

	assert.Equal(t, "model_config", desc.Type)
	assert.Equal(t, "Model", desc.Title)
	assert.Equal(t, "Schema", desc.SchemaName)
	assert.True(t, desc.Visible, "visible defaults to true")

	require.Len(t, desc.Fields, 3)
	assert.Equal(t, "source", desc.Fields[0].Name)
	assert.Equal(t, registry.RoleInput, desc.Fields[0].Role)
	assert.True(t, desc.Fields[0].Native)
	assert.Equal(t, "ollama", desc.Fields[0].Default)
	assert.Equal(t, "version", desc.Fields[1].Name)
	assert.True(t, desc.Fields[1].Optional)
	assert.Equal(t, "config", desc.Fields[2].Name)
	assert.Equal(t, registry.RoleOutput, desc.Fields[2].Role)
}

func TestCompileDescriptorFieldOrderIsDeclarationOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		node: n: fields: {
			zeta:  {type: "str", role: "input"}
			alpha: {type: "str", role: "input"}
			mid:   {type: "str", role: "output"}
		}
	`)
	desc, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.n")))
	require.NoError(t, err)

	var names []string
	for _, f := range desc.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestCompileDescriptorMissingFields(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`node: bad: { title: "Bad" }`)

	_, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.bad")))
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "fields", compileErr.Field)
}

func TestCompileDescriptorMissingType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`node: bad: fields: { x: {role: "input"} }`)

	_, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.bad")))
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "fields.x.type", compileErr.Field)
}

func TestCompileDescriptorMissingRole(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`node: bad: fields: { x: {type: "str"} }`)

	_, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.bad")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role is required")
}

func TestCompileDescriptorWrongKind(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`node: bad: { title: 42, fields: {} }`)

	_, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.bad")))
	require.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "fields", Message: "fields are required"}
	assert.Equal(t, "fields: fields are required", err.Error())
}
