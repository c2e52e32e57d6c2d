package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agentDescriptor() *NodeDescriptor {
	return &NodeDescriptor{
		Type:  "agent_config",
		Title: "Agent",
		Fields: []FieldDescriptor{
			{Name: "name", Type: "str", Role: RoleInput, Native: true},
			{Name: "model", Type: "ModelConfig", Role: RoleInput},
			{Name: "tools", Type: "Optional[Dict[str, ToolConfig]]", Role: RoleMultiInput, Optional: true, ElementType: "ToolConfig"},
			{Name: "note", Type: "str", Role: RoleAnnotation},
			{Name: "self", Type: "AgentConfig", Role: RoleOutput},
		},
	}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(agentDescriptor()))

	d, ok := r.Lookup("agent_config")
	require.True(t, ok)
	assert.Equal(t, "Agent", d.DisplayTitle())
	assert.Equal(t, 1, r.Len())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(agentDescriptor()))
	err := r.Register(agentDescriptor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&NodeDescriptor{}))
	assert.Panics(t, func() { r.MustRegister(&NodeDescriptor{}) })
}

func TestRegistry_TypesSorted(t *testing.T) {
	r := New()
	r.MustRegister(
		&NodeDescriptor{Type: "end_flow"},
		&NodeDescriptor{Type: "agent_config"},
		&NodeDescriptor{Type: "start_flow"},
	)
	assert.Equal(t, []string{"agent_config", "end_flow", "start_flow"}, r.Types())
}

func TestNodeDescriptor_Fields(t *testing.T) {
	d := agentDescriptor()

	inputs := d.Inputs()
	require.Len(t, inputs, 3)
	assert.Equal(t, "name", inputs[0].Name)
	assert.Equal(t, "tools", inputs[2].Name)

	outputs := d.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "self", outputs[0].Name)

	require.NotNil(t, d.Field("tools"))
	assert.True(t, d.Field("tools").Role.IsMulti())
	assert.Nil(t, d.Field("missing"))
	assert.Equal(t, "agent_config(5 fields)", d.String())
}

func TestFieldRole_Valid(t *testing.T) {
	for _, r := range []FieldRole{RoleAnnotation, RoleConstant, RoleInput, RoleOutput, RoleMultiInput, RoleMultiOutput} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, FieldRole("bogus").Valid())
	assert.False(t, RoleInput.IsMulti())
}

func TestNodeDescriptor_DisplayTitleFallback(t *testing.T) {
	d := &NodeDescriptor{Type: "sink_flow"}
	assert.Equal(t, "sink_flow", d.DisplayTitle())
}

func TestFieldDescriptor_SubSlotType(t *testing.T) {
	tools := FieldDescriptor{Name: "tools", Type: "Optional[Dict[str, ToolConfig]]", Role: RoleMultiInput}
	assert.Equal(t, "ToolConfig", tools.SubSlotType())

	explicit := FieldDescriptor{Name: "output", Type: "Union[List[str], Dict[str, Any]]", Role: RoleMultiOutput, ElementType: "Any"}
	assert.Equal(t, "Any", explicit.SubSlotType())
}

func TestFieldDescriptor_IsOptional(t *testing.T) {
	assert.True(t, FieldDescriptor{Type: "Optional[str]"}.IsOptional())
	assert.True(t, FieldDescriptor{Type: "str", Optional: true}.IsOptional())
	assert.False(t, FieldDescriptor{Type: "str"}.IsOptional())
}
