package multislot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/testutil"
)

func setup(t *testing.T) (*graph.Graph, *Manager) {
	t.Helper()
	g := graph.New(testutil.Registry(), graph.WithLogger(testutil.DiscardLogger()))
	return g, New(g)
}

func create(t *testing.T, g *graph.Graph, nodeType string) *graph.Node {
	t.Helper()
	n, err := g.CreateNode(nodeType)
	require.NoError(t, err)
	return n
}

func TestAddSlot(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")
	before := agent.Size

	idx, err := m.AddSlot(agent.ID, "tools", "search")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	slot := agent.Inputs[idx]
	assert.Equal(t, "tools.search", slot.Name)
	assert.Equal(t, "ToolConfig", slot.Type)
	assert.Equal(t, []int{1}, agent.MultiInputSlots["tools"])
	assert.Equal(t, graph.SlotMeta{Field: "tools", Key: "search", Optional: true}, agent.InputMeta[1])
	assert.Equal(t, []string{"search"}, m.ListKeys(agent.ID, "tools"))
	assert.True(t, m.HasKey(agent.ID, "tools", "search"))
	assert.NotEqual(t, before, agent.Size, "size is recomputed")
}

func TestAddSlot_Output(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	idx, err := m.AddSlot(agent.ID, "branches", "yes")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "branches.yes", agent.Outputs[idx].Name)
	assert.Equal(t, "Any", agent.Outputs[idx].Type)
	assert.Equal(t, []int{1}, agent.MultiOutputSlots["branches"])

	slot, input, err := m.SlotIndex(agent.ID, "branches", "yes")
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
	assert.False(t, input)
}

func TestAddSlot_DuplicateKeyRejectedWithoutMutation(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	_, err := m.AddSlot(agent.ID, "tools", "search")
	require.NoError(t, err)
	size := agent.Size

	_, err = m.AddSlot(agent.ID, "tools", "search")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Len(t, agent.Inputs, 2)
	assert.Equal(t, []int{1}, agent.MultiInputSlots["tools"])
	assert.Equal(t, size, agent.Size)
}

func TestAddSlot_Errors(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")
	echo := create(t, g, "echo")

	_, err := m.AddSlot(agent.ID, "model", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = m.AddSlot(echo.ID, "tools", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = m.AddSlot(agent.ID, "tools", "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = m.AddSlot(agent.ID, "tools", "a.b")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = m.AddSlot(99, "tools", "x")
	assert.ErrorIs(t, err, ErrUnknownNode)

	assert.Len(t, agent.Inputs, 1)
}

func TestAddSlot_KeyNormalized(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	_, err := m.AddSlot(agent.ID, "tools", " cafe\u0301 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\u00e9"}, m.ListKeys(agent.ID, "tools"))

	_, err = m.AddSlot(agent.ID, "tools", "caf\u00e9")
	assert.ErrorIs(t, err, ErrDuplicateKey, "composed and decomposed forms are the same key")
}

// Five sub-slots under one field; removing the one at index 2 must leave the
// rest name-addressable with no gaps and shift the link on slot 4 to slot 3.
func TestRemoveSlot_RenumbersEverything(t *testing.T) {
	g, m := setup(t)
	hub := create(t, g, "hub")

	keys := []string{"a", "b", "c", "d", "e"}
	for i, k := range keys {
		idx, err := m.AddSlot(hub.ID, "ports", k)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}

	src4 := create(t, g, "text_source")
	src1 := create(t, g, "number_source")
	src2 := create(t, g, "text_source")
	l4, err := g.Connect(src4.ID, 0, hub.ID, 4)
	require.NoError(t, err)
	l1, err := g.Connect(src1.ID, 0, hub.ID, 1)
	require.NoError(t, err)
	l2, err := g.Connect(src2.ID, 0, hub.ID, 2)
	require.NoError(t, err)

	// Attach metadata and a literal above the removal point.
	hub.NativeInputs[3] = &ir.NativeValue{BaseType: "Any", Value: "lit-d"}

	require.NoError(t, m.RemoveSlot(hub.ID, "ports", "c"))

	assert.Equal(t, []string{"a", "b", "d", "e"}, m.ListKeys(hub.ID, "ports"))
	assert.Equal(t, []int{0, 1, 2, 3}, hub.MultiInputSlots["ports"])
	for i, k := range []string{"a", "b", "d", "e"} {
		assert.Equal(t, i, hub.InputIndex("ports."+k))
		assert.Equal(t, k, hub.InputMeta[i].Key)
	}
	assert.Len(t, hub.InputMeta, 4)

	// Link that targeted slot 4 now targets slot 3 on both the link and the slot.
	assert.Equal(t, 3, g.Link(l4.ID).TargetSlot)
	assert.Equal(t, l4.ID, hub.Inputs[3].Link)
	assert.Equal(t, 1, g.Link(l1.ID).TargetSlot)

	// The link on the removed slot is gone from both ends.
	assert.Nil(t, g.Link(l2.ID))
	assert.Empty(t, src2.Outputs[0].Links)

	// Literal moved with its slot.
	v, ok := hub.NativeValue(2)
	require.True(t, ok)
	assert.Equal(t, "lit-d", v)
	_, ok = hub.NativeValue(3)
	assert.False(t, ok)

	// Every remaining link endpoint is in range.
	for _, l := range g.Links() {
		assert.Less(t, l.TargetSlot, len(g.Node(l.TargetID).Inputs))
	}
}

func TestRemoveSlot_OtherFieldIndicesShift(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	_, err := m.AddSlot(agent.ID, "tools", "search")
	require.NoError(t, err)
	_, err = m.AddSlot(agent.ID, "tools", "fetch")
	require.NoError(t, err)

	tool := create(t, g, "tool")
	l, err := g.Connect(tool.ID, 0, agent.ID, 2)
	require.NoError(t, err)

	require.NoError(t, m.RemoveSlot(agent.ID, "tools", "search"))
	assert.Equal(t, []int{1}, agent.MultiInputSlots["tools"])
	assert.Equal(t, "tools.fetch", agent.Inputs[1].Name)
	assert.Equal(t, 1, g.Link(l.ID).TargetSlot)
	assert.Equal(t, 0, agent.InputIndex("model"), "static slot below the removal is untouched")
}

func TestRemoveSlot_OutputRenumbersOrigins(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")
	for _, k := range []string{"x", "y", "z"} {
		_, err := m.AddSlot(agent.ID, "branches", k)
		require.NoError(t, err)
	}
	// outputs: config(0), branches.x(1), branches.y(2), branches.z(3)
	relay := create(t, g, "relay")
	relay2 := create(t, g, "relay")
	lz, err := g.Connect(agent.ID, 3, relay.ID, 0)
	require.NoError(t, err)
	lx, err := g.Connect(agent.ID, 1, relay2.ID, 0)
	require.NoError(t, err)

	require.NoError(t, m.RemoveSlot(agent.ID, "branches", "x"))

	assert.Nil(t, g.Link(lx.ID))
	assert.Equal(t, ir.LinkID(0), relay2.Inputs[0].Link)
	assert.Equal(t, 2, g.Link(lz.ID).OriginSlot)
	assert.Equal(t, []ir.LinkID{lz.ID}, agent.Outputs[2].Links)
	assert.Equal(t, []string{"y", "z"}, m.ListKeys(agent.ID, "branches"))
	assert.Equal(t, []int{1, 2}, agent.MultiOutputSlots["branches"])
}

func TestRemoveSlot_SurvivesRoundTrip(t *testing.T) {
	g, m := setup(t)
	hub := create(t, g, "hub")
	for _, k := range []string{"a", "b", "c"} {
		_, err := m.AddSlot(hub.ID, "ports", k)
		require.NoError(t, err)
	}
	src := create(t, g, "text_source")
	_, err := g.Connect(src.ID, 0, hub.ID, 2)
	require.NoError(t, err)
	require.NoError(t, m.RemoveSlot(hub.ID, "ports", "a"))

	g2 := graph.New(testutil.Registry(), graph.WithLogger(testutil.DiscardLogger()))
	report, err := g2.Deserialize(g.Serialize())
	require.NoError(t, err)
	require.True(t, report.Clean())

	m2 := New(g2)
	assert.Equal(t, []string{"b", "c"}, m2.ListKeys(hub.ID, "ports"))
	assert.Equal(t, 1, g2.Links()[0].TargetSlot)

	_, err = m2.AddSlot(hub.ID, "ports", "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, m2.ListKeys(hub.ID, "ports"))
}

func TestRemoveSlot_Errors(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	assert.ErrorIs(t, m.RemoveSlot(agent.ID, "tools", "missing"), ErrUnknownKey)
	assert.ErrorIs(t, m.RemoveSlot(agent.ID, "model", "x"), ErrUnknownField)
	assert.ErrorIs(t, m.RemoveSlot(42, "tools", "x"), ErrUnknownNode)
}

func TestListKeys_EmptyAndUnknown(t *testing.T) {
	g, m := setup(t)
	agent := create(t, g, "agent")

	assert.Equal(t, []string{}, m.ListKeys(agent.ID, "tools"))
	assert.Nil(t, m.ListKeys(agent.ID, "nope"))
	assert.False(t, m.HasKey(agent.ID, "tools", "x"))
}
