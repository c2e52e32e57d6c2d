package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/ir"
)

// buildSample wires text -> echo, tool -> agent.tools.search (a hand-built
// sub-slot), text -> collector and number -> collector.
func buildSample(t *testing.T, g *Graph) {
	t.Helper()
	text := mustCreate(t, g, "text_source")
	echo := mustCreate(t, g, "echo")
	tool := mustCreate(t, g, "tool")
	agent := mustCreate(t, g, "agent")
	collector := mustCreate(t, g, "collector")
	number := mustCreate(t, g, "number_source")

	idx := len(agent.Inputs)
	agent.Inputs = append(agent.Inputs, &InputSlot{Name: "tools.search", Type: "ToolConfig"})
	agent.InputMeta[idx] = SlotMeta{Field: "tools", Key: "search"}
	agent.MultiInputSlots["tools"] = append(agent.MultiInputSlots["tools"], idx)

	text.Pos = [2]float64{10, 20}

	_, err := g.Connect(text.ID, 0, echo.ID, 0)
	require.NoError(t, err)
	_, err = g.Connect(tool.ID, 0, agent.ID, idx)
	require.NoError(t, err)
	_, err = g.Connect(text.ID, 0, collector.ID, 0)
	require.NoError(t, err)
	_, err = g.Connect(number.ID, 0, collector.ID, 0)
	require.NoError(t, err)

	g.Camera = &ir.Camera{X: 1, Y: 2, Scale: 1.5}
}

func TestSerialize_RoundTrip(t *testing.T) {
	g := newTestGraph(t)
	buildSample(t, g)

	data, err := ir.MarshalDocument(g.Serialize())
	require.NoError(t, err)
	doc, err := ir.ParseDocument(data)
	require.NoError(t, err)

	g2 := newTestGraph(t)
	report, err := g2.Deserialize(doc)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	require.Equal(t, g.NodeCount(), g2.NodeCount())
	require.Equal(t, g.LinkCount(), g2.LinkCount())

	for _, n := range g.Nodes() {
		n2 := g2.Node(n.ID)
		require.NotNil(t, n2, "node %d", n.ID)
		assert.Equal(t, n.Type, n2.Type)
		assert.Equal(t, len(n.Inputs), len(n2.Inputs), "inputs of %s", n.Type)
		assert.Equal(t, len(n.Outputs), len(n2.Outputs), "outputs of %s", n.Type)
		assert.Equal(t, n.Pos, n2.Pos)
		assert.Equal(t, n.Size, n2.Size)
		for i := range n.Inputs {
			assert.Equal(t, n.InputLinkIDs(i), n2.InputLinkIDs(i))
		}
		for i := range n.Outputs {
			assert.Equal(t, n.Outputs[i].Links, n2.Outputs[i].Links)
		}
	}

	for _, l := range g.Links() {
		l2 := g2.Link(l.ID)
		require.NotNil(t, l2)
		assert.Equal(t, *l, *l2)
	}

	assert.Equal(t, g.LastLinkID(), g2.LastLinkID())
	assert.Equal(t, g.LastNodeID(), g2.LastNodeID())
	assert.Equal(t, g.Camera, g2.Camera)

	agent := g2.Node(4)
	assert.Equal(t, map[string][]int{"tools": {1}}, agent.MultiInputSlots)
	assert.Equal(t, SlotMeta{Field: "tools", Key: "search", Optional: true}, agent.InputMeta[1])

	// The canonical form is stable across the trip.
	assert.Equal(t, ir.MustDocumentHash(g.Serialize()), ir.MustDocumentHash(g2.Serialize()))
}

func TestSerialize_IndependentOfLiveState(t *testing.T) {
	g := newTestGraph(t)
	buildSample(t, g)

	doc := g.Serialize()
	before := ir.MustDocumentHash(doc)

	text := g.Node(1)
	text.Pos = [2]float64{99, 99}
	require.NoError(t, text.SetNativeValue(0, "changed"))
	g.RemoveNode(5)

	assert.Equal(t, before, ir.MustDocumentHash(doc))
}

func TestSerialize_OptionalMapsOmitted(t *testing.T) {
	g := newTestGraph(t)
	mustCreate(t, g, "echo")

	doc := g.Serialize()
	require.Len(t, doc.Nodes, 1)
	nd := doc.Nodes[0]
	assert.Nil(t, nd.NativeInputs)
	assert.Nil(t, nd.MultiInputs)
	assert.Nil(t, nd.MultiInputSlots)
	assert.Nil(t, nd.MultiOutputSlots)
	assert.NotNil(t, nd.Properties)
	assert.Equal(t, ir.DocumentVersion, doc.Version)
}

func TestDeserialize_UnknownTypeSkipped(t *testing.T) {
	doc := &ir.Document{
		Version: ir.DocumentVersion,
		Nodes: []ir.NodeDoc{
			{ID: 1, Type: "text_source"},
			{ID: 2, Type: "mystery_node"},
			{ID: 3, Type: "echo"},
		},
		Links: []ir.LinkDoc{
			{ID: 1, OriginID: 1, OriginSlot: 0, TargetID: 3, TargetSlot: 0, Type: "str"},
			{ID: 2, OriginID: 2, OriginSlot: 0, TargetID: 3, TargetSlot: 0, Type: "str"},
		},
	}

	g := newTestGraph(t)
	report, err := g.Deserialize(doc)
	require.NoError(t, err)

	assert.Equal(t, []SkippedNode{{ID: 2, Type: "mystery_node"}}, report.SkippedNodes)
	assert.Equal(t, []ir.LinkID{2}, report.DroppedLinks)
	assert.False(t, report.Clean())
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.LinkCount())
	assert.Equal(t, ir.LinkID(1), g.Node(3).Inputs[0].Link)
	assert.Equal(t, ir.LinkID(2), g.LastLinkID(), "counter still covers dropped ids")
}

func TestDeserialize_MinimalDocumentUsesDescriptor(t *testing.T) {
	doc := &ir.Document{
		Nodes: []ir.NodeDoc{{ID: 7, Type: "collector"}, {ID: 8, Type: "number_source"}},
		Links: []ir.LinkDoc{{ID: 3, OriginID: 8, OriginSlot: 0, TargetID: 7, TargetSlot: 0}},
	}

	g := newTestGraph(t)
	_, err := g.Deserialize(doc)
	require.NoError(t, err)

	c := g.Node(7)
	require.NotNil(t, c)
	assert.True(t, c.IsBundle(0))
	assert.Equal(t, []ir.LinkID{3}, c.MultiInputs[0])
	assert.Equal(t, "int", g.Link(3).Type, "empty link type is taken from the origin slot")
	assert.Equal(t, ir.NodeID(8), g.LastNodeID())
}

func TestDeserialize_DropsDanglingAndConflictingLinks(t *testing.T) {
	doc := &ir.Document{
		Nodes: []ir.NodeDoc{{ID: 1, Type: "text_source"}, {ID: 2, Type: "echo"}},
		Links: []ir.LinkDoc{
			{ID: 1, OriginID: 1, OriginSlot: 0, TargetID: 2, TargetSlot: 0},
			{ID: 2, OriginID: 1, OriginSlot: 0, TargetID: 2, TargetSlot: 0}, // scalar already linked
			{ID: 3, OriginID: 1, OriginSlot: 5, TargetID: 2, TargetSlot: 0}, // slot out of range
			{ID: 4, OriginID: 9, OriginSlot: 0, TargetID: 2, TargetSlot: 0}, // missing node
			{ID: 1, OriginID: 1, OriginSlot: 0, TargetID: 2, TargetSlot: 0}, // duplicate id
		},
	}

	g := newTestGraph(t)
	report, err := g.Deserialize(doc)
	require.NoError(t, err)
	assert.Equal(t, []ir.LinkID{2, 3, 4, 1}, report.DroppedLinks)
	assert.Equal(t, 1, g.LinkCount())
}

func TestDeserialize_Malformed(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Deserialize(nil)
	assert.ErrorIs(t, err, ir.ErrMalformedDocument)

	_, err = g.Deserialize(&ir.Document{})
	assert.ErrorIs(t, err, ir.ErrMalformedDocument)
}

func TestDeserialize_ReplacesExistingState(t *testing.T) {
	g := newTestGraph(t)
	buildSample(t, g)

	g2 := newTestGraph(t)
	mustCreate(t, g2, "echo")
	require.NoError(t, g2.Restore(g.Serialize()))

	assert.Equal(t, g.NodeCount(), g2.NodeCount())
	assert.Equal(t, "text_source", g2.Node(1).Type)
}

func TestSetNodeAttribute(t *testing.T) {
	g := newTestGraph(t)
	text := mustCreate(t, g, "text_source")

	require.NoError(t, g.SetNodeAttribute(text.ID, AttrPos, 0, [2]float64{5, 6}))
	assert.Equal(t, [2]float64{5, 6}, text.Pos)

	require.NoError(t, g.SetNodeAttribute(text.ID, AttrSize, 0, []any{200.0, 80.0}))
	assert.Equal(t, [2]float64{200, 80}, text.Size)

	require.NoError(t, g.SetNodeAttribute(text.ID, AttrTitle, 0, "Greeting"))
	assert.Equal(t, "Greeting", text.Title)

	require.NoError(t, g.SetNodeAttribute(text.ID, AttrValue, 0, "bye"))
	v, err := g.NodeAttribute(text.ID, AttrValue, 0)
	require.NoError(t, err)
	assert.Equal(t, "bye", v)

	assert.True(t, HasCode(g.SetNodeAttribute(text.ID, AttrPos, 0, "nope"), ErrCodeInvalidAttribute))
	assert.True(t, HasCode(g.SetNodeAttribute(text.ID, "weight", 0, 1), ErrCodeInvalidAttribute))
	assert.True(t, HasCode(g.SetNodeAttribute(text.ID, AttrValue, 3, "x"), ErrCodeInvalidAttribute))
	assert.True(t, IsNodeNotFound(g.SetNodeAttribute(42, AttrTitle, 0, "x")))
}
