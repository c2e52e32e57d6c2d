package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/testutil"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	return New(testutil.Registry(), WithLogger(testutil.DiscardLogger()))
}

func mustCreate(t *testing.T, g *Graph, nodeType string) *Node {
	t.Helper()
	n, err := g.CreateNode(nodeType)
	require.NoError(t, err)
	return n
}

func TestCreateNode_Factory(t *testing.T) {
	g := newTestGraph(t)

	echo := mustCreate(t, g, "echo")
	assert.Equal(t, ir.NodeID(1), echo.ID)
	assert.Equal(t, "Echo", echo.Title)
	require.Len(t, echo.Inputs, 1)
	require.Len(t, echo.Outputs, 1)
	assert.Equal(t, "in", echo.Inputs[0].Name)
	assert.Equal(t, "str", echo.Inputs[0].Type)
	assert.Equal(t, [2]float64{140, 50}, echo.Size)
	assert.NotNil(t, echo.Properties)

	text := mustCreate(t, g, "text_source")
	v, ok := text.NativeValue(0)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.True(t, text.IsNative)

	agent := mustCreate(t, g, "agent")
	assert.Equal(t, map[string][]int{"tools": {}}, agent.MultiInputSlots)
	assert.Equal(t, map[string][]int{"branches": {}}, agent.MultiOutputSlots)
	assert.True(t, agent.IsRootType)

	collector := mustCreate(t, g, "collector")
	assert.True(t, collector.IsBundle(0))

	start := mustCreate(t, g, "start_flow")
	assert.Equal(t, "start", start.WorkflowType)
	assert.True(t, start.IsWorkflow())
	assert.False(t, echo.IsWorkflow())
}

func TestCreateNode_UnknownType(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.CreateNode("nope")
	require.Error(t, err)
	assert.True(t, IsUnknownNodeType(err))
	assert.Equal(t, 0, g.NodeCount())
}

func TestAddNode_Errors(t *testing.T) {
	g := newTestGraph(t)

	err := g.AddNode(nil)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeNilNode))

	n := mustCreate(t, g, "echo")
	dup, err := g.NewNode("echo")
	require.NoError(t, err)
	dup.ID = n.ID
	err = g.AddNode(dup)
	assert.True(t, HasCode(err, ErrCodeDuplicateNode))
	assert.Equal(t, 1, g.NodeCount())
}

func TestAddNode_KeepsExplicitID(t *testing.T) {
	g := newTestGraph(t)
	n, err := g.NewNode("echo")
	require.NoError(t, err)
	n.ID = 10
	require.NoError(t, g.AddNode(n))

	next := mustCreate(t, g, "echo")
	assert.Equal(t, ir.NodeID(11), next.ID)
}

func TestConnect(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")

	l, err := g.Connect(src.ID, 0, dst.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, ir.LinkID(1), l.ID)
	assert.Equal(t, "str", l.Type)
	assert.Equal(t, []ir.LinkID{1}, src.Outputs[0].Links)
	assert.Equal(t, ir.LinkID(1), dst.Inputs[0].Link)
	assert.Same(t, l, g.Link(1))
	assert.Equal(t, 1, g.LinkCount())
}

func TestConnect_TypeMismatchLeavesGraphUntouched(t *testing.T) {
	g := newTestGraph(t)
	num := mustCreate(t, g, "number_source")
	dst := mustCreate(t, g, "echo")

	l, err := g.Connect(num.ID, 0, dst.ID, 0)
	assert.Nil(t, l)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))

	assert.Equal(t, 0, g.LinkCount())
	assert.Equal(t, ir.LinkID(0), g.LastLinkID())
	assert.Empty(t, num.Outputs[0].Links)
	assert.Equal(t, ir.LinkID(0), dst.Inputs[0].Link)
}

func TestConnect_OccupiedInputNotOverwritten(t *testing.T) {
	g := newTestGraph(t)
	a := mustCreate(t, g, "text_source")
	b := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")

	first, err := g.Connect(a.ID, 0, dst.ID, 0)
	require.NoError(t, err)

	_, err = g.Connect(b.ID, 0, dst.ID, 0)
	require.Error(t, err)
	assert.True(t, IsInputOccupied(err))
	assert.Equal(t, first.ID, dst.Inputs[0].Link)
	assert.Empty(t, b.Outputs[0].Links)

	require.True(t, g.RemoveLink(first.ID))
	_, err = g.Connect(b.ID, 0, dst.ID, 0)
	require.NoError(t, err)
}

func TestConnect_Bundle(t *testing.T) {
	g := newTestGraph(t)
	a := mustCreate(t, g, "text_source")
	b := mustCreate(t, g, "number_source")
	c := mustCreate(t, g, "collector")

	l1, err := g.Connect(a.ID, 0, c.ID, 0)
	require.NoError(t, err)
	l2, err := g.Connect(b.ID, 0, c.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, []ir.LinkID{l1.ID, l2.ID}, c.MultiInputs[0])
	assert.Equal(t, ir.LinkID(0), c.Inputs[0].Link)
	assert.Equal(t, []ir.LinkID{l1.ID, l2.ID}, c.InputLinkIDs(0))

	require.True(t, g.RemoveLink(l1.ID))
	assert.Equal(t, []ir.LinkID{l2.ID}, c.MultiInputs[0])
	assert.Empty(t, a.Outputs[0].Links)
}

func TestConnect_SelfConnectionAllowed(t *testing.T) {
	g := newTestGraph(t)
	r := mustCreate(t, g, "relay")

	l, err := g.Connect(r.ID, 0, r.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, r.ID, l.OriginID)
	assert.Equal(t, r.ID, l.TargetID)

	assert.True(t, g.RemoveNode(r.ID))
	assert.Equal(t, 0, g.LinkCount())
}

func TestConnect_Errors(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")

	_, err := g.Connect(99, 0, dst.ID, 0)
	assert.True(t, IsNodeNotFound(err))

	_, err = g.Connect(src.ID, 0, 99, 0)
	assert.True(t, IsNodeNotFound(err))

	_, err = g.Connect(src.ID, 3, dst.ID, 0)
	assert.True(t, HasCode(err, ErrCodeSlotOutOfRange))

	_, err = g.Connect(src.ID, 0, dst.ID, -1)
	assert.True(t, HasCode(err, ErrCodeSlotOutOfRange))
}

func TestConnectByName(t *testing.T) {
	g := newTestGraph(t)
	tool := mustCreate(t, g, "tool")
	relay := mustCreate(t, g, "relay")

	l, err := g.ConnectByName(tool.ID, "config", relay.ID, "in")
	require.NoError(t, err)
	assert.Equal(t, "Schema.ToolConfig", l.Type)

	_, err = g.ConnectByName(tool.ID, "missing", relay.ID, "in")
	assert.True(t, HasCode(err, ErrCodeSlotOutOfRange))

	_, err = g.ConnectByName(tool.ID, "config", relay.ID, "missing")
	assert.True(t, HasCode(err, ErrCodeSlotOutOfRange))
}

func TestRemoveLink(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")
	l, err := g.Connect(src.ID, 0, dst.ID, 0)
	require.NoError(t, err)

	assert.True(t, g.RemoveLink(l.ID))
	assert.False(t, g.RemoveLink(l.ID))
	assert.Empty(t, src.Outputs[0].Links)
	assert.Equal(t, ir.LinkID(0), dst.Inputs[0].Link)
	assert.Nil(t, g.Link(l.ID))
}

func TestLinkIDsNeverReused(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")

	l1, err := g.Connect(src.ID, 0, dst.ID, 0)
	require.NoError(t, err)
	require.True(t, g.RemoveLink(l1.ID))

	l2, err := g.Connect(src.ID, 0, dst.ID, 0)
	require.NoError(t, err)
	assert.Greater(t, l2.ID, l1.ID)
}

func TestRemoveNode_Idempotent(t *testing.T) {
	g := newTestGraph(t)
	a := mustCreate(t, g, "text_source")
	b := mustCreate(t, g, "echo")
	c := mustCreate(t, g, "text_source")
	d := mustCreate(t, g, "echo")

	_, err := g.Connect(a.ID, 0, b.ID, 0)
	require.NoError(t, err)
	unrelated, err := g.Connect(c.ID, 0, d.ID, 0)
	require.NoError(t, err)

	assert.True(t, g.RemoveNode(b.ID))
	assert.NotPanics(t, func() {
		assert.False(t, g.RemoveNode(b.ID))
	})

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 1, g.LinkCount())
	assert.Empty(t, a.Outputs[0].Links)
	assert.Same(t, unrelated, g.Link(unrelated.ID))
	assert.Equal(t, unrelated.ID, d.Inputs[0].Link)
}

func TestRemoveNode_CleansOppositeEndpoints(t *testing.T) {
	g := newTestGraph(t)
	a := mustCreate(t, g, "text_source")
	b := mustCreate(t, g, "text_source")
	c := mustCreate(t, g, "collector")
	e := mustCreate(t, g, "echo")

	_, err := g.Connect(a.ID, 0, c.ID, 0)
	require.NoError(t, err)
	lb, err := g.Connect(b.ID, 0, c.ID, 0)
	require.NoError(t, err)
	_, err = g.Connect(a.ID, 0, e.ID, 0)
	require.NoError(t, err)

	// Removing an origin splices the bundle list and nulls the scalar input.
	require.True(t, g.RemoveNode(a.ID))
	assert.Equal(t, []ir.LinkID{lb.ID}, c.MultiInputs[0])
	assert.Equal(t, ir.LinkID(0), e.Inputs[0].Link)

	// Removing the bundle owner clears the remaining origin.
	require.True(t, g.RemoveNode(c.ID))
	assert.Empty(t, b.Outputs[0].Links)
	assert.Equal(t, 0, g.LinkCount())
}

func TestNodesRenderOrder(t *testing.T) {
	g := newTestGraph(t)
	a := mustCreate(t, g, "echo")
	b := mustCreate(t, g, "echo")
	c := mustCreate(t, g, "echo")
	g.RemoveNode(b.ID)

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, a.ID, nodes[0].ID)
	assert.Equal(t, c.ID, nodes[1].ID)
}

func TestClearKeepsCounters(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "text_source")
	dst := mustCreate(t, g, "echo")
	_, err := g.Connect(src.ID, 0, dst.ID, 0)
	require.NoError(t, err)

	g.Clear()
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.LinkCount())

	n := mustCreate(t, g, "echo")
	assert.Equal(t, ir.NodeID(3), n.ID)
}

func TestErrorFormat(t *testing.T) {
	err := &Error{Code: ErrCodeTypeMismatch, Message: "bad", NodeID: 4}
	assert.Equal(t, "TYPE_MISMATCH: bad (node=4)", err.Error())

	err = &Error{Code: ErrCodeLinkNotFound, Message: "gone", LinkID: 7}
	assert.Equal(t, "LINK_NOT_FOUND: gone (link=7)", err.Error())

	wrapped := errors.Join(errors.New("context"), &Error{Code: ErrCodeInputOccupied})
	assert.True(t, IsInputOccupied(wrapped))
	assert.False(t, IsTypeMismatch(wrapped))
}
