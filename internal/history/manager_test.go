package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/testutil"
)

// recorder is a Target that records restores and attribute writes.
type recorder struct {
	log []string
	err error
}

func (r *recorder) Serialize() *ir.Document { return &ir.Document{Nodes: []ir.NodeDoc{}} }

func (r *recorder) Restore(doc *ir.Document) error {
	if r.err != nil {
		return r.err
	}
	r.log = append(r.log, fmt.Sprintf("restore:%s", doc.Version))
	return nil
}

func (r *recorder) SetNodeAttribute(id ir.NodeID, attr string, slot int, value any) error {
	if r.err != nil {
		return r.err
	}
	r.log = append(r.log, fmt.Sprintf("%d.%s=%v", id, attr, value))
	return nil
}

// labeled is a command that only records which way it ran.
type labeled struct {
	name string
}

func (c labeled) Label() string { return c.name }

func (c labeled) Undo(t Target) error {
	return t.SetNodeAttribute(0, "undo", 0, c.name)
}

func (c labeled) Redo(t Target) error {
	return t.SetNodeAttribute(0, "redo", 0, c.name)
}

func newManager(size int) *Manager {
	return New(size, WithLogger(testutil.DiscardLogger()))
}

func TestManager_UndoRedoSequence(t *testing.T) {
	m := newManager(10)
	rec := &recorder{}

	m.Push(labeled{"A"})
	m.Push(labeled{"B"})
	assert.Equal(t, []string{"A", "B"}, m.Labels())

	ok, err := m.Undo(rec)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.Undo(rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, m.UndoLen())
	assert.Equal(t, 2, m.RedoLen())

	ok, err = m.Redo(rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"0.undo=B", "0.undo=A", "0.redo=A"}, rec.log)
	assert.Equal(t, []string{"A"}, m.Labels())
	assert.Equal(t, 1, m.RedoLen())

	m.Push(labeled{"C"})
	assert.False(t, m.CanRedo(), "push clears redo")
	assert.Equal(t, []string{"A", "C"}, m.Labels())
}

func TestManager_EmptyStacks(t *testing.T) {
	m := newManager(5)
	rec := &recorder{}

	ok, err := m.Undo(rec)
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.Redo(rec)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.log)
	assert.False(t, m.Push(nil))
}

func TestManager_EvictsOldest(t *testing.T) {
	m := newManager(3)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		m.Push(labeled{name})
	}
	assert.Equal(t, []string{"c", "d", "e"}, m.Labels())
	assert.Equal(t, 3, m.MaxSize())

	assert.Equal(t, DefaultMaxSize, New(0).MaxSize())
}

func TestManager_FailedUndoStays(t *testing.T) {
	m := newManager(5)
	m.Push(labeled{"a"})

	ok, err := m.Undo(&recorder{err: errors.New("boom")})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.UndoLen())
	assert.Equal(t, 0, m.RedoLen())
}

func TestManager_Clear(t *testing.T) {
	m := newManager(5)
	m.Push(labeled{"a"})
	m.Push(labeled{"b"})
	_, _ = m.Undo(&recorder{})
	m.Clear()
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestDeltaCommand(t *testing.T) {
	rec := &recorder{}
	cmd := NewDelta("move",
		Change{Node: 1, Attr: "pos", Old: "a1", New: "b1"},
		Change{Node: 2, Attr: "pos", Old: "a2", New: "b2"},
	)

	require.NoError(t, cmd.Redo(rec))
	require.NoError(t, cmd.Undo(rec))
	assert.Equal(t, []string{"1.pos=b1", "2.pos=b2", "2.pos=a2", "1.pos=a1"}, rec.log)
	assert.False(t, cmd.IsNoop())

	same := NewDelta("rename", Change{Node: 1, Attr: "title", Old: "x", New: "x"})
	assert.True(t, same.IsNoop())

	uncomparable := NewDelta("value", Change{Node: 1, Attr: "value", Old: []any{1}, New: []any{1}})
	assert.False(t, uncomparable.IsNoop())

	m := newManager(5)
	assert.False(t, m.Push(same))
	assert.True(t, m.Push(cmd))
}

func TestSnapshotCommand_Graph(t *testing.T) {
	g := graph.New(testutil.Registry(), graph.WithLogger(testutil.DiscardLogger()))
	m := newManager(10)

	before := g.Serialize()
	a, err := g.CreateNode("text_source")
	require.NoError(t, err)
	b, err := g.CreateNode("echo")
	require.NoError(t, err)
	_, err = g.ConnectByName(a.ID, "value", b.ID, "in")
	require.NoError(t, err)
	after := g.Serialize()
	require.True(t, m.Push(NewSnapshot("build", before, after)))

	ok, err := m.Undo(g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, ir.MustDocumentHash(before), ir.MustDocumentHash(g.Serialize()))

	ok, err = m.Redo(g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.LinkCount())
	assert.Equal(t, ir.MustDocumentHash(after), ir.MustDocumentHash(g.Serialize()))
}

func TestSnapshotCommand_Noop(t *testing.T) {
	g := graph.New(testutil.Registry(), graph.WithLogger(testutil.DiscardLogger()))
	_, err := g.CreateNode("echo")
	require.NoError(t, err)

	doc := g.Serialize()
	cmd := NewSnapshot("nothing", doc, g.Serialize())
	assert.True(t, cmd.IsNoop())
	assert.False(t, newManager(5).Push(cmd))
}

func TestDeltaCommand_Graph(t *testing.T) {
	g := graph.New(testutil.Registry(), graph.WithLogger(testutil.DiscardLogger()))
	n, err := g.CreateNode("echo")
	require.NoError(t, err)

	old := n.Pos
	require.NoError(t, g.SetNodeAttribute(n.ID, graph.AttrPos, 0, [2]float64{10, 20}))
	cmd := NewDelta("move", Change{Node: n.ID, Attr: graph.AttrPos, Old: old, New: [2]float64{10, 20}})

	require.NoError(t, cmd.Undo(g))
	assert.Equal(t, old, g.Node(n.ID).Pos)
	require.NoError(t, cmd.Redo(g))
	assert.Equal(t, [2]float64{10, 20}, g.Node(n.ID).Pos)
}
