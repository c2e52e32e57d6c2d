package history

import (
	"fmt"

	"github.com/roach88/wiregraph/internal/ir"
)

// Target is the graph surface commands act on. *graph.Graph satisfies it.
type Target interface {
	Serialize() *ir.Document
	Restore(doc *ir.Document) error
	SetNodeAttribute(id ir.NodeID, attr string, slot int, value any) error
}

// Command is one reversible user action.
type Command interface {
	Label() string
	Undo(t Target) error
	Redo(t Target) error
}

// noopChecker is implemented by commands that can tell they changed nothing.
type noopChecker interface {
	IsNoop() bool
}

// SnapshotCommand swaps whole documents.
type SnapshotCommand struct {
	label  string
	Before *ir.Document
	After  *ir.Document
}

// NewSnapshot creates a snapshot command. The documents must not be mutated
// afterwards; Graph.Serialize already returns independent copies.
func NewSnapshot(label string, before, after *ir.Document) *SnapshotCommand {
	return &SnapshotCommand{label: label, Before: before, After: after}
}

// Label returns the action name.
func (c *SnapshotCommand) Label() string { return c.label }

// Undo restores the document from before the action.
func (c *SnapshotCommand) Undo(t Target) error {
	if err := t.Restore(c.Before); err != nil {
		return fmt.Errorf("undo %s: %w", c.label, err)
	}
	return nil
}

// Redo restores the document from after the action.
func (c *SnapshotCommand) Redo(t Target) error {
	if err := t.Restore(c.After); err != nil {
		return fmt.Errorf("redo %s: %w", c.label, err)
	}
	return nil
}

// IsNoop reports whether both documents hash the same.
func (c *SnapshotCommand) IsNoop() bool {
	if c.Before == nil || c.After == nil {
		return false
	}
	before, err := ir.DocumentHash(c.Before)
	if err != nil {
		return false
	}
	after, err := ir.DocumentHash(c.After)
	if err != nil {
		return false
	}
	return before == after
}

// Change is one attribute edit on one node.
type Change struct {
	Node ir.NodeID
	Attr string
	Slot int
	Old  any
	New  any
}

// DeltaCommand replays attribute changes.
type DeltaCommand struct {
	label   string
	Changes []Change
}

// NewDelta creates a delta command.
func NewDelta(label string, changes ...Change) *DeltaCommand {
	return &DeltaCommand{label: label, Changes: changes}
}

// Label returns the action name.
func (c *DeltaCommand) Label() string { return c.label }

// Undo applies old values in reverse order.
func (c *DeltaCommand) Undo(t Target) error {
	for i := len(c.Changes) - 1; i >= 0; i-- {
		ch := c.Changes[i]
		if err := t.SetNodeAttribute(ch.Node, ch.Attr, ch.Slot, ch.Old); err != nil {
			return fmt.Errorf("undo %s: %w", c.label, err)
		}
	}
	return nil
}

// Redo applies new values in order.
func (c *DeltaCommand) Redo(t Target) error {
	for _, ch := range c.Changes {
		if err := t.SetNodeAttribute(ch.Node, ch.Attr, ch.Slot, ch.New); err != nil {
			return fmt.Errorf("redo %s: %w", c.label, err)
		}
	}
	return nil
}

// IsNoop reports whether every change keeps its value. Only comparable values
// are checked; anything else counts as a change.
func (c *DeltaCommand) IsNoop() bool {
	for _, ch := range c.Changes {
		if !sameValue(ch.Old, ch.New) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
