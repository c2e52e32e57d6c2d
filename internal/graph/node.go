package graph

import (
	"strings"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/registry"
)

// InputSlot is a named, typed input connection point.
// A bundle input keeps its links in Node.MultiInputs instead of Link.
type InputSlot struct {
	Name string
	Type string
	Link ir.LinkID
}

// OutputSlot is a named, typed output connection point.
type OutputSlot struct {
	Name  string
	Type  string
	Links []ir.LinkID
}

// SlotMeta is per-slot metadata derived from the descriptor.
type SlotMeta struct {
	Field    string // descriptor field that produced the slot
	Key      string // sub-slot key for multi fields, "" otherwise
	Optional bool
}

// Link connects an output slot to an input slot.
type Link struct {
	ID         ir.LinkID
	OriginID   ir.NodeID
	OriginSlot int
	TargetID   ir.NodeID
	TargetSlot int
	Type       string // copied from the origin output at creation
}

// Node is a uniform node record. The factory fills it from a descriptor;
// multislot and the graph maintain its index maps.
type Node struct {
	ID    ir.NodeID
	Type  string
	Title string
	Pos   [2]float64
	Size  [2]float64

	Inputs  []*InputSlot
	Outputs []*OutputSlot

	// Keyed by input slot index.
	NativeInputs map[int]*ir.NativeValue
	MultiInputs  map[int][]ir.LinkID
	InputMeta    map[int]SlotMeta

	// Keyed by output slot index.
	OutputMeta map[int]SlotMeta

	// Field name to ordered slot indices for multi fields.
	MultiInputSlots  map[string][]int
	MultiOutputSlots map[string][]int

	Properties    map[string]any
	SchemaName    string
	ModelName     string
	IsNative      bool
	IsRootType    bool
	WorkflowType  string
	WorkflowIndex *int
	Color         string
	DisplayTitle  string

	Descriptor *registry.NodeDescriptor
}

// InputIndex returns the index of the named input, or -1.
func (n *Node) InputIndex(name string) int {
	for i, in := range n.Inputs {
		if in.Name == name {
			return i
		}
	}
	return -1
}

// OutputIndex returns the index of the named output, or -1.
func (n *Node) OutputIndex(name string) int {
	for i, out := range n.Outputs {
		if out.Name == name {
			return i
		}
	}
	return -1
}

// IsBundle reports whether the input slot collects many links.
func (n *Node) IsBundle(slot int) bool {
	_, ok := n.MultiInputs[slot]
	return ok
}

// InputLinkIDs returns the links entering an input slot.
func (n *Node) InputLinkIDs(slot int) []ir.LinkID {
	if slot < 0 || slot >= len(n.Inputs) {
		return nil
	}
	if ids, ok := n.MultiInputs[slot]; ok {
		return ids
	}
	if l := n.Inputs[slot].Link; l != 0 {
		return []ir.LinkID{l}
	}
	return nil
}

// IsWorkflow reports whether the node carries a workflow tag.
func (n *Node) IsWorkflow() bool {
	return n.WorkflowType != ""
}

// NativeValue returns the literal value on an input slot.
func (n *Node) NativeValue(slot int) (any, bool) {
	nv, ok := n.NativeInputs[slot]
	if !ok {
		return nil, false
	}
	return nv.Value, true
}

// SetNativeValue replaces the literal value on a native input slot.
func (n *Node) SetNativeValue(slot int, value any) error {
	nv, ok := n.NativeInputs[slot]
	if !ok {
		return &Error{
			Code:    ErrCodeInvalidAttribute,
			Message: "input slot has no literal value",
			NodeID:  n.ID,
			Slot:    slot,
		}
	}
	n.NativeInputs[slot] = &ir.NativeValue{BaseType: nv.BaseType, Value: value, Optional: nv.Optional}
	return nil
}

// splitSlotName splits a "field.key" sub-slot name.
func splitSlotName(name string) (field, key string) {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}

// SubSlotName joins a multi field and key into a slot name.
func SubSlotName(field, key string) string {
	return field + "." + key
}
