package graph

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/registry"
)

// Layout holds the constants used to size nodes.
type Layout struct {
	SlotHeight   float64
	TitleHeight  float64
	MinWidth     float64
	WidthPerChar float64
}

// DefaultLayout returns the default sizing constants.
func DefaultLayout() Layout {
	return Layout{
		SlotHeight:   20,
		TitleHeight:  30,
		MinWidth:     140,
		WidthPerChar: 7,
	}
}

// NewNode builds a node of the given type without adding it to the graph.
// The id is left zero so AddNode allocates one.
func (g *Graph) NewNode(nodeType string) (*Node, error) {
	desc, ok := g.registry.Lookup(nodeType)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeUnknownNodeType,
			Message: fmt.Sprintf("node type %q is not registered", nodeType),
		}
	}
	n := buildNode(desc)
	g.RecomputeSize(n)
	return n, nil
}

// buildNode interprets a descriptor into a node record.
func buildNode(desc *registry.NodeDescriptor) *Node {
	n := &Node{
		Type:         desc.Type,
		Title:        desc.DisplayTitle(),
		NativeInputs: make(map[int]*ir.NativeValue),
		MultiInputs:  make(map[int][]ir.LinkID),
		InputMeta:    make(map[int]SlotMeta),
		OutputMeta:   make(map[int]SlotMeta),
		Properties:   make(map[string]any),
		SchemaName:   desc.SchemaName,
		ModelName:    desc.ModelName,
		IsNative:     desc.Native,
		IsRootType:   desc.RootType,
		WorkflowType: desc.Workflow,
		Color:        desc.Color,
		Descriptor:   desc,
	}

	for _, f := range desc.Fields {
		switch f.Role {
		case registry.RoleInput:
			idx := len(n.Inputs)
			n.Inputs = append(n.Inputs, &InputSlot{Name: f.Name, Type: f.Type})
			n.InputMeta[idx] = SlotMeta{Field: f.Name, Optional: f.IsOptional()}
			if f.Bundle {
				n.MultiInputs[idx] = []ir.LinkID{}
			}
			if f.Native {
				n.NativeInputs[idx] = &ir.NativeValue{
					BaseType: f.Type,
					Value:    f.Default,
					Optional: f.IsOptional(),
				}
			}
		case registry.RoleOutput:
			idx := len(n.Outputs)
			n.Outputs = append(n.Outputs, &OutputSlot{Name: f.Name, Type: f.Type})
			n.OutputMeta[idx] = SlotMeta{Field: f.Name, Optional: f.IsOptional()}
		case registry.RoleMultiInput:
			if n.MultiInputSlots == nil {
				n.MultiInputSlots = make(map[string][]int)
			}
			n.MultiInputSlots[f.Name] = []int{}
		case registry.RoleMultiOutput:
			if n.MultiOutputSlots == nil {
				n.MultiOutputSlots = make(map[string][]int)
			}
			n.MultiOutputSlots[f.Name] = []int{}
		case registry.RoleConstant:
			if f.Default != nil {
				n.Properties[f.Name] = f.Default
			}
		}
	}
	return n
}

// RecomputeSize sets the node size from its title and slot names.
// Width never shrinks below the layout minimum.
func (g *Graph) RecomputeSize(n *Node) {
	l := g.layout

	rows := len(n.Inputs)
	if len(n.Outputs) > rows {
		rows = len(n.Outputs)
	}
	if rows == 0 {
		rows = 1
	}

	widest := func(names []string) int {
		w := 0
		for _, s := range names {
			if c := utf8.RuneCountInString(s); c > w {
				w = c
			}
		}
		return w
	}
	inNames := make([]string, len(n.Inputs))
	for i, in := range n.Inputs {
		inNames[i] = in.Name
	}
	outNames := make([]string, len(n.Outputs))
	for i, out := range n.Outputs {
		outNames[i] = out.Name
	}

	width := float64(widest(inNames)+widest(outNames))*l.WidthPerChar + 2*l.SlotHeight
	if tw := float64(utf8.RuneCountInString(n.Title))*l.WidthPerChar + l.SlotHeight; tw > width {
		width = tw
	}
	if width < l.MinWidth {
		width = l.MinWidth
	}

	n.Size = [2]float64{width, l.TitleHeight + float64(rows)*l.SlotHeight}
}
