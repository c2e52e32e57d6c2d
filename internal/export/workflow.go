package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/wiregraph/internal/editor"
	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/multislot"
	"github.com/roach88/wiregraph/internal/registry"
	"github.com/roach88/wiregraph/internal/workflow"
)

// ErrInvalidWorkflow is wrapped by every FromBackend input error.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Node is one backend node: "type" plus field values.
type Node map[string]any

// Edge is one backend edge.
type Edge struct {
	Type       string `json:"type"`
	Loop       bool   `json:"loop,omitempty"`
	Source     int    `json:"source"`
	Target     int    `json:"target"`
	SourceSlot string `json:"source_slot"`
	TargetSlot string `json:"target_slot"`
}

// Workflow is the backend interchange document.
type Workflow struct {
	Type  string `json:"type"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Marshal encodes the workflow as indented JSON.
func (w *Workflow) Marshal() ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

// Parse decodes a backend workflow.
func Parse(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	return &wf, nil
}

// ToBackend converts g. Node positions follow render order; edges follow
// link-id order. Edges inside a feedback loop carry the loop hint.
func ToBackend(g *graph.Graph) *Workflow {
	nodes := g.Nodes()
	index := make(map[ir.NodeID]int, len(nodes))
	wf := &Workflow{
		Type:  "workflow",
		Nodes: make([]Node, 0, len(nodes)),
		Edges: []Edge{},
	}
	for i, n := range nodes {
		index[n.ID] = i
		wf.Nodes = append(wf.Nodes, exportNode(n))
	}

	component := make(map[ir.NodeID]int)
	for ci, c := range workflow.FindCycles(g) {
		for _, id := range c.Path {
			component[id] = ci + 1
		}
	}

	for _, l := range g.Links() {
		origin, target := g.Node(l.OriginID), g.Node(l.TargetID)
		cs, ct := component[l.OriginID], component[l.TargetID]
		wf.Edges = append(wf.Edges, Edge{
			Type:       "edge",
			Loop:       cs != 0 && cs == ct,
			Source:     index[l.OriginID],
			Target:     index[l.TargetID],
			SourceSlot: origin.Outputs[l.OriginSlot].Name,
			TargetSlot: target.Inputs[l.TargetSlot].Name,
		})
	}
	return wf
}

func exportNode(n *graph.Node) Node {
	out := Node{}
	for k, v := range n.Properties {
		out[k] = v
	}
	out["type"] = n.Type

	if n.Descriptor == nil {
		return out
	}
	for _, f := range n.Descriptor.Fields {
		switch f.Role {
		case registry.RoleInput:
			if v, ok := n.NativeValue(n.InputIndex(f.Name)); ok {
				out[f.Name] = v
			}
		case registry.RoleMultiInput:
			if keys := slotKeys(n.MultiInputSlots[f.Name], n.InputMeta); len(keys) > 0 {
				out[f.Name] = keys
			}
		case registry.RoleMultiOutput:
			if keys := slotKeys(n.MultiOutputSlots[f.Name], n.OutputMeta); len(keys) > 0 {
				out[f.Name] = keys
			}
		}
	}
	return out
}

func slotKeys(indices []int, meta map[int]graph.SlotMeta) []string {
	keys := make([]string, 0, len(indices))
	for _, i := range indices {
		keys = append(keys, meta[i].Key)
	}
	return keys
}

// FromBackend replaces the session graph with wf, recorded as one import.
// The workflow is built on a scratch graph first, so a bad edge leaves the
// session untouched.
func FromBackend(s *editor.Session, wf *Workflow) (*graph.LoadReport, error) {
	if wf == nil {
		return nil, fmt.Errorf("%w: nil workflow", ErrInvalidWorkflow)
	}
	live := s.Graph()
	scratch := graph.New(live.Registry(),
		graph.WithMatcher(live.Matcher()),
		graph.WithLogger(live.Logger()),
		graph.WithLayout(live.Layout()),
	)
	slots := multislot.New(scratch, multislot.WithLogger(live.Logger()))

	ids := make([]ir.NodeID, len(wf.Nodes))
	for i, bn := range wf.Nodes {
		id, err := importNode(scratch, slots, bn)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrInvalidWorkflow, i, err)
		}
		ids[i] = id
	}

	for i, e := range wf.Edges {
		if e.Source < 0 || e.Source >= len(ids) || e.Target < 0 || e.Target >= len(ids) {
			return nil, fmt.Errorf("%w: edge %d: node index out of range", ErrInvalidWorkflow, i)
		}
		src, dst := ids[e.Source], ids[e.Target]
		if err := ensureSubSlot(slots, src, e.SourceSlot); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %w", ErrInvalidWorkflow, i, err)
		}
		if err := ensureSubSlot(slots, dst, e.TargetSlot); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %w", ErrInvalidWorkflow, i, err)
		}
		if _, err := scratch.ConnectByName(src, e.SourceSlot, dst, e.TargetSlot); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %w", ErrInvalidWorkflow, i, err)
		}
	}

	return s.Import(scratch.Serialize())
}

func importNode(g *graph.Graph, slots *multislot.Manager, bn Node) (ir.NodeID, error) {
	typ, _ := bn["type"].(string)
	if typ == "" {
		return 0, errors.New("missing type")
	}
	n, err := g.CreateNode(typ)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(bn))
	for k := range bn {
		if k != "type" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		value := bn[name]
		f := n.Descriptor.Field(name)
		if f == nil {
			n.Properties[name] = value
			continue
		}
		switch f.Role {
		case registry.RoleInput:
			if slot := n.InputIndex(name); f.Native && slot >= 0 {
				if err := n.SetNativeValue(slot, value); err != nil {
					return 0, err
				}
				continue
			}
			n.Properties[name] = value
		case registry.RoleMultiInput, registry.RoleMultiOutput:
			for _, key := range multiKeys(value) {
				if slots.HasKey(n.ID, name, key) {
					continue
				}
				if _, err := slots.AddSlot(n.ID, name, key); err != nil {
					return 0, fmt.Errorf("%s.%s: %w", name, key, err)
				}
			}
		default:
			n.Properties[name] = value
		}
	}
	return n.ID, nil
}

// multiKeys reads a key list or the keys of an object, the two shapes the
// backend uses for multi fields.
func multiKeys(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		keys := make([]string, 0, len(t))
		for _, k := range t {
			if s, ok := k.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}

// ensureSubSlot creates the keyed sub-slot a dotted slot name refers to.
func ensureSubSlot(slots *multislot.Manager, id ir.NodeID, slotName string) error {
	field, key, ok := splitDotted(slotName)
	if !ok || slots.HasKey(id, field, key) {
		return nil
	}
	_, err := slots.AddSlot(id, field, key)
	return err
}

func splitDotted(name string) (field, key string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}
