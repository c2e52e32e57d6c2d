package multislot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
)

var (
	// ErrDuplicateKey is returned when a sub-slot key already exists on the field.
	ErrDuplicateKey = errors.New("multislot: duplicate key")

	// ErrUnknownField is returned when the node has no multi field of that name.
	ErrUnknownField = errors.New("multislot: unknown multi field")

	// ErrUnknownKey is returned when removing a key that does not exist.
	ErrUnknownKey = errors.New("multislot: unknown key")

	// ErrInvalidKey is returned for empty keys or keys containing '.'.
	ErrInvalidKey = errors.New("multislot: invalid key")

	// ErrUnknownNode is returned when the node is not live.
	ErrUnknownNode = errors.New("multislot: unknown node")
)

// side selects the input or output half of a node.
type side int

const (
	inputSide side = iota
	outputSide
)

// Manager adds and removes keyed sub-slots on a graph's nodes.
type Manager struct {
	g      *graph.Graph
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: the graph's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a Manager over g.
func New(g *graph.Graph, opts ...Option) *Manager {
	m := &Manager{g: g, logger: g.Logger()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeKey returns the canonical form of a sub-slot key.
func NormalizeKey(key string) (string, error) {
	k := norm.NFC.String(strings.TrimSpace(key))
	if k == "" || strings.ContainsRune(k, '.') {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// AddSlot appends a sub-slot named field.key and returns its slot index.
// Nothing is mutated when an error is returned.
func (m *Manager) AddSlot(id ir.NodeID, field, key string) (int, error) {
	n, s, err := m.resolve(id, field)
	if err != nil {
		return -1, err
	}
	k, err := NormalizeKey(key)
	if err != nil {
		return -1, err
	}
	name := graph.SubSlotName(field, k)

	typ := "*"
	optional := false
	if n.Descriptor != nil {
		if f := n.Descriptor.Field(field); f != nil {
			if st := f.SubSlotType(); st != "" {
				typ = st
			}
			optional = f.IsOptional()
		}
	}
	meta := graph.SlotMeta{Field: field, Key: k, Optional: optional}

	var idx int
	switch s {
	case inputSide:
		if n.InputIndex(name) >= 0 {
			return -1, fmt.Errorf("%w: %q on node %d", ErrDuplicateKey, name, id)
		}
		idx = len(n.Inputs)
		n.Inputs = append(n.Inputs, &graph.InputSlot{Name: name, Type: typ})
		n.InputMeta[idx] = meta
		n.MultiInputSlots[field] = append(n.MultiInputSlots[field], idx)
	case outputSide:
		if n.OutputIndex(name) >= 0 {
			return -1, fmt.Errorf("%w: %q on node %d", ErrDuplicateKey, name, id)
		}
		idx = len(n.Outputs)
		n.Outputs = append(n.Outputs, &graph.OutputSlot{Name: name, Type: typ})
		n.OutputMeta[idx] = meta
		n.MultiOutputSlots[field] = append(n.MultiOutputSlots[field], idx)
	}

	m.g.RecomputeSize(n)
	m.logger.Debug("sub-slot added", "node_id", id, "slot", name, "index", idx)
	return idx, nil
}

// RemoveSlot tears down links on field.key, removes the slot and renumbers
// every index above it in one pass.
func (m *Manager) RemoveSlot(id ir.NodeID, field, key string) error {
	n, s, err := m.resolve(id, field)
	if err != nil {
		return err
	}
	k := norm.NFC.String(strings.TrimSpace(key))
	name := graph.SubSlotName(field, k)

	switch s {
	case inputSide:
		idx := n.InputIndex(name)
		if idx < 0 || !contains(n.MultiInputSlots[field], idx) {
			return fmt.Errorf("%w: %q on node %d", ErrUnknownKey, name, id)
		}
		for _, lid := range append([]ir.LinkID(nil), n.InputLinkIDs(idx)...) {
			m.g.RemoveLink(lid)
		}
		n.Inputs = append(n.Inputs[:idx], n.Inputs[idx+1:]...)
		n.MultiInputSlots = shiftGrouping(n.MultiInputSlots, idx)
		n.InputMeta = shiftKeys(n.InputMeta, idx)
		n.NativeInputs = shiftKeys(n.NativeInputs, idx)
		n.MultiInputs = shiftKeys(n.MultiInputs, idx)
		for _, l := range m.g.LinksTouching(id) {
			if l.TargetID == id && l.TargetSlot > idx {
				l.TargetSlot--
			}
		}
		m.logger.Debug("sub-slot removed", "node_id", id, "slot", name, "index", idx)

	case outputSide:
		idx := n.OutputIndex(name)
		if idx < 0 || !contains(n.MultiOutputSlots[field], idx) {
			return fmt.Errorf("%w: %q on node %d", ErrUnknownKey, name, id)
		}
		for _, lid := range append([]ir.LinkID(nil), n.Outputs[idx].Links...) {
			m.g.RemoveLink(lid)
		}
		n.Outputs = append(n.Outputs[:idx], n.Outputs[idx+1:]...)
		n.MultiOutputSlots = shiftGrouping(n.MultiOutputSlots, idx)
		n.OutputMeta = shiftKeys(n.OutputMeta, idx)
		for _, l := range m.g.LinksTouching(id) {
			if l.OriginID == id && l.OriginSlot > idx {
				l.OriginSlot--
			}
		}
		m.logger.Debug("sub-slot removed", "node_id", id, "slot", name, "index", idx)
	}

	m.g.RecomputeSize(n)
	return nil
}

// ListKeys returns the keys of a multi field in slot order.
func (m *Manager) ListKeys(id ir.NodeID, field string) []string {
	n, s, err := m.resolve(id, field)
	if err != nil {
		return nil
	}
	prefix := field + "."
	keys := []string{}
	switch s {
	case inputSide:
		for _, idx := range n.MultiInputSlots[field] {
			keys = append(keys, strings.TrimPrefix(n.Inputs[idx].Name, prefix))
		}
	case outputSide:
		for _, idx := range n.MultiOutputSlots[field] {
			keys = append(keys, strings.TrimPrefix(n.Outputs[idx].Name, prefix))
		}
	}
	return keys
}

// HasKey reports whether field.key exists on the node.
func (m *Manager) HasKey(id ir.NodeID, field, key string) bool {
	k := norm.NFC.String(strings.TrimSpace(key))
	for _, existing := range m.ListKeys(id, field) {
		if existing == k {
			return true
		}
	}
	return false
}

// SlotIndex returns the slot index of field.key and whether it is an input.
func (m *Manager) SlotIndex(id ir.NodeID, field, key string) (idx int, input bool, err error) {
	n, s, err := m.resolve(id, field)
	if err != nil {
		return -1, false, err
	}
	name := graph.SubSlotName(field, norm.NFC.String(strings.TrimSpace(key)))
	if s == inputSide {
		idx = n.InputIndex(name)
	} else {
		idx = n.OutputIndex(name)
	}
	if idx < 0 {
		return -1, false, fmt.Errorf("%w: %q on node %d", ErrUnknownKey, name, id)
	}
	return idx, s == inputSide, nil
}

// resolve finds the node and which side carries the multi field.
func (m *Manager) resolve(id ir.NodeID, field string) (*graph.Node, side, error) {
	n := m.g.Node(id)
	if n == nil {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if _, ok := n.MultiInputSlots[field]; ok {
		return n, inputSide, nil
	}
	if _, ok := n.MultiOutputSlots[field]; ok {
		return n, outputSide, nil
	}
	return nil, 0, fmt.Errorf("%w: %q on node %d (%s)", ErrUnknownField, field, id, n.Type)
}

func contains(idx []int, want int) bool {
	for _, i := range idx {
		if i == want {
			return true
		}
	}
	return false
}

// shiftGrouping drops removed from every field's index list and moves
// greater indices down by one.
func shiftGrouping(m map[string][]int, removed int) map[string][]int {
	out := make(map[string][]int, len(m))
	for field, idx := range m {
		next := make([]int, 0, len(idx))
		for _, i := range idx {
			switch {
			case i < removed:
				next = append(next, i)
			case i > removed:
				next = append(next, i-1)
			}
		}
		out[field] = next
	}
	return out
}

// shiftKeys re-keys an index map after the slot at removed is spliced out.
func shiftKeys[V any](m map[int]V, removed int) map[int]V {
	out := make(map[int]V, len(m))
	for i, v := range m {
		switch {
		case i < removed:
			out[i] = v
		case i > removed:
			out[i-1] = v
		}
	}
	return out
}
