package graph

import (
	"fmt"

	"github.com/roach88/wiregraph/internal/ir"
)

// Attribute names accepted by SetNodeAttribute and NodeAttribute.
const (
	AttrPos          = "pos"
	AttrSize         = "size"
	AttrTitle        = "title"
	AttrColor        = "color"
	AttrDisplayTitle = "displayTitle"
	AttrValue        = "value" // literal value on the native input at slot
)

// NodeAttribute reads one attribute. slot is only used by AttrValue.
func (g *Graph) NodeAttribute(id ir.NodeID, attr string, slot int) (any, error) {
	n, ok := g.byID[id]
	if !ok {
		return nil, nodeNotFound(id)
	}
	switch attr {
	case AttrPos:
		return n.Pos, nil
	case AttrSize:
		return n.Size, nil
	case AttrTitle:
		return n.Title, nil
	case AttrColor:
		return n.Color, nil
	case AttrDisplayTitle:
		return n.DisplayTitle, nil
	case AttrValue:
		v, ok := n.NativeValue(slot)
		if !ok {
			return nil, &Error{Code: ErrCodeInvalidAttribute, Message: "input slot has no literal value", NodeID: id, Slot: slot}
		}
		return v, nil
	}
	return nil, invalidAttribute(id, attr, "unknown attribute")
}

// SetNodeAttribute writes one attribute. It never touches topology.
func (g *Graph) SetNodeAttribute(id ir.NodeID, attr string, slot int, value any) error {
	n, ok := g.byID[id]
	if !ok {
		return nodeNotFound(id)
	}
	switch attr {
	case AttrPos, AttrSize:
		v, ok := toVec2(value)
		if !ok {
			return invalidAttribute(id, attr, fmt.Sprintf("want [2]float64, got %T", value))
		}
		if attr == AttrPos {
			n.Pos = v
		} else {
			n.Size = v
		}
	case AttrTitle, AttrColor, AttrDisplayTitle:
		s, ok := value.(string)
		if !ok {
			return invalidAttribute(id, attr, fmt.Sprintf("want string, got %T", value))
		}
		switch attr {
		case AttrTitle:
			n.Title = s
		case AttrColor:
			n.Color = s
		default:
			n.DisplayTitle = s
		}
	case AttrValue:
		return n.SetNativeValue(slot, value)
	default:
		return invalidAttribute(id, attr, "unknown attribute")
	}
	return nil
}

func invalidAttribute(id ir.NodeID, attr, msg string) *Error {
	return &Error{Code: ErrCodeInvalidAttribute, Message: fmt.Sprintf("%s: %s", attr, msg), NodeID: id}
}

// toVec2 accepts the shapes a vector takes in Go code and after a JSON trip.
func toVec2(v any) ([2]float64, bool) {
	switch t := v.(type) {
	case [2]float64:
		return t, true
	case []float64:
		if len(t) == 2 {
			return [2]float64{t[0], t[1]}, true
		}
	case []any:
		if len(t) == 2 {
			x, okX := t[0].(float64)
			y, okY := t[1].(float64)
			if okX && okY {
				return [2]float64{x, y}, true
			}
		}
	}
	return [2]float64{}, false
}
