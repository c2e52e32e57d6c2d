package registry

import (
	"fmt"

	"github.com/roach88/wiregraph/internal/typematch"
)

// FieldRole says how a descriptor field becomes slots on a node.
type FieldRole string

const (
	RoleAnnotation  FieldRole = "annotation"   // display-only, no slot
	RoleConstant    FieldRole = "constant"     // fixed property, no slot
	RoleInput       FieldRole = "input"        // one input slot
	RoleOutput      FieldRole = "output"       // one output slot
	RoleMultiInput  FieldRole = "multi_input"  // keyed input sub-slots
	RoleMultiOutput FieldRole = "multi_output" // keyed output sub-slots
)

// Valid reports whether r is a known role.
func (r FieldRole) Valid() bool {
	switch r {
	case RoleAnnotation, RoleConstant, RoleInput, RoleOutput, RoleMultiInput, RoleMultiOutput:
		return true
	}
	return false
}

// IsMulti reports whether the role expands into keyed sub-slots.
func (r FieldRole) IsMulti() bool {
	return r == RoleMultiInput || r == RoleMultiOutput
}

// FieldDescriptor describes one field of a node type.
type FieldDescriptor struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Role        FieldRole `json:"role"`
	Optional    bool      `json:"optional,omitempty"`
	Bundle      bool      `json:"bundle,omitempty"`       // input accepts many links
	Native      bool      `json:"native,omitempty"`       // input may carry a literal value
	Default     any       `json:"default,omitempty"`      // seed for native literals
	ElementType string    `json:"element_type,omitempty"` // sub-slot type for multi fields
	Description string    `json:"description,omitempty"`
}

// SubSlotType returns the type given to keyed sub-slots of a multi field:
// the explicit element type, or the element type of the declared container.
func (f FieldDescriptor) SubSlotType() string {
	if f.ElementType != "" {
		return f.ElementType
	}
	return typematch.ElementType(f.Type)
}

// IsOptional reports whether the field may stay empty: flagged optional or
// declared Optional[...].
func (f FieldDescriptor) IsOptional() bool {
	return f.Optional || typematch.IsOptional(f.Type)
}

// NodeDescriptor describes one node type.
type NodeDescriptor struct {
	Type        string            `json:"type"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Section     string            `json:"section,omitempty"`
	Visible     bool              `json:"visible"`
	SchemaName  string            `json:"schema_name,omitempty"`
	ModelName   string            `json:"model_name,omitempty"`
	Workflow    string            `json:"workflow,omitempty"` // workflow tag, e.g. "start", "end", "flow"
	Native      bool              `json:"native,omitempty"`
	RootType    bool              `json:"root_type,omitempty"`
	Color       string            `json:"color,omitempty"`
	Fields      []FieldDescriptor `json:"fields"`
}

// Field returns the named field, or nil.
func (d *NodeDescriptor) Field(name string) *FieldDescriptor {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Inputs returns the fields that produce input slots, in declaration order.
func (d *NodeDescriptor) Inputs() []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range d.Fields {
		if f.Role == RoleInput || f.Role == RoleMultiInput {
			out = append(out, f)
		}
	}
	return out
}

// Outputs returns the fields that produce output slots, in declaration order.
func (d *NodeDescriptor) Outputs() []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range d.Fields {
		if f.Role == RoleOutput || f.Role == RoleMultiOutput {
			out = append(out, f)
		}
	}
	return out
}

// DisplayTitle returns Title, falling back to Type.
func (d *NodeDescriptor) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Type
}

func (d *NodeDescriptor) String() string {
	return fmt.Sprintf("%s(%d fields)", d.Type, len(d.Fields))
}
