package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/wiregraph/internal/registry"
)

// CompileDescriptor parses a CUE value into a NodeDescriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the node struct itself; its label is the node type:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`node: model_config: { fields: { ... } }`)
//	desc, err := CompileDescriptor(v.LookupPath(cue.ParsePath("node.model_config")))
//
// Field declaration order is slot order.
func CompileDescriptor(v cue.Value) (*registry.NodeDescriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	desc := &registry.NodeDescriptor{Visible: true}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		desc.Type = labels[len(labels)-1].String()
	}

	var err error
	strs := []struct {
		path string
		dst  *string
	}{
		{"title", &desc.Title},
		{"description", &desc.Description},
		{"icon", &desc.Icon},
		{"section", &desc.Section},
		{"schema_name", &desc.SchemaName},
		{"model_name", &desc.ModelName},
		{"workflow", &desc.Workflow},
		{"color", &desc.Color},
	}
	for _, s := range strs {
		if *s.dst, err = optionalString(v, s.path); err != nil {
			return nil, err
		}
	}

	bools := []struct {
		path string
		dst  *bool
	}{
		{"visible", &desc.Visible},
		{"native", &desc.Native},
		{"root_type", &desc.RootType},
	}
	for _, b := range bools {
		if err := optionalBool(v, b.path, b.dst); err != nil {
			return nil, err
		}
	}

	// Parse fields (required, may be empty for pure annotation nodes)
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	desc.Fields, err = parseFields(fieldsVal)
	if err != nil {
		return nil, err
	}

	return desc, nil
}

// parseFields extracts field descriptors in declaration order.
func parseFields(v cue.Value) ([]registry.FieldDescriptor, error) {
	var fields []registry.FieldDescriptor

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		fieldName := iter.Label()
		fieldValue := iter.Value()

		field := registry.FieldDescriptor{Name: fieldName}

		typeVal := fieldValue.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("fields.%s.type", fieldName),
				Message: "field type is required",
				Pos:     fieldValue.Pos(),
			}
		}
		if field.Type, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		role, err := optionalString(fieldValue, "role")
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("fields.%s.role", fieldName),
				Message: "field role is required",
				Pos:     fieldValue.Pos(),
			}
		}
		field.Role = registry.FieldRole(role)

		for _, b := range []struct {
			path string
			dst  *bool
		}{
			{"optional", &field.Optional},
			{"bundle", &field.Bundle},
			{"native", &field.Native},
		} {
			if err := optionalBool(fieldValue, b.path, b.dst); err != nil {
				return nil, err
			}
		}

		if field.ElementType, err = optionalString(fieldValue, "element_type"); err != nil {
			return nil, err
		}
		if field.Description, err = optionalString(fieldValue, "description"); err != nil {
			return nil, err
		}

		// Default is any concrete value
		defVal := fieldValue.LookupPath(cue.ParsePath("default"))
		if defVal.Exists() {
			var def any
			if err := defVal.Decode(&def); err != nil {
				return nil, formatCUEError(err)
			}
			field.Default = normalizeDefault(def)
		}

		fields = append(fields, field)
	}

	return fields, nil
}

// normalizeDefault turns empty decoded containers into non-nil values so an
// empty list or struct default still counts as a filled literal.
func normalizeDefault(v any) any {
	switch d := v.(type) {
	case []any:
		if d == nil {
			return []any{}
		}
	case map[string]any:
		if d == nil {
			return map[string]any{}
		}
	}
	return v
}

// optionalString returns the string at path, resolving defaults, or "" if absent.
func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	if d, ok := sv.Default(); ok {
		sv = d
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// optionalBool sets *dst from the bool at path, leaving it unchanged if absent.
func optionalBool(v cue.Value, path string, dst *bool) error {
	bv := v.LookupPath(cue.ParsePath(path))
	if !bv.Exists() {
		return nil
	}
	if d, ok := bv.Default(); ok {
		bv = d
	}
	b, err := bv.Bool()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = b
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
