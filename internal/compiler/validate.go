package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/wiregraph/internal/registry"
	"github.com/roach88/wiregraph/internal/typematch"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrNilDescriptor = "E100" // nothing to validate

	// NodeDescriptor errors (E101-E109)
	ErrEmptyType           = "E101" // type name is required
	ErrDuplicateField      = "E102" // duplicate field name
	ErrInvalidRole         = "E103" // unknown field role
	ErrInvalidTypeExpr     = "E104" // unparseable type expression
	ErrBundleNotInput      = "E105" // bundle flag on a non-input field
	ErrInvalidFieldName    = "E106" // empty or dotted field name
	ErrInvalidWorkflowTag  = "E107" // workflow tag not start, end or flow
	ErrNativeNotInput      = "E108" // native flag on a non-input field
	ErrMultiElementMissing = "E109" // multi field with no resolvable element type
)

// ValidationError represents a descriptor validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a descriptor against the factory's expectations.
// Returns all errors found (does not fail-fast).
func Validate(desc *registry.NodeDescriptor) []ValidationError {
	if desc == nil {
		return []ValidationError{{
			Field:   "descriptor",
			Message: "descriptor is nil",
			Code:    ErrNilDescriptor,
		}}
	}

	var errs []ValidationError

	// E101: type is required
	if strings.TrimSpace(desc.Type) == "" {
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: "type is required and must be non-empty",
			Code:    ErrEmptyType,
		})
	}

	// E107: workflow tag
	switch desc.Workflow {
	case "", "start", "end", "flow":
	default:
		errs = append(errs, ValidationError{
			Field:   "workflow",
			Message: fmt.Sprintf("invalid workflow tag %q, must be \"start\", \"end\" or \"flow\"", desc.Workflow),
			Code:    ErrInvalidWorkflowTag,
		})
	}

	names := make(map[string]bool)
	for i, f := range desc.Fields {
		path := fmt.Sprintf("fields[%d]", i)

		// E106: names must be usable as slot prefixes
		if f.Name == "" || strings.Contains(f.Name, ".") {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("invalid field name %q", f.Name),
				Code:    ErrInvalidFieldName,
			})
		}

		// E102: duplicate field name
		if names[f.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate field name: %q", f.Name),
				Code:    ErrDuplicateField,
			})
		}
		names[f.Name] = true

		// E103: role
		if !f.Role.Valid() {
			errs = append(errs, ValidationError{
				Field:   path + ".role",
				Message: fmt.Sprintf("invalid role %q for field %q", f.Role, f.Name),
				Code:    ErrInvalidRole,
			})
		}

		// E104: type expression
		if _, err := typematch.Parse(f.Type); err != nil {
			errs = append(errs, ValidationError{
				Field:   path + ".type",
				Message: fmt.Sprintf("invalid type %q for field %q", f.Type, f.Name),
				Code:    ErrInvalidTypeExpr,
			})
		}
		if f.ElementType != "" {
			if _, err := typematch.Parse(f.ElementType); err != nil {
				errs = append(errs, ValidationError{
					Field:   path + ".element_type",
					Message: fmt.Sprintf("invalid element type %q for field %q", f.ElementType, f.Name),
					Code:    ErrInvalidTypeExpr,
				})
			}
		}

		// E105, E108: flags that only make sense on inputs
		if f.Bundle && f.Role != registry.RoleInput {
			errs = append(errs, ValidationError{
				Field:   path + ".bundle",
				Message: fmt.Sprintf("bundle is only allowed on input fields, %q is %s", f.Name, f.Role),
				Code:    ErrBundleNotInput,
			})
		}
		if f.Native && f.Role != registry.RoleInput {
			errs = append(errs, ValidationError{
				Field:   path + ".native",
				Message: fmt.Sprintf("native is only allowed on input fields, %q is %s", f.Name, f.Role),
				Code:    ErrNativeNotInput,
			})
		}

		// E109: multi fields need a sub-slot type
		if f.Role.IsMulti() && strings.TrimSpace(f.SubSlotType()) == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".element_type",
				Message: fmt.Sprintf("multi field %q has no element type", f.Name),
				Code:    ErrMultiElementMissing,
			})
		}
	}

	return errs
}
