package graph

import (
	"errors"
	"fmt"

	"github.com/roach88/wiregraph/internal/ir"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeTypeMismatch indicates the output type cannot feed the input type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInputOccupied indicates a scalar input already holds a link.
	ErrCodeInputOccupied ErrorCode = "INPUT_OCCUPIED"

	// ErrCodeNodeNotFound indicates a referenced node is not live.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeSlotOutOfRange indicates a slot index outside the slot array.
	ErrCodeSlotOutOfRange ErrorCode = "SLOT_OUT_OF_RANGE"

	// ErrCodeUnknownNodeType indicates a type missing from the registry.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"

	// ErrCodeNilNode indicates a nil node was passed to AddNode.
	ErrCodeNilNode ErrorCode = "NIL_NODE"

	// ErrCodeDuplicateNode indicates AddNode was given an id already in use.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"

	// ErrCodeLinkNotFound indicates a referenced link does not exist.
	ErrCodeLinkNotFound ErrorCode = "LINK_NOT_FOUND"

	// ErrCodeInvalidAttribute indicates an unknown attribute or a value of the wrong shape.
	ErrCodeInvalidAttribute ErrorCode = "INVALID_ATTRIBUTE"
)

// Error is a graph operation failure. None of these leave the graph mutated.
type Error struct {
	Code    ErrorCode
	Message string
	NodeID  ir.NodeID
	LinkID  ir.LinkID
	Slot    int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.NodeID != 0 {
		return fmt.Sprintf("%s: %s (node=%d)", e.Code, e.Message, e.NodeID)
	}
	if e.LinkID != 0 {
		return fmt.Sprintf("%s: %s (link=%d)", e.Code, e.Message, e.LinkID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a graph Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsTypeMismatch returns true if err is a type mismatch on connect.
func IsTypeMismatch(err error) bool {
	return HasCode(err, ErrCodeTypeMismatch)
}

// IsInputOccupied returns true if err reports an already-linked scalar input.
func IsInputOccupied(err error) bool {
	return HasCode(err, ErrCodeInputOccupied)
}

// IsUnknownNodeType returns true if err reports an unregistered node type.
func IsUnknownNodeType(err error) bool {
	return HasCode(err, ErrCodeUnknownNodeType)
}

// IsNodeNotFound returns true if err reports a missing node.
func IsNodeNotFound(err error) bool {
	return HasCode(err, ErrCodeNodeNotFound)
}

func nodeNotFound(id ir.NodeID) *Error {
	return &Error{Code: ErrCodeNodeNotFound, Message: "node not found", NodeID: id}
}

func slotOutOfRange(id ir.NodeID, kind string, slot, n int) *Error {
	return &Error{
		Code:    ErrCodeSlotOutOfRange,
		Message: fmt.Sprintf("%s slot %d out of range [0,%d)", kind, slot, n),
		NodeID:  id,
		Slot:    slot,
	}
}
