// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package typeerr defines the errors reported when the signature of a
// statement cannot be inferred or one of its types cannot be resolved.
package typeerr

import (
	"fmt"

	"github.com/canonical/sqlsig/ast"
)

// Kind classifies an Error.
type Kind int

const (
	// UnknownType is reported for a type name that no resolver knows.
	UnknownType Kind = iota + 1
	// Unsupported is reported for a type construct that has no codec.
	Unsupported
	// MissingPlaceholderCast is reported for a placeholder used without a
	// type cast.
	MissingPlaceholderCast
	// NonContiguousPlaceholders is reported when a placeholder index between
	// $1 and the largest index used is never used.
	NonContiguousPlaceholders
	// ConflictingPlaceholderType is reported when a placeholder is cast to
	// two different types.
	ConflictingPlaceholderType
	// MissingColumnCast is reported for an output column without a type cast.
	MissingColumnCast
)

func (k Kind) String() string {
	switch k {
	case UnknownType:
		return "unknown type"
	case Unsupported:
		return "unsupported"
	case MissingPlaceholderCast:
		return "missing placeholder cast"
	case NonContiguousPlaceholders:
		return "non-contiguous placeholders"
	case ConflictingPlaceholderType:
		return "conflicting placeholder type"
	case MissingColumnCast:
		return "missing column cast"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a failure to infer or resolve a statement signature.
type Error struct {
	Kind Kind
	// Name is the type name for UnknownType and the feature for Unsupported.
	Name string
	// Index is the 1-based placeholder or column position, if any.
	Index int
	// Detail is extra information for the message.
	Detail string
	// Pos is where in the statement the error was found, if known.
	Pos ast.Pos
}

// Sentinels matching any error of their kind with errors.Is.
var (
	ErrUnknownType                = &Error{Kind: UnknownType}
	ErrUnsupported                = &Error{Kind: Unsupported}
	ErrMissingPlaceholderCast     = &Error{Kind: MissingPlaceholderCast}
	ErrNonContiguousPlaceholders  = &Error{Kind: NonContiguousPlaceholders}
	ErrConflictingPlaceholderType = &Error{Kind: ConflictingPlaceholderType}
	ErrMissingColumnCast          = &Error{Kind: MissingColumnCast}
)

func (e *Error) Error() string {
	msg := e.message()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if !e.Pos.IsValid() {
		return msg
	}
	if e.Pos.Line == 1 {
		return fmt.Sprintf("column %d: %s", e.Pos.Column, msg)
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, msg)
}

func (e *Error) message() string {
	switch e.Kind {
	case UnknownType:
		return fmt.Sprintf("unknown type %q", e.Name)
	case Unsupported:
		return fmt.Sprintf("%s not supported", e.Name)
	case MissingPlaceholderCast:
		return fmt.Sprintf("placeholder $%d has no type cast", e.Index)
	case NonContiguousPlaceholders:
		return fmt.Sprintf("placeholders are not contiguous: $%d is never used", e.Index)
	case ConflictingPlaceholderType:
		return fmt.Sprintf("placeholder $%d is cast to conflicting types", e.Index)
	case MissingColumnCast:
		return fmt.Sprintf("output column %d has no type cast", e.Index)
	}
	return e.Kind.String()
}

// Is reports whether target is an *Error of the same kind whose non-zero
// Name and Index agree with e. Detail and Pos are not compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind != e.Kind {
		return false
	}
	if t.Name != "" && t.Name != e.Name {
		return false
	}
	if t.Index != 0 && t.Index != e.Index {
		return false
	}
	return true
}

func UnknownTypeError(name string) *Error {
	return &Error{Kind: UnknownType, Name: name}
}

func UnsupportedError(feature string) *Error {
	return &Error{Kind: Unsupported, Name: feature}
}

func MissingPlaceholderCastError(index int, pos ast.Pos) *Error {
	return &Error{Kind: MissingPlaceholderCast, Index: index, Pos: pos}
}

// NonContiguousPlaceholdersError reports that placeholder $missing is never
// used although a higher index is.
func NonContiguousPlaceholdersError(missing int) *Error {
	return &Error{Kind: NonContiguousPlaceholders, Index: missing}
}

func ConflictingPlaceholderTypeError(index int, first, second string, pos ast.Pos) *Error {
	return &Error{
		Kind:   ConflictingPlaceholderType,
		Index:  index,
		Detail: fmt.Sprintf("%s and %s", first, second),
		Pos:    pos,
	}
}

func MissingColumnCastError(index int, pos ast.Pos) *Error {
	return &Error{Kind: MissingColumnCast, Index: index, Pos: pos}
}
