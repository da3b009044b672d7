// Package weft provides the text-storage engine for a buffer-oriented
// editor: gap-based character storage, an interval tree associating
// key/value properties with spans of text, buffer-local variable
// shadowing, and a registry of live buffers.
package weft

import (
	"errors"
	"fmt"
)

// Position and range errors
var (
	// ErrOutOfRange indicates that a position lies outside the buffer's
	// accessible (visible) region.
	ErrOutOfRange = errors.New("position outside accessible region")

	// ErrOddPropertyList indicates that a property pair list has an odd
	// number of elements.
	ErrOddPropertyList = errors.New("property list has odd length")

	// ErrPropertyName indicates that a property name is not a string.
	ErrPropertyName = errors.New("property name must be a string")
)

// Buffer lifecycle errors
var (
	// ErrDeadBuffer indicates an operation on a killed buffer.
	ErrDeadBuffer = errors.New("buffer has been killed")

	// ErrNoSuchBuffer indicates that no live buffer has the given name.
	ErrNoSuchBuffer = errors.New("no such buffer")

	// ErrReadOnlyBuffer indicates an edit on a read-only buffer.
	ErrReadOnlyBuffer = errors.New("buffer is read-only")

	// ErrProtectedField indicates an edit overlapping a protected field.
	// It is raised before any mutation takes place.
	ErrProtectedField = errors.New("edit overlaps protected field")
)

// Marker errors
var (
	// ErrDetachedMarker indicates that a marker no longer points into a
	// live buffer. Holders must treat such a marker as permanently stale.
	ErrDetachedMarker = errors.New("marker is detached")
)

// Local-variable errors
var (
	// ErrNotAVariable indicates a slot that is not registered as a variable.
	ErrNotAVariable = errors.New("slot is not a variable")

	// ErrTooManyLocalVariables indicates that the per-buffer local-flags
	// word has no free bits left for another flagged slot.
	ErrTooManyLocalVariables = errors.New("too many buffer-local variables")
)

// NameCollisionError indicates a rename onto an existing live buffer name
// without requesting disambiguation.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("buffer name %q already in use", e.Name)
}

// TypeMismatchError indicates storing a value into a local slot whose
// required tag forbids it.
type TypeMismatchError struct {
	Tag    string // required type tag of the slot
	Symbol string // symbol name of the slot
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %s requires a value of type %s", e.Symbol, e.Tag)
}
