// File: tree/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tree

import "errors"

// Structural errors
var (
	// ErrNilChild indicates an attach of a nil node.
	ErrNilChild = errors.New("nil child")

	// ErrChildAttached indicates the node already belongs to a parent or tree.
	ErrChildAttached = errors.New("child is already attached")

	// ErrIndexRange indicates a child index outside the current child list.
	ErrIndexRange = errors.New("child index out of range")

	// ErrBadPath indicates a record path that does not resolve in this tree.
	ErrBadPath = errors.New("record path does not resolve")
)

// Codec errors
var (
	// ErrMalformedRecord indicates a change record that cannot be decoded.
	ErrMalformedRecord = errors.New("malformed change record")

	// ErrNotSnapshot indicates a record that is not a full-sync snapshot.
	ErrNotSnapshot = errors.New("record is not a snapshot")
)
