// File: tree/value.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Value is the tagged union stored under node properties. Values are
// immutable once constructed; byte payloads are copied in and must not
// be modified through the accessor view.

package tree

import (
	"bytes"
	"fmt"
)

// Kind tags the payload type of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is an immutable property value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	bs   []byte
}

// NewInt returns an int64 value.
func NewInt(v int64) Value { return Value{kind: KindInt, i: v} }

// NewFloat returns a float64 value.
func NewFloat(v float64) Value { return Value{kind: KindFloat, f: v} }

// NewBool returns a bool value.
func NewBool(v bool) Value { return Value{kind: KindBool, b: v} }

// NewString returns a string value.
func NewString(v string) Value { return Value{kind: KindString, s: v} }

// NewBytes returns a binary value holding a copy of b.
func NewBytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bs: cp}
}

// Kind returns the payload tag.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value carries no payload.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Int returns the int64 payload, zero for other kinds.
func (v Value) Int() int64 { return v.i }

// Float returns the float64 payload, zero for other kinds.
func (v Value) Float() float64 { return v.f }

// Bool returns the bool payload, false for other kinds.
func (v Value) Bool() bool { return v.b }

// Str returns the string payload, empty for other kinds.
func (v Value) Str() string { return v.s }

// Bytes returns the binary payload. Callers must not modify it.
func (v Value) Bytes() []byte { return v.bs }

// Equal reports payload equality with matching kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.bs, o.bs)
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return "<empty>"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.bs))
	default:
		return "<unknown>"
	}
}
