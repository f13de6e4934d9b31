// File: tree/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Binary change-record codec, little-endian.
//
// Record layout:
//
//	[1] opcode
//	[8] revision
//	payload per opcode
//
// Nodes are addressed by child-index paths from the root: a u32 hop
// count followed by one u32 per hop. Records are generated under the
// source tree's write lock and applied in FIFO order to a structurally
// identical replica, which is what keeps index paths resolvable.
// Strings and byte payloads carry a u32 length prefix. A record is
// self-contained; trailing bytes are an error.

package tree

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	opSetProperty    byte = 0x01
	opRemoveProperty byte = 0x02
	opAddChild       byte = 0x03
	opRemoveChild    byte = 0x04
	opMoveChild      byte = 0x05
	opFullSync       byte = 0x06
)

type record struct {
	op    byte
	rev   uint64
	path  []uint32
	name  string
	val   Value
	index uint32
	from  uint32
	to    uint32
	node  *Node
}

// ---- encoding ----

func appendHeader(dst []byte, op byte, rev uint64) []byte {
	dst = append(dst, op)
	return binary.LittleEndian.AppendUint64(dst, rev)
}

func appendPath(dst []byte, path []uint32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(path)))
	for _, hop := range path {
		dst = binary.LittleEndian.AppendUint32(dst, hop)
	}
	return dst
}

func appendStr(dst []byte, s string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

func appendBytesField(dst, b []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}

func appendValue(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.kind))
	switch v.kind {
	case KindInt:
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v.i))
	case KindFloat:
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.f))
	case KindBool:
		if v.b {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case KindString:
		dst = appendStr(dst, v.s)
	case KindBytes:
		dst = appendBytesField(dst, v.bs)
	}
	return dst
}

func appendNode(dst []byte, n *Node) []byte {
	dst = appendStr(dst, n.kind)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(n.props)))
	for i := range n.props {
		dst = appendStr(dst, n.props[i].Name)
		dst = appendValue(dst, n.props[i].Value)
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(n.children)))
	for _, c := range n.children {
		dst = appendNode(dst, c)
	}
	return dst
}

func appendSetProperty(dst []byte, rev uint64, path []uint32, name string, v Value) []byte {
	dst = appendHeader(dst, opSetProperty, rev)
	dst = appendPath(dst, path)
	dst = appendStr(dst, name)
	return appendValue(dst, v)
}

func appendRemoveProperty(dst []byte, rev uint64, path []uint32, name string) []byte {
	dst = appendHeader(dst, opRemoveProperty, rev)
	dst = appendPath(dst, path)
	return appendStr(dst, name)
}

func appendAddChild(dst []byte, rev uint64, parentPath []uint32, index uint32, child *Node) []byte {
	dst = appendHeader(dst, opAddChild, rev)
	dst = appendPath(dst, parentPath)
	dst = binary.LittleEndian.AppendUint32(dst, index)
	return appendNode(dst, child)
}

func appendRemoveChild(dst []byte, rev uint64, parentPath []uint32, index uint32) []byte {
	dst = appendHeader(dst, opRemoveChild, rev)
	dst = appendPath(dst, parentPath)
	return binary.LittleEndian.AppendUint32(dst, index)
}

func appendMoveChild(dst []byte, rev uint64, parentPath []uint32, from, to uint32) []byte {
	dst = appendHeader(dst, opMoveChild, rev)
	dst = appendPath(dst, parentPath)
	dst = binary.LittleEndian.AppendUint32(dst, from)
	return binary.LittleEndian.AppendUint32(dst, to)
}

func appendFullSync(dst []byte, rev uint64, root *Node) []byte {
	dst = appendHeader(dst, opFullSync, rev)
	return appendNode(dst, root)
}

// ---- decoding ----

// reader walks a record with sticky error state and bounds checks on
// every field.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s at offset %d", ErrMalformedRecord, what, r.off)
	}
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) u8() byte {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 1 {
		r.fail("truncated byte")
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 4 {
		r.fail("truncated u32")
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 8 {
		r.fail("truncated u64")
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

// raw returns an n-byte view into the record buffer.
func (r *reader) raw(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.remaining() < n {
		r.fail("truncated field")
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

// str decodes a length-prefixed string, copying out of the buffer.
func (r *reader) str() string {
	n := r.u32()
	return string(r.raw(int(n)))
}

func (r *reader) path() []uint32 {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	// compare without multiplying so a hostile count cannot wrap int
	if uint64(n)*4 > uint64(r.remaining()) {
		r.fail("path length")
		return nil
	}
	path := make([]uint32, n)
	for i := range path {
		path[i] = r.u32()
	}
	return path
}

func (r *reader) value() Value {
	switch Kind(r.u8()) {
	case KindEmpty:
		return Value{}
	case KindInt:
		return Value{kind: KindInt, i: int64(r.u64())}
	case KindFloat:
		return Value{kind: KindFloat, f: math.Float64frombits(r.u64())}
	case KindBool:
		return Value{kind: KindBool, b: r.u8() != 0}
	case KindString:
		return Value{kind: KindString, s: r.str()}
	case KindBytes:
		n := r.u32()
		b := r.raw(int(n))
		if r.err != nil {
			return Value{}
		}
		return NewBytes(b)
	default:
		r.fail("unknown value kind")
		return Value{}
	}
}

// node decodes a subtree into detached nodes owning their memory.
func (r *reader) node() *Node {
	kind := r.str()
	pc := r.u32()
	if r.err != nil {
		return nil
	}
	if uint64(pc) > uint64(r.remaining()) {
		r.fail("property count")
		return nil
	}
	n := &Node{kind: kind}
	for i := 0; i < int(pc); i++ {
		name := r.str()
		v := r.value()
		if r.err != nil {
			return nil
		}
		n.props = append(n.props, Property{Name: name, Value: v})
	}
	cc := r.u32()
	if r.err != nil {
		return nil
	}
	if uint64(cc) > uint64(r.remaining()) {
		r.fail("child count")
		return nil
	}
	for i := 0; i < int(cc); i++ {
		c := r.node()
		if r.err != nil {
			return nil
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func decodeRecord(buf []byte) (*record, error) {
	r := reader{buf: buf}
	rec := &record{}
	rec.op = r.u8()
	rec.rev = r.u64()
	switch rec.op {
	case opSetProperty:
		rec.path = r.path()
		rec.name = r.str()
		rec.val = r.value()
	case opRemoveProperty:
		rec.path = r.path()
		rec.name = r.str()
	case opAddChild:
		rec.path = r.path()
		rec.index = r.u32()
		rec.node = r.node()
	case opRemoveChild:
		rec.path = r.path()
		rec.index = r.u32()
	case opMoveChild:
		rec.path = r.path()
		rec.from = r.u32()
		rec.to = r.u32()
	case opFullSync:
		rec.node = r.node()
	default:
		r.fail("unknown opcode")
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(r.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRecord, len(r.buf)-r.off)
	}
	return rec, nil
}
