// File: pool/block.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Block is the reusable byte storage behind each ring slot. Capacity
// only grows, so a warmed ring stops allocating regardless of how
// records arrive.

package pool

// Block is an owned, grow-only byte buffer.
type Block struct {
	buf []byte
	n   int
}

// Set copies b into the block, growing capacity only when b does not fit.
func (bl *Block) Set(b []byte) {
	if cap(bl.buf) < len(b) {
		bl.buf = make([]byte, len(b))
	} else {
		bl.buf = bl.buf[:cap(bl.buf)]
	}
	copy(bl.buf, b)
	bl.n = len(b)
}

// Bytes returns the stored record. The view stays valid until the next
// Set or Reset on this block.
func (bl *Block) Bytes() []byte { return bl.buf[:bl.n] }

// Len returns the stored record length in bytes.
func (bl *Block) Len() int { return bl.n }

// Cap returns the current storage capacity.
func (bl *Block) Cap() int { return cap(bl.buf) }

// Reset forgets the stored record without releasing capacity.
func (bl *Block) Reset() { bl.n = 0 }
