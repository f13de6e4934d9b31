// File: tree/tree.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tree owns a node hierarchy behind one RWMutex and numbers every
// successful mutation with a monotonically increasing revision. Each
// mutation is encoded as a change record and handed synchronously to
// every watcher while the write lock is held, so records observe the
// exact mutation order. Watchers must be O(1) and must not call back
// into the tree.

package tree

import (
	"sync"

	"github.com/momentics/hioload-mirror/api"
)

// Ensure compile-time interface compliance.
var (
	_ api.DiffSource = (*Tree)(nil)
	_ api.DiffTarget = (*Tree)(nil)
)

type watcherEntry struct {
	id uint64
	fn api.DiffFunc
}

// Tree is a mutable hierarchy that reports every change as a serialized
// record. All methods are safe for concurrent use; the single-writer
// discipline of callers decides how records interleave.
type Tree struct {
	mu       sync.RWMutex
	root     *Node
	rev      uint64
	watchers []watcherEntry
	nextW    uint64
	encBuf   []byte   // reusable record scratch, valid only inside the lock
	pathBuf  []uint32 // reusable path scratch
}

// NewTree returns a tree holding a single root node of the given kind
// at revision zero.
func NewTree(rootKind string) *Tree {
	t := &Tree{}
	t.root = &Node{kind: rootKind, tree: t}
	return t
}

// Root returns the current root node.
func (t *Tree) Root() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Revision returns the revision of the newest reflected mutation.
func (t *Tree) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rev
}

// Watch registers fn for every change record, invoked synchronously on
// the mutating goroutine while the tree lock is held. The record bytes
// are only valid for the duration of the call. The returned cancel
// removes the registration.
func (t *Tree) Watch(fn api.DiffFunc) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextW++
	id := t.nextW
	t.watchers = append(t.watchers, watcherEntry{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i := range t.watchers {
			if t.watchers[i].id == id {
				t.watchers = append(t.watchers[:i], t.watchers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot encodes the full tree as one freshly allocated full-sync
// record carrying the current revision.
func (t *Tree) Snapshot() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return appendFullSync(nil, t.rev, t.root)
}

// ApplyDiff applies one change record. Records at or below the tree's
// current revision are skipped with applied == false, which makes
// replay across snapshot boundaries idempotent. A full-sync record is
// applied like any other, so chained replicas converge through the
// same path. Watchers of this tree observe applied records verbatim.
func (t *Tree) ApplyDiff(diff []byte) (applied bool, err error) {
	rec, err := decodeRecord(diff)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec.rev <= t.rev {
		return false, nil
	}
	if rec.op == opFullSync {
		t.root = rec.node
		rec.node.adopt(t)
	} else if err := t.applyRecordLocked(rec); err != nil {
		return false, err
	}
	t.rev = rec.rev
	t.notifyLocked(diff)
	return true, nil
}

// ApplySnapshot replaces the whole tree from a full-sync record,
// unconditionally adopting its revision. Watchers observe the record.
func (t *Tree) ApplySnapshot(snap []byte) error {
	rec, err := decodeRecord(snap)
	if err != nil {
		return err
	}
	if rec.op != opFullSync {
		return ErrNotSnapshot
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = rec.node
	rec.node.adopt(t)
	t.rev = rec.rev
	t.notifyLocked(snap)
	return nil
}

// Equal reports deep structural equality of two trees: kinds, ordered
// properties, and ordered children. Comparing two live trees from
// multiple goroutines requires a consistent argument order.
func (t *Tree) Equal(o *Tree) bool {
	if t == o {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	o.mu.RLock()
	defer o.mu.RUnlock()
	return t.root.equalRaw(o.root)
}

func (t *Tree) notifyLocked(rec []byte) {
	for i := range t.watchers {
		t.watchers[i].fn(rec)
	}
}

func (t *Tree) applyRecordLocked(rec *record) error {
	n, ok := t.root.nodeAt(rec.path)
	if !ok {
		return ErrBadPath
	}
	switch rec.op {
	case opSetProperty:
		n.setPropRaw(rec.name, rec.val)
	case opRemoveProperty:
		n.removePropRaw(rec.name)
	case opAddChild:
		if int(rec.index) > len(n.children) {
			return ErrIndexRange
		}
		n.addChildRaw(rec.node, int(rec.index))
		rec.node.adopt(t)
	case opRemoveChild:
		if int(rec.index) >= len(n.children) {
			return ErrIndexRange
		}
		n.removeChildRaw(int(rec.index))
	case opMoveChild:
		if int(rec.from) >= len(n.children) || int(rec.to) >= len(n.children) {
			return ErrIndexRange
		}
		if rec.from != rec.to {
			n.moveChildRaw(int(rec.from), int(rec.to))
		}
	default:
		return ErrMalformedRecord
	}
	return nil
}
