// File: tree/node.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Node is one element of the hierarchy: an immutable kind, an ordered
// property list, and an ordered child list. A node is either attached
// to a Tree (reachable from its root) or detached. Mutating an attached
// node locks the owning tree, advances its revision, and hands the
// encoded change record to every watcher. Mutating a detached node is
// plain local assembly with no reporting.

package tree

// Property is one named value in a node's ordered property list.
type Property struct {
	Name  string
	Value Value
}

// Node is a single tree element. Nodes are not safe for unsynchronised
// sharing across goroutines on their own; attached nodes borrow the
// owning tree's lock through their methods.
type Node struct {
	kind     string
	props    []Property
	children []*Node
	parent   *Node
	tree     *Tree
}

// NewNode returns a detached node of the given kind, ready to be
// assembled into a subtree and attached with AddChild.
func NewNode(kind string) *Node {
	return &Node{kind: kind}
}

// Kind returns the node kind. Kinds are immutable, so no locking applies.
func (n *Node) Kind() string { return n.kind }

// Parent returns the current parent, nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	t := n.tree
	if t == nil {
		return n.parent
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return n.parent
}

// NumChildren returns the current child count.
func (n *Node) NumChildren() int {
	t := n.tree
	if t == nil {
		return len(n.children)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(n.children)
}

// Child returns the child at index i, or nil when i is out of range.
func (n *Node) Child(i int) *Node {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildWithKind returns the first child of the given kind, or nil.
func (n *Node) ChildWithKind(kind string) *Node {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// ChildIndex returns the position of child under n, or -1.
func (n *Node) ChildIndex(child *Node) int {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	return n.indexOf(child)
}

// Property returns the value stored under name.
func (n *Node) Property(name string) (Value, bool) {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	if i := n.propIndex(name); i >= 0 {
		return n.props[i].Value, true
	}
	return Value{}, false
}

// PropertyCount returns the number of properties.
func (n *Node) PropertyCount() int {
	t := n.tree
	if t == nil {
		return len(n.props)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(n.props)
}

// PropertyAt returns the property at position i in insertion order,
// or a zero Property when i is out of range.
func (n *Node) PropertyAt(i int) Property {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	if i < 0 || i >= len(n.props) {
		return Property{}
	}
	return n.props[i]
}

// Properties returns a copy of the ordered property list.
func (n *Node) Properties() []Property {
	t := n.tree
	if t != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	out := make([]Property, len(n.props))
	copy(out, n.props)
	return out
}

// SetProperty stores v under name, keeping insertion order for new
// names. Setting an equal value is a no-op and reports nothing.
func (n *Node) SetProperty(name string, v Value) {
	t := n.tree
	if t == nil {
		n.setPropRaw(name, v)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !n.setPropRaw(name, v) {
		return
	}
	if !n.attached(t) {
		return
	}
	t.rev++
	t.pathBuf = n.pathInto(t.pathBuf)
	t.encBuf = appendSetProperty(t.encBuf[:0], t.rev, t.pathBuf, name, v)
	t.notifyLocked(t.encBuf)
}

// RemoveProperty deletes name and reports whether it existed.
func (n *Node) RemoveProperty(name string) bool {
	t := n.tree
	if t == nil {
		return n.removePropRaw(name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !n.removePropRaw(name) {
		return false
	}
	if !n.attached(t) {
		return true
	}
	t.rev++
	t.pathBuf = n.pathInto(t.pathBuf)
	t.encBuf = appendRemoveProperty(t.encBuf[:0], t.rev, t.pathBuf, name)
	t.notifyLocked(t.encBuf)
	return true
}

// AddChild grafts a detached subtree under n at index. A negative or
// oversized index appends. The child must not already hang under a
// parent, and a subtree that once belonged to a different tree cannot
// be adopted.
func (n *Node) AddChild(child *Node, index int) error {
	if child == nil {
		return ErrNilChild
	}
	t := n.tree
	if t == nil {
		if child.parent != nil || child.tree != nil {
			return ErrChildAttached
		}
		n.addChildRaw(child, index)
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if child.parent != nil || (child.tree != nil && child.tree != t) {
		return ErrChildAttached
	}
	at := n.addChildRaw(child, index)
	child.adopt(t)
	if !n.attached(t) {
		return nil
	}
	t.rev++
	t.pathBuf = n.pathInto(t.pathBuf)
	t.encBuf = appendAddChild(t.encBuf[:0], t.rev, t.pathBuf, uint32(at), child)
	t.notifyLocked(t.encBuf)
	return nil
}

// RemoveChild detaches and returns the child at index. The detached
// subtree may be re-added to the same tree later; until then, mutations
// on it stay local and report nothing.
func (n *Node) RemoveChild(index int) (*Node, error) {
	t := n.tree
	if t == nil {
		if index < 0 || index >= len(n.children) {
			return nil, ErrIndexRange
		}
		return n.removeChildRaw(index), nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(n.children) {
		return nil, ErrIndexRange
	}
	if !n.attached(t) {
		return n.removeChildRaw(index), nil
	}
	t.rev++
	t.pathBuf = n.pathInto(t.pathBuf)
	t.encBuf = appendRemoveChild(t.encBuf[:0], t.rev, t.pathBuf, uint32(index))
	removed := n.removeChildRaw(index)
	t.notifyLocked(t.encBuf)
	return removed, nil
}

// MoveChild shifts the child at from to position to, clamping to into
// the valid range. Moving onto the same position is a no-op.
func (n *Node) MoveChild(from, to int) error {
	t := n.tree
	if t == nil {
		if from < 0 || from >= len(n.children) {
			return ErrIndexRange
		}
		n.moveChildRaw(from, clampIndex(to, len(n.children)))
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if from < 0 || from >= len(n.children) {
		return ErrIndexRange
	}
	to = clampIndex(to, len(n.children))
	if from == to {
		return nil
	}
	n.moveChildRaw(from, to)
	if !n.attached(t) {
		return nil
	}
	t.rev++
	t.pathBuf = n.pathInto(t.pathBuf)
	t.encBuf = appendMoveChild(t.encBuf[:0], t.rev, t.pathBuf, uint32(from), uint32(to))
	t.notifyLocked(t.encBuf)
	return nil
}

func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return n - 1
	}
	return i
}

// ---- unexported raw helpers; callers hold the owning tree's lock ----

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) propIndex(name string) int {
	for i := range n.props {
		if n.props[i].Name == name {
			return i
		}
	}
	return -1
}

// setPropRaw upserts and reports whether anything changed.
func (n *Node) setPropRaw(name string, v Value) bool {
	if i := n.propIndex(name); i >= 0 {
		if n.props[i].Value.Equal(v) {
			return false
		}
		n.props[i].Value = v
		return true
	}
	n.props = append(n.props, Property{Name: name, Value: v})
	return true
}

func (n *Node) removePropRaw(name string) bool {
	i := n.propIndex(name)
	if i < 0 {
		return false
	}
	n.props = append(n.props[:i], n.props[i+1:]...)
	return true
}

// addChildRaw inserts child and returns the effective index.
func (n *Node) addChildRaw(child *Node, index int) int {
	if index < 0 || index > len(n.children) {
		index = len(n.children)
	}
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	child.parent = n
	return index
}

func (n *Node) removeChildRaw(index int) *Node {
	removed := n.children[index]
	n.children = append(n.children[:index], n.children[index+1:]...)
	removed.parent = nil
	return removed
}

func (n *Node) moveChildRaw(from, to int) {
	c := n.children[from]
	n.children = append(n.children[:from], n.children[from+1:]...)
	n.children = append(n.children, nil)
	copy(n.children[to+1:], n.children[to:])
	n.children[to] = c
}

// adopt stamps the owning tree onto a freshly grafted subtree. The tree
// pointer never changes once set; re-adds within the same tree keep it.
func (n *Node) adopt(t *Tree) {
	if n.tree == nil {
		n.tree = t
	}
	for _, c := range n.children {
		c.adopt(t)
	}
}

// attached reports whether n is still reachable from the owning tree's
// root. Removed subtrees keep their tree pointer for same-tree re-adds,
// so reachability is what separates reporting from local assembly.
func (n *Node) attached(t *Tree) bool {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur == t.root
}

// pathInto writes the child-index path from the root into buf.
func (n *Node) pathInto(buf []uint32) []uint32 {
	buf = buf[:0]
	for cur := n; cur.parent != nil; cur = cur.parent {
		buf = append(buf, uint32(cur.parent.indexOf(cur)))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// nodeAt resolves a child-index path relative to n.
func (n *Node) nodeAt(path []uint32) (*Node, bool) {
	cur := n
	for _, idx := range path {
		if int(idx) >= len(cur.children) {
			return nil, false
		}
		cur = cur.children[idx]
	}
	return cur, true
}

func (n *Node) equalRaw(o *Node) bool {
	if n.kind != o.kind || len(n.props) != len(o.props) || len(n.children) != len(o.children) {
		return false
	}
	for i := range n.props {
		if n.props[i].Name != o.props[i].Name || !n.props[i].Value.Equal(o.props[i].Value) {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].equalRaw(o.children[i]) {
			return false
		}
	}
	return true
}
