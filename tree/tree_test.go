package tree_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mirror/tree"
)

// recorder collects copies of change records, the way a ring slot would.
type recorder struct {
	recs [][]byte
}

func (r *recorder) fn(diff []byte) {
	cp := make([]byte, len(diff))
	copy(cp, diff)
	r.recs = append(r.recs, cp)
}

func TestSetAndReadProperties(t *testing.T) {
	tr := tree.NewTree("engine")
	root := tr.Root()

	root.SetProperty("rate", tree.NewInt(48000))
	root.SetProperty("gain", tree.NewFloat(0.5))
	root.SetProperty("mute", tree.NewBool(true))
	root.SetProperty("name", tree.NewString("main"))
	root.SetProperty("blob", tree.NewBytes([]byte{1, 2, 3}))

	v, ok := root.Property("rate")
	require.True(t, ok)
	require.Equal(t, int64(48000), v.Int())
	v, _ = root.Property("gain")
	require.Equal(t, 0.5, v.Float())
	v, _ = root.Property("mute")
	require.True(t, v.Bool())
	v, _ = root.Property("name")
	require.Equal(t, "main", v.Str())
	v, _ = root.Property("blob")
	require.Equal(t, []byte{1, 2, 3}, v.Bytes())

	// insertion order is preserved, overwrite keeps position
	root.SetProperty("rate", tree.NewInt(44100))
	require.Equal(t, 5, root.PropertyCount())
	require.Equal(t, "rate", root.PropertyAt(0).Name)
	require.Equal(t, int64(44100), root.PropertyAt(0).Value.Int())
	require.Equal(t, "blob", root.PropertyAt(4).Name)

	_, ok = root.Property("missing")
	require.False(t, ok)
}

func TestEqualValueSetIsSilent(t *testing.T) {
	tr := tree.NewTree("root")
	rec := &recorder{}
	cancel := tr.Watch(rec.fn)
	defer cancel()

	tr.Root().SetProperty("x", tree.NewInt(1))
	revAfterFirst := tr.Revision()
	tr.Root().SetProperty("x", tree.NewInt(1))

	require.Equal(t, revAfterFirst, tr.Revision())
	require.Len(t, rec.recs, 1)
}

func TestRemoveProperty(t *testing.T) {
	tr := tree.NewTree("root")
	tr.Root().SetProperty("x", tree.NewInt(1))
	rev := tr.Revision()

	require.False(t, tr.Root().RemoveProperty("absent"))
	require.Equal(t, rev, tr.Revision())

	require.True(t, tr.Root().RemoveProperty("x"))
	require.Equal(t, rev+1, tr.Revision())
	_, ok := tr.Root().Property("x")
	require.False(t, ok)
}

func TestChildStructureOps(t *testing.T) {
	tr := tree.NewTree("root")
	root := tr.Root()

	// detached assembly, then one attach
	sub := tree.NewNode("voice")
	sub.SetProperty("id", tree.NewInt(7))
	grand := tree.NewNode("filter")
	require.NoError(t, sub.AddChild(grand, -1))

	require.NoError(t, root.AddChild(sub, -1))
	require.Equal(t, 1, root.NumChildren())
	require.Equal(t, sub, root.Child(0))
	require.Equal(t, sub, root.ChildWithKind("voice"))
	require.Equal(t, 0, root.ChildIndex(sub))

	// double attach is refused
	require.ErrorIs(t, root.AddChild(sub, 0), tree.ErrChildAttached)
	require.ErrorIs(t, root.AddChild(nil, 0), tree.ErrNilChild)

	b := tree.NewNode("bus")
	require.NoError(t, root.AddChild(b, 0))
	require.Equal(t, "bus", root.Child(0).Kind())
	require.Equal(t, "voice", root.Child(1).Kind())

	require.NoError(t, root.MoveChild(0, 5)) // clamps to the end
	require.Equal(t, "voice", root.Child(0).Kind())
	require.Equal(t, "bus", root.Child(1).Kind())
	require.ErrorIs(t, root.MoveChild(9, 0), tree.ErrIndexRange)

	removed, err := root.RemoveChild(1)
	require.NoError(t, err)
	require.Equal(t, b, removed)
	require.Nil(t, removed.Parent())
	_, err = root.RemoveChild(5)
	require.ErrorIs(t, err, tree.ErrIndexRange)
}

func TestRecordsReplayIntoReplica(t *testing.T) {
	src := tree.NewTree("engine")
	rec := &recorder{}
	cancel := src.Watch(rec.fn)
	defer cancel()

	root := src.Root()
	root.SetProperty("rate", tree.NewInt(48000))
	voice := tree.NewNode("voice")
	voice.SetProperty("freq", tree.NewFloat(440))
	require.NoError(t, root.AddChild(voice, -1))
	bus := tree.NewNode("bus")
	require.NoError(t, root.AddChild(bus, 0))
	voice.SetProperty("freq", tree.NewFloat(880))
	require.NoError(t, root.MoveChild(0, 1))
	_, err := root.RemoveChild(0)
	require.NoError(t, err)
	root.RemoveProperty("rate")

	replica := tree.NewTree("engine")
	for _, d := range rec.recs {
		applied, err := replica.ApplyDiff(d)
		require.NoError(t, err)
		require.True(t, applied)
	}
	require.True(t, src.Equal(replica))
	require.Equal(t, src.Revision(), replica.Revision())
}

func TestWatchCancelStopsDelivery(t *testing.T) {
	tr := tree.NewTree("root")
	rec := &recorder{}
	cancel := tr.Watch(rec.fn)

	tr.Root().SetProperty("a", tree.NewInt(1))
	cancel()
	tr.Root().SetProperty("b", tree.NewInt(2))

	require.Len(t, rec.recs, 1)
}

func TestStaleRecordSkipped(t *testing.T) {
	src := tree.NewTree("root")
	rec := &recorder{}
	defer src.Watch(rec.fn)()

	src.Root().SetProperty("x", tree.NewInt(1))
	require.Len(t, rec.recs, 1)

	replica := tree.NewTree("root")
	applied, err := replica.ApplyDiff(rec.recs[0])
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = replica.ApplyDiff(rec.recs[0])
	require.NoError(t, err)
	require.False(t, applied)
	require.True(t, src.Equal(replica))
}

func TestSnapshotReimagesReplica(t *testing.T) {
	src := tree.NewTree("engine")
	src.Root().SetProperty("rate", tree.NewInt(48000))
	v := tree.NewNode("voice")
	v.SetProperty("freq", tree.NewFloat(440))
	require.NoError(t, src.Root().AddChild(v, -1))

	replica := tree.NewTree("something-else")
	require.NoError(t, replica.ApplySnapshot(src.Snapshot()))
	require.True(t, src.Equal(replica))
	require.Equal(t, src.Revision(), replica.Revision())

	// a snapshot is not required to advance the revision to be applied
	require.NoError(t, replica.ApplySnapshot(src.Snapshot()))
	require.True(t, src.Equal(replica))
}

func TestApplyDiffRejectsGarbage(t *testing.T) {
	src := tree.NewTree("root")
	rec := &recorder{}
	defer src.Watch(rec.fn)()
	src.Root().SetProperty("x", tree.NewString("payload"))

	replica := tree.NewTree("root")
	full := rec.recs[0]

	_, err := replica.ApplyDiff(full[:len(full)-3])
	require.ErrorIs(t, err, tree.ErrMalformedRecord)

	_, err = replica.ApplyDiff(append(append([]byte{}, full...), 0xFF))
	require.ErrorIs(t, err, tree.ErrMalformedRecord)

	_, err = replica.ApplyDiff(nil)
	require.ErrorIs(t, err, tree.ErrMalformedRecord)

	err = replica.ApplySnapshot(full)
	require.ErrorIs(t, err, tree.ErrNotSnapshot)
}

func TestApplyDiffUnresolvablePath(t *testing.T) {
	src := tree.NewTree("root")
	child := tree.NewNode("child")
	require.NoError(t, src.Root().AddChild(child, -1))

	rec := &recorder{}
	defer src.Watch(rec.fn)()
	child.SetProperty("deep", tree.NewInt(1))

	// replica lacks the child, so the path cannot resolve
	replica := tree.NewTree("root")
	_, err := replica.ApplyDiff(rec.recs[0])
	require.ErrorIs(t, err, tree.ErrBadPath)
}

func TestChainedReplicasConverge(t *testing.T) {
	src := tree.NewTree("engine")
	r1 := tree.NewTree("engine")
	r2 := tree.NewTree("engine")

	defer src.Watch(func(d []byte) {
		_, err := r1.ApplyDiff(d)
		require.NoError(t, err)
	})()
	defer r1.Watch(func(d []byte) {
		_, err := r2.ApplyDiff(d)
		require.NoError(t, err)
	})()

	src.Root().SetProperty("rate", tree.NewInt(48000))
	n := tree.NewNode("voice")
	require.NoError(t, src.Root().AddChild(n, -1))
	n.SetProperty("freq", tree.NewFloat(440))

	require.True(t, src.Equal(r1))
	require.True(t, src.Equal(r2))
}

func TestDetachedMutationsAreLocal(t *testing.T) {
	tr := tree.NewTree("root")
	rec := &recorder{}
	defer tr.Watch(rec.fn)()

	free := tree.NewNode("free")
	free.SetProperty("x", tree.NewInt(1))
	sub := tree.NewNode("sub")
	require.NoError(t, free.AddChild(sub, -1))

	require.Empty(t, rec.recs)
	require.Equal(t, uint64(0), tr.Revision())
}

// A subtree removed from a live tree keeps its tree binding for the
// re-add path, but mutating it must behave exactly like mutating a
// never-attached node: no records, no revision, no watcher calls.
func TestRemovedSubtreeMutationsStayLocal(t *testing.T) {
	src := tree.NewTree("root")
	rec := &recorder{}
	defer src.Watch(rec.fn)()

	branch := tree.NewNode("branch")
	leafA := tree.NewNode("leaf")
	leafB := tree.NewNode("leaf")
	require.NoError(t, branch.AddChild(leafA, -1))
	require.NoError(t, branch.AddChild(leafB, -1))
	require.NoError(t, src.Root().AddChild(branch, -1))
	require.NoError(t, src.Root().AddChild(tree.NewNode("keep"), -1))

	removed, err := src.Root().RemoveChild(0)
	require.NoError(t, err)
	require.Equal(t, branch, removed)
	require.Len(t, rec.recs, 3)
	rev := src.Revision()

	removed.SetProperty("ghost", tree.NewInt(42))
	leafA.SetProperty("x", tree.NewInt(1))
	require.NoError(t, removed.AddChild(tree.NewNode("extra"), -1))
	require.NoError(t, removed.MoveChild(2, 0))
	_, err = removed.RemoveChild(0)
	require.NoError(t, err)
	require.True(t, removed.RemoveProperty("ghost"))

	require.Len(t, rec.recs, 3)
	require.Equal(t, rev, src.Revision())
	_, ok := src.Root().Property("ghost")
	require.False(t, ok)
	require.Equal(t, 1, src.Root().NumChildren())
	require.Equal(t, "keep", src.Root().Child(0).Kind())

	// a replica fed every record never sees the local edits
	replica := tree.NewTree("root")
	for _, d := range rec.recs {
		applied, err := replica.ApplyDiff(d)
		require.NoError(t, err)
		require.True(t, applied)
	}
	require.True(t, src.Equal(replica))

	// re-adding reports a single graft carrying the subtree's current shape
	require.NoError(t, src.Root().AddChild(removed, -1))
	require.Len(t, rec.recs, 4)
	applied, err := replica.ApplyDiff(rec.recs[3])
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, src.Equal(replica))
	v, ok := replica.Root().Child(1).Child(0).Property("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.Int())
}

func TestRemovedSubtreeReaddsToSameTreeOnly(t *testing.T) {
	tr := tree.NewTree("root")
	child := tree.NewNode("child")
	require.NoError(t, tr.Root().AddChild(child, -1))
	removed, err := tr.Root().RemoveChild(0)
	require.NoError(t, err)

	require.NoError(t, tr.Root().AddChild(removed, -1))

	other := tree.NewTree("root")
	moved, err := tr.Root().RemoveChild(0)
	require.NoError(t, err)
	require.ErrorIs(t, other.Root().AddChild(moved, -1), tree.ErrChildAttached)
}

// Readers on other goroutines must stay safe while one goroutine
// mutates. Exercised for the race detector; no output assertions.
func TestConcurrentReadersDuringMutation(t *testing.T) {
	tr := tree.NewTree("root")
	child := tree.NewNode("child")
	require.NoError(t, tr.Root().AddChild(child, -1))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			root := tr.Root()
			_ = root.NumChildren()
			if c := root.Child(0); c != nil {
				_, _ = c.Property("n")
			}
			_ = tr.Revision()
		}
	}()

	for i := 0; i < 10000; i++ {
		child.SetProperty("n", tree.NewInt(int64(i)))
	}
	close(stop)
	wg.Wait()
}

func TestEqualDetectsDifferences(t *testing.T) {
	a := tree.NewTree("root")
	b := tree.NewTree("root")
	require.True(t, a.Equal(b))

	a.Root().SetProperty("x", tree.NewInt(1))
	require.False(t, a.Equal(b))

	b.Root().SetProperty("x", tree.NewInt(1))
	require.True(t, a.Equal(b))

	require.False(t, a.Equal(tree.NewTree("other")))

	// ordered children: same members, different order
	c := tree.NewTree("root")
	d := tree.NewTree("root")
	require.NoError(t, c.Root().AddChild(tree.NewNode("a"), -1))
	require.NoError(t, c.Root().AddChild(tree.NewNode("b"), -1))
	require.NoError(t, d.Root().AddChild(tree.NewNode("b"), -1))
	require.NoError(t, d.Root().AddChild(tree.NewNode("a"), -1))
	require.False(t, c.Equal(d))
}
