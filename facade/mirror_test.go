package facade_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mirror/api"
	"github.com/momentics/hioload-mirror/control"
	"github.com/momentics/hioload-mirror/facade"
	"github.com/momentics/hioload-mirror/tree"
)

func TestMirrorAdoptsSourceOnConstruction(t *testing.T) {
	src := tree.NewTree("engine")
	src.Root().SetProperty("preset", tree.NewString("init"))
	require.NoError(t, src.Root().AddChild(tree.NewNode("voice"), -1))

	m, err := facade.New(nil, src)
	require.NoError(t, err)
	defer m.Shutdown()

	require.True(t, src.Equal(m.Replica()), "construction must adopt existing contents")
	require.Same(t, src, m.Source())
}

func TestBackgroundLifecycle(t *testing.T) {
	src := tree.NewTree("engine")
	cfg := facade.DefaultConfig()
	cfg.RingCapacity = 64
	cfg.MaxBackoffNs = int64(100 * time.Microsecond)

	m, err := facade.New(cfg, src)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	require.NoError(t, m.Start(), "second Start must be a no-op")

	for i := 0; i < 300; i++ {
		src.Root().SetProperty("tick", tree.NewInt(int64(i)))
	}

	deadline := time.Now().Add(5 * time.Second)
	for !src.Equal(m.Replica()) {
		require.False(t, time.Now().After(deadline), "no convergence: %+v", m.Stats())
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, m.Shutdown())
	require.NoError(t, m.Shutdown(), "Shutdown must be idempotent")
	require.ErrorIs(t, m.Start(), api.ErrMirrorClosed)
}

func TestManualPollingAndJournal(t *testing.T) {
	src := tree.NewTree("engine")
	cfg := facade.DefaultConfig()
	cfg.Background = false
	cfg.RingCapacity = 2

	m, err := facade.New(cfg, src)
	require.NoError(t, err)
	defer m.Shutdown()
	require.NoError(t, m.Start())

	// overflow the two-slot ring
	src.Root().SetProperty("a", tree.NewInt(1))
	src.Root().SetProperty("b", tree.NewInt(2))
	src.Root().SetProperty("c", tree.NewInt(3))
	require.Equal(t, api.StateOverflowed, m.Stats().State)

	require.True(t, m.PollAndApply())
	require.True(t, src.Equal(m.Replica()))
	require.Equal(t, api.StateSynced, m.Stats().State)

	entries, ok := m.GetControl().Stats()["debug.journal"].([]control.Transition)
	require.True(t, ok)
	reasons := make([]string, len(entries))
	for i, e := range entries {
		reasons[i] = e.Reason
	}
	require.Equal(t, []string{"initial adoption", "ring overflow", "overflow resync"}, reasons)

	stats := m.GetControl().Stats()
	require.Equal(t, uint64(1), stats["mirror.dropped"])
	require.Equal(t, uint64(2), stats["mirror.resyncs"], "initial adoption plus overflow recovery")

	m.GetDebug().RegisterProbe("custom", func() any { return "ok" })
	dump := m.GetDebug().DumpState()
	require.Equal(t, "ok", dump["custom"])
	require.Contains(t, dump, "sync.stats")
}

func TestForceResyncCountsAndJournals(t *testing.T) {
	src := tree.NewTree("engine")
	cfg := facade.DefaultConfig()
	cfg.Background = false

	m, err := facade.New(cfg, src)
	require.NoError(t, err)
	defer m.Shutdown()

	src.Root().SetProperty("x", tree.NewInt(5))
	require.NoError(t, m.ForceResync())
	require.True(t, src.Equal(m.Replica()))

	// the resync discarded the pending record; nothing is left to drain
	require.False(t, m.PollAndApply())
	require.Equal(t, uint64(0), m.Stats().Applied)
	require.Equal(t, uint64(2), m.Stats().Resyncs, "initial adoption plus forced")

	entries := m.GetControl().Stats()["debug.journal"].([]control.Transition)
	require.Equal(t, "forced resync", entries[len(entries)-1].Reason)
}

func TestConstructionValidation(t *testing.T) {
	src := tree.NewTree("engine")

	_, err := facade.New(facade.DefaultConfig(), nil)
	require.Error(t, err)

	bad := facade.DefaultConfig()
	bad.RingCapacity = 0
	_, err = facade.New(bad, src)
	require.Error(t, err)

	bad = facade.DefaultConfig()
	bad.CPUAffinity = true
	bad.PollCPU = -1
	_, err = facade.New(bad, src)
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mirror.yaml")
	body := "ring_capacity: 8\nbackground: false\nmax_backoff_ns: 500000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := facade.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.RingCapacity)
	require.False(t, cfg.Background)
	require.Equal(t, int64(500000), cfg.MaxBackoffNs)
	require.Equal(t, 32, cfg.JournalDepth, "unset fields keep defaults")

	require.NoError(t, os.WriteFile(path, []byte("ring_capacity: 0\n"), 0o644))
	_, err = facade.LoadConfig(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(":::"), 0o644))
	_, err = facade.LoadConfig(path)
	require.Error(t, err)

	_, err = facade.LoadConfig(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}

func TestReloadRetunesBackoff(t *testing.T) {
	src := tree.NewTree("engine")
	cfg := facade.DefaultConfig()
	cfg.RingCapacity = 64
	cfg.MaxBackoffNs = int64(50 * time.Millisecond)

	m, err := facade.New(cfg, src)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Shutdown()

	require.NoError(t, m.GetControl().SetConfig(map[string]any{
		"max_backoff_ns": int64(100 * time.Microsecond),
	}))

	// after an idle stretch at the retuned ceiling, a burst still lands
	time.Sleep(20 * time.Millisecond)
	src.Root().SetProperty("late", tree.NewInt(1))

	deadline := time.Now().Add(2 * time.Second)
	for !src.Equal(m.Replica()) {
		require.False(t, time.Now().After(deadline), "retuned loop missed the burst")
		time.Sleep(time.Millisecond)
	}
}
