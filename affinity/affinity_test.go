package affinity_test

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-mirror/affinity"
)

func TestSetAffinityCurrentThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := affinity.SetAffinity(0)
	switch runtime.GOOS {
	case "linux", "windows":
		if err != nil {
			t.Fatalf("SetAffinity(0): %v", err)
		}
	default:
		if err == nil {
			t.Fatal("expected unsupported-platform error")
		}
	}
}

func TestSetAffinityRejectsNegative(t *testing.T) {
	if err := affinity.SetAffinity(-1); err == nil {
		t.Fatal("negative cpu id accepted")
	}
}
