package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	Reset()

	stop := Track("test.op")
	time.Sleep(2 * time.Millisecond)
	stop()

	snap := Snapshot()
	if snap["test.op"] < 2*time.Millisecond {
		t.Errorf("test.op = %v, want >= 2ms", snap["test.op"])
	}
}

func TestResetFrameKeepsTotals(t *testing.T) {
	Reset()

	Track("test.op")()
	Track("test.op")()
	ResetFrame()

	if d := Snapshot()["test.op"]; d != 0 {
		t.Errorf("frame duration after reset = %v, want 0", d)
	}
	_, calls := Totals()
	if calls["test.op"] != 2 {
		t.Errorf("calls = %d, want 2 surviving frame reset", calls["test.op"])
	}
}

func TestTopNOrdersByDuration(t *testing.T) {
	Reset()

	slow := Track("slow.op")
	time.Sleep(5 * time.Millisecond)
	slow()
	fast := Track("fast.op")
	time.Sleep(1 * time.Millisecond)
	fast()

	out := TopN(2)
	si := strings.Index(out, "slow.op")
	fi := strings.Index(out, "fast.op")
	if si < 0 || fi < 0 || si > fi {
		t.Errorf("TopN(2) = %q, want slow.op before fast.op", out)
	}

	if got := TopN(1); strings.Contains(got, "fast.op") {
		t.Errorf("TopN(1) = %q, want only the slowest entry", got)
	}
}

func TestTopNEmpty(t *testing.T) {
	Reset()
	if out := TopN(5); out != "" {
		t.Errorf("TopN on empty profile = %q, want empty", out)
	}
}
