// Package profiling is a lightweight per-frame CPU profiler for the
// streaming update loop.
package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	frame time.Duration
	total time.Duration
	calls uint64
}

var (
	mu      sync.Mutex
	buckets = make(map[string]*bucket)
)

// Track returns a stop function that records the elapsed time under the
// given name.
// Usage: defer profiling.Track("planet.Update")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		b := buckets[name]
		if b == nil {
			b = &bucket{}
			buckets[name] = b
		}
		b.frame += d
		b.total += d
		b.calls++
		mu.Unlock()
	}
}

// ResetFrame clears the per-frame durations while keeping cumulative
// totals. Call at the start of each update.
func ResetFrame() {
	mu.Lock()
	for _, b := range buckets {
		b.frame = 0
	}
	mu.Unlock()
}

// Reset drops all recorded data.
func Reset() {
	mu.Lock()
	buckets = make(map[string]*bucket)
	mu.Unlock()
}

// Snapshot returns a copy of the current per-frame durations.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(buckets))
	for k, b := range buckets {
		out[k] = b.frame
	}
	return out
}

// Totals returns cumulative durations and call counts since the last Reset.
func Totals() (durations map[string]time.Duration, calls map[string]uint64) {
	mu.Lock()
	defer mu.Unlock()
	durations = make(map[string]time.Duration, len(buckets))
	calls = make(map[string]uint64, len(buckets))
	for k, b := range buckets {
		durations[k] = b.total
		calls[k] = b.calls
	}
	return durations, calls
}

// TopN formats the N most expensive entries of the current frame, such as
// "planet.Update:4.2ms, mesh.Generate:2.1ms".
func TopN(n int) string {
	snap := Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(snap))
	for k, v := range snap {
		if v > 0 {
			list = append(list, pair{k, v})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur != list[j].dur {
			return list[i].dur > list[j].dur
		}
		return list[i].name < list[j].name
	})
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, list[i].name+":"+formatMs(list[i].dur))
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}
