package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Per-tick timing accumulator. Worker goroutines and the simulation loop
// report into the same table; the loop resets it at the start of each tick.

// Entry is the accumulated time and call count for one name.
type Entry struct {
	Name  string
	Total time.Duration
	Calls int
}

var (
	enabled atomic.Bool
	mu      sync.Mutex
	totals  = make(map[string]*Entry)
)

func init() {
	enabled.Store(true)
}

// SetEnabled turns recording on or off. Track is a cheap no-op when off.
func SetEnabled(on bool) {
	enabled.Store(on)
}

func noop() {}

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.UpdateChunks")()
func Track(name string) func() {
	if !enabled.Load() {
		return noop
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		e := totals[name]
		if e == nil {
			e = &Entry{Name: name}
			totals[name] = e
		}
		e.Total += d
		e.Calls++
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each tick.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	mu.Unlock()
}

// Snapshot returns the current entries, slowest first.
func Snapshot() []Entry {
	mu.Lock()
	out := make([]Entry, 0, len(totals))
	for _, e := range totals {
		out = append(out, *e)
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n slowest entries.
// Example: "world.PopulateChunk:4.2ms(3), world.UpdateChunks:0.8ms(1)"
func TopN(n int) string {
	list := Snapshot()
	n = max(0, min(n, len(list)))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		ms := float64(e.Total.Microseconds()) / 1000.0
		parts = append(parts, e.Name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms("+strconv.Itoa(e.Calls)+")")
	}
	return strings.Join(parts, ", ")
}

// SumWithPrefix totals every entry whose name starts with prefix.
func SumWithPrefix(prefix string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	var total time.Duration
	for name, e := range totals {
		if strings.HasPrefix(name, prefix) {
			total += e.Total
		}
	}
	return total
}
