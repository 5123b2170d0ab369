package cache

import "github.com/sarchlab/cachesim/trace"

// Engine is a cache model that can be driven access by access.
type Engine interface {
	// Access simulates one trace record and reports whether it hit.
	Access(a trace.Access) bool
}

// Result holds the outcome of running an engine over a trace.
type Result struct {
	Hits     uint64
	Accesses uint64
}

// Misses returns the number of accesses that did not hit.
func (r Result) Misses() uint64 {
	return r.Accesses - r.Hits
}

// HitRate returns hits over accesses, or 0 for an empty run.
func (r Result) HitRate() float64 {
	if r.Accesses == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Accesses)
}

// Run feeds every access of the trace, in order, to the engine.
func Run(e Engine, t *trace.Trace) Result {
	var r Result

	n := t.Len()
	for i := 0; i < n; i++ {
		if e.Access(t.At(i)) {
			r.Hits++
		}
	}
	r.Accesses = uint64(n)

	return r
}
