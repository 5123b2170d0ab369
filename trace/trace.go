// Package trace provides the memory-access trace consumed by the cache
// simulators: an immutable, ordered sequence of loads and stores.
package trace

import "fmt"

// Kind distinguishes loads from stores.
type Kind uint8

const (
	// Load is a memory read.
	Load Kind = iota
	// Store is a memory write.
	Store
)

// String returns the single-letter trace mnemonic of the kind.
func (k Kind) String() string {
	switch k {
	case Load:
		return "L"
	case Store:
		return "S"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Access is one record of a memory trace.
type Access struct {
	Kind    Kind
	Address uint32
}

// Trace is an ordered sequence of accesses. A Trace is never modified after
// it has been built, so it can be shared by any number of concurrent readers.
type Trace struct {
	accesses []Access
	stores   int
}

// New builds a Trace from the given accesses. The slice is copied.
func New(accesses []Access) *Trace {
	t := &Trace{accesses: make([]Access, len(accesses))}
	copy(t.accesses, accesses)

	for _, a := range t.accesses {
		if a.Kind == Store {
			t.stores++
		}
	}

	return t
}

// Len returns the number of accesses in the trace.
func (t *Trace) Len() int {
	return len(t.accesses)
}

// At returns the i-th access.
func (t *Trace) At(i int) Access {
	return t.accesses[i]
}

// Loads returns the number of load accesses.
func (t *Trace) Loads() int {
	return len(t.accesses) - t.stores
}

// Stores returns the number of store accesses.
func (t *Trace) Stores() int {
	return t.stores
}
