// Package cache provides trace-driven cache models: a set-associative engine
// (direct-mapped being its 1-way case), fully-associative engines with exact
// and tree pseudo-LRU replacement, and an Akita directory based reference.
package cache

import (
	"fmt"
	"math/bits"
)

// DefaultLineSize is the cache line size used by every sweep, in bytes.
const DefaultLineSize = 32

// DefaultFullyAssociativeBlocks is the block count of the fully-associative
// caches (512 blocks of 32 bytes, 16KB).
const DefaultFullyAssociativeBlocks = 512

// Geometry describes the shape of a cache.
type Geometry struct {
	// LineSize in bytes
	LineSize int
	// TotalSize in bytes
	TotalSize int
	// Ways is the associativity (number of slots per set)
	Ways int
}

// NewGeometry returns a geometry with the default line size.
func NewGeometry(totalSize, ways int) Geometry {
	return Geometry{
		LineSize:  DefaultLineSize,
		TotalSize: totalSize,
		Ways:      ways,
	}
}

// FullyAssociativeGeometry returns the geometry of a single-set cache holding
// the given number of default-sized lines.
func FullyAssociativeGeometry(blocks int) Geometry {
	return NewGeometry(blocks*DefaultLineSize, blocks)
}

// Validate checks that the geometry can be decomposed with shifts and masks.
func (g Geometry) Validate() error {
	if g.LineSize <= 0 || !isPowerOfTwo(g.LineSize) {
		return fmt.Errorf("line size %d must be a positive power of two", g.LineSize)
	}
	if g.Ways <= 0 {
		return fmt.Errorf("associativity %d must be > 0", g.Ways)
	}
	if g.TotalSize <= 0 || g.TotalSize%(g.LineSize*g.Ways) != 0 {
		return fmt.Errorf("cache size %d is not a multiple of %d-way %dB lines",
			g.TotalSize, g.Ways, g.LineSize)
	}
	if !isPowerOfTwo(g.Sets()) {
		return fmt.Errorf("set count %d must be a power of two", g.Sets())
	}
	return nil
}

// Sets returns the number of sets.
func (g Geometry) Sets() int {
	return g.TotalSize / (g.LineSize * g.Ways)
}

// Blocks returns the total number of lines the cache holds.
func (g Geometry) Blocks() int {
	return g.Sets() * g.Ways
}

// Decompose splits a byte address into its set index and tag. The same
// formula applies to every associativity.
func (g Geometry) Decompose(addr uint64) (set uint64, tag uint64) {
	offsetBits := bits.TrailingZeros(uint(g.LineSize))
	indexBits := bits.TrailingZeros(uint(g.Sets()))

	block := addr >> offsetBits
	set = block & (uint64(g.Sets()) - 1)
	tag = block >> indexBits

	return set, tag
}

// String formats the geometry as e.g. "16KB 4-way 32B".
func (g Geometry) String() string {
	return fmt.Sprintf("%s %d-way %dB", formatSize(g.TotalSize), g.Ways, g.LineSize)
}

func formatSize(n int) string {
	if n >= 1024 && n%1024 == 0 {
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%dB", n)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
