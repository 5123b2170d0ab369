package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/trace"
)

// block is one line of a fully-associative cache. An unoccupied block never
// matches, whatever its tag.
type block struct {
	tag      uint64
	recency  uint64
	occupied bool
}

// FullyAssociative models a single-set cache with exact LRU replacement kept
// as a recency counter per block.
type FullyAssociative struct {
	geom   Geometry
	blocks []block
}

// NewFullyAssociative creates an empty fully-associative cache. The geometry
// must have exactly one set.
func NewFullyAssociative(geom Geometry) (*FullyAssociative, error) {
	if err := validateFullyAssociative(geom); err != nil {
		return nil, err
	}

	return &FullyAssociative{
		geom:   geom,
		blocks: make([]block, geom.Ways),
	}, nil
}

func validateFullyAssociative(geom Geometry) error {
	if err := geom.Validate(); err != nil {
		return err
	}
	if geom.Sets() != 1 {
		return fmt.Errorf("fully-associative cache needs one set, %s has %d",
			geom, geom.Sets())
	}
	return nil
}

// Geometry returns the cache geometry.
func (c *FullyAssociative) Geometry() Geometry {
	return c.geom
}

// Access simulates one trace record. The kind of access does not matter.
func (c *FullyAssociative) Access(a trace.Access) bool {
	_, tag := c.geom.Decompose(uint64(a.Address))

	hit := false
	for i := range c.blocks {
		b := &c.blocks[i]
		b.recency++
		if !hit && b.occupied && b.tag == tag {
			hit = true
			b.recency = 0
		}
	}

	if !hit {
		c.install(tag)
	}

	return hit
}

// Occupied returns the number of blocks holding a line.
func (c *FullyAssociative) Occupied() int {
	n := 0
	for _, b := range c.blocks {
		if b.occupied {
			n++
		}
	}
	return n
}

func (c *FullyAssociative) install(tag uint64) {
	victim := 0
	for i := range c.blocks {
		if !c.blocks[i].occupied {
			victim = i
			break
		}
		if c.blocks[i].recency > c.blocks[victim].recency {
			victim = i
		}
	}

	c.blocks[victim] = block{tag: tag, occupied: true}
}
