package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/trace"
)

type leaf struct {
	tag      uint64
	occupied bool
}

// PseudoLRU models a fully-associative cache whose replacement order is kept
// in a complete binary tree of direction bits instead of per-block counters.
//
// Tree nodes are numbered heap style: node n has children 2n+1 (left) and
// 2n+2 (right). Nodes 0..len(bits)-1 are internal, node len(bits)+i is leaf i.
// An internal bit holds the direction of the most recent walk through that
// node, true meaning right.
type PseudoLRU struct {
	geom   Geometry
	bits   []bool
	leaves []leaf
}

// NewPseudoLRU creates an empty tree pseudo-LRU cache. The geometry must have
// one set and a power-of-two number of ways.
func NewPseudoLRU(geom Geometry) (*PseudoLRU, error) {
	if err := validateFullyAssociative(geom); err != nil {
		return nil, err
	}
	if !isPowerOfTwo(geom.Ways) {
		return nil, fmt.Errorf("pseudo-LRU tree needs a power-of-two block count, got %d",
			geom.Ways)
	}

	return &PseudoLRU{
		geom:   geom,
		bits:   make([]bool, geom.Ways-1),
		leaves: make([]leaf, geom.Ways),
	}, nil
}

// Geometry returns the cache geometry.
func (c *PseudoLRU) Geometry() Geometry {
	return c.geom
}

// Access simulates one trace record. Lookup is a linear scan over the
// leaves; the tree only decides recency and victims.
func (c *PseudoLRU) Access(a trace.Access) bool {
	_, tag := c.geom.Decompose(uint64(a.Address))

	for i, l := range c.leaves {
		if l.occupied && l.tag == tag {
			c.touch(i)
			return true
		}
	}

	c.leaves[c.victim()] = leaf{tag: tag, occupied: true}

	return false
}

// touch points every bit on the path from leaf i to the root at the side
// just visited, so the next victim walk turns away from it.
func (c *PseudoLRU) touch(i int) {
	node := len(c.bits) + i
	for node > 0 {
		parent := (node - 1) / 2
		c.bits[parent] = node%2 == 0
		node = parent
	}
}

// victim walks from the root, flipping each bit and following the new
// direction, and returns the leaf reached.
func (c *PseudoLRU) victim() int {
	node := 0
	for node < len(c.bits) {
		c.bits[node] = !c.bits[node]
		if c.bits[node] {
			node = 2*node + 2
		} else {
			node = 2*node + 1
		}
	}

	return node - len(c.bits)
}
