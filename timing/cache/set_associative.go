package cache

import "github.com/sarchlab/cachesim/trace"

// slot is one way of a set.
type slot struct {
	tag     uint64
	recency uint64
	valid   bool
}

// SetAssociative models a set-associative cache with exact LRU replacement.
// A 1-way SetAssociative is a direct-mapped cache.
type SetAssociative struct {
	geom   Geometry
	policy Policy

	// slots holds all sets back to back; set s owns
	// slots[s*ways : (s+1)*ways].
	slots []slot
}

// NewSetAssociative creates an empty cache with the given geometry and policy.
func NewSetAssociative(geom Geometry, policy Policy) (*SetAssociative, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	return &SetAssociative{
		geom:   geom,
		policy: policy,
		slots:  make([]slot, geom.Blocks()),
	}, nil
}

// Geometry returns the cache geometry.
func (c *SetAssociative) Geometry() Geometry {
	return c.geom
}

// Policy returns the write/prefetch policy.
func (c *SetAssociative) Policy() Policy {
	return c.policy
}

// Access simulates one trace record. Prefetches issued by the policy warm the
// cache but are never counted.
func (c *SetAssociative) Access(a trace.Access) bool {
	addr := uint64(a.Address)

	hit := c.reference(addr, c.policy.allocatesOnMiss(a.Kind == trace.Store))

	if c.policy.prefetchesAfter(hit) {
		c.reference(addr+uint64(c.geom.LineSize), true)
	}

	return hit
}

// Contains reports whether the line holding addr is resident, without
// touching recency.
func (c *SetAssociative) Contains(addr uint32) bool {
	set, tag := c.geom.Decompose(uint64(addr))
	for _, s := range c.set(set) {
		if s.valid && s.tag == tag {
			return true
		}
	}
	return false
}

func (c *SetAssociative) set(index uint64) []slot {
	ways := uint64(c.geom.Ways)
	return c.slots[index*ways : (index+1)*ways]
}

// reference looks addr up, ages the set and installs the line on a miss when
// allocate is set.
func (c *SetAssociative) reference(addr uint64, allocate bool) bool {
	index, tag := c.geom.Decompose(addr)
	set := c.set(index)

	hit := false
	for i := range set {
		if !set[i].valid {
			continue
		}

		set[i].recency++
		if !hit && set[i].tag == tag {
			hit = true
			set[i].recency = 0
		}
	}

	if !hit && allocate {
		install(set, tag)
	}

	return hit
}

// install places tag into the first empty slot, or else over the slot with
// the largest recency, the lowest index winning ties.
func install(set []slot, tag uint64) {
	victim := 0
	for i := range set {
		if !set[i].valid {
			victim = i
			break
		}
		if set[i].recency > set[victim].recency {
			victim = i
		}
	}

	set[victim] = slot{tag: tag, valid: true}
}
