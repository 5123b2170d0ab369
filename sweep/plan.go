// Package sweep enumerates cache configurations and runs each of them over a
// shared trace.
package sweep

import (
	"fmt"

	"github.com/sarchlab/cachesim/timing/cache"
)

// Group names, in the order DefaultPlan emits them.
const (
	GroupDirectMapped         = "direct-mapped"
	GroupSetAssociative       = "set-associative"
	GroupFullyAssociativeLRU  = "fully-associative-lru"
	GroupFullyAssociativePLRU = "fully-associative-plru"
	GroupWriteOnMiss          = "write-on-miss"
	GroupPrefetchAlways       = "prefetch-always"
	GroupPrefetchOnMiss       = "prefetch-on-miss"
)

// EngineKind selects the cache model a point runs on.
type EngineKind uint8

const (
	// EngineSetAssociative is the exact-LRU set-associative engine, also
	// used for direct-mapped points.
	EngineSetAssociative EngineKind = iota
	// EngineFullyAssociative is the per-block counter exact-LRU engine.
	EngineFullyAssociative
	// EnginePseudoLRU is the tree pseudo-LRU engine.
	EnginePseudoLRU
)

func (k EngineKind) String() string {
	switch k {
	case EngineSetAssociative:
		return "set-associative"
	case EngineFullyAssociative:
		return "fully-associative-lru"
	case EnginePseudoLRU:
		return "fully-associative-plru"
	default:
		return fmt.Sprintf("EngineKind(%d)", uint8(k))
	}
}

// Point is one configuration of the sweep.
type Point struct {
	Group    string
	Engine   EngineKind
	Geometry cache.Geometry
	// Policy only applies to the set-associative engine; the
	// fully-associative engines ignore it.
	Policy cache.Policy
}

// Label describes the point for logs.
func (p Point) Label() string {
	if p.Policy == cache.PolicyNone {
		return fmt.Sprintf("%s [%s]", p.Group, p.Geometry)
	}
	return fmt.Sprintf("%s [%s, %s]", p.Group, p.Geometry, p.Policy)
}

// NewEngine builds a fresh, empty engine for the point.
func (p Point) NewEngine() (cache.Engine, error) {
	switch p.Engine {
	case EngineSetAssociative:
		return cache.NewSetAssociative(p.Geometry, p.Policy)
	case EngineFullyAssociative:
		return cache.NewFullyAssociative(p.Geometry)
	case EnginePseudoLRU:
		return cache.NewPseudoLRU(p.Geometry)
	default:
		return nil, fmt.Errorf("unknown engine %s", p.Engine)
	}
}

// DefaultPlan returns the standard sweep: direct-mapped sizes, associativities
// at 16KB, the two fully-associative caches, then the associativities again
// under each write/prefetch policy.
func DefaultPlan() []Point {
	return DefaultPlanConfig().Plan()
}

func policyGroup(p cache.Policy) string {
	switch p {
	case cache.PolicyWriteOnMiss:
		return GroupWriteOnMiss
	case cache.PolicyPrefetchAlways:
		return GroupPrefetchAlways
	case cache.PolicyPrefetchOnMiss:
		return GroupPrefetchOnMiss
	default:
		return GroupSetAssociative
	}
}
