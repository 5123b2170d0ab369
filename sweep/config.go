package sweep

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/timing/cache"
)

// PlanConfig describes the configuration space of a sweep.
type PlanConfig struct {
	// LineSize is the cache line size in bytes. Default: 32.
	LineSize int `json:"line_size"`

	// DirectMappedSizesKB are the capacities of the direct-mapped group.
	// Default: 1, 4, 16, 32.
	DirectMappedSizesKB []int `json:"direct_mapped_sizes_kb"`

	// Associativities are the way counts of the set-associative and policy
	// groups. Default: 2, 4, 8, 16.
	Associativities []int `json:"associativities"`

	// AssociativeSizeKB is the capacity of the set-associative and policy
	// groups. Default: 16.
	AssociativeSizeKB int `json:"associative_size_kb"`

	// FullyAssociativeBlocks is the block count of both fully-associative
	// caches; 0 leaves them out. Default: 512.
	FullyAssociativeBlocks int `json:"fully_associative_blocks"`

	// Policies lists the policy groups run after the fully-associative
	// caches, in order. Default: write-on-miss, prefetch-always,
	// prefetch-on-miss.
	Policies []cache.Policy `json:"policies"`
}

// DefaultPlanConfig returns the standard configuration space.
func DefaultPlanConfig() *PlanConfig {
	return &PlanConfig{
		LineSize:               cache.DefaultLineSize,
		DirectMappedSizesKB:    []int{1, 4, 16, 32},
		Associativities:        []int{2, 4, 8, 16},
		AssociativeSizeKB:      16,
		FullyAssociativeBlocks: cache.DefaultFullyAssociativeBlocks,
		Policies: []cache.Policy{
			cache.PolicyWriteOnMiss,
			cache.PolicyPrefetchAlways,
			cache.PolicyPrefetchOnMiss,
		},
	}
}

// LoadPlanConfig loads a PlanConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadPlanConfig(path string) (*PlanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan config file: %w", err)
	}

	config := DefaultPlanConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse plan config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a PlanConfig to a JSON file.
func (c *PlanConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize plan config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan config file: %w", err)
	}

	return nil
}

// Validate checks that every point of the plan has a usable geometry.
func (c *PlanConfig) Validate() error {
	seen := map[cache.Policy]bool{}
	for _, p := range c.Policies {
		if p == cache.PolicyNone {
			return fmt.Errorf("policies must not list %q; the set-associative group always runs", p)
		}
		if seen[p] {
			return fmt.Errorf("policy %q listed twice", p)
		}
		seen[p] = true
	}

	for _, point := range c.Plan() {
		if err := point.Geometry.Validate(); err != nil {
			return fmt.Errorf("%s: %w", point.Label(), err)
		}
		if point.Engine == EnginePseudoLRU && !isPowerOfTwo(point.Geometry.Ways) {
			return fmt.Errorf("fully_associative_blocks %d must be a power of two",
				point.Geometry.Ways)
		}
	}

	return nil
}

// Plan expands the configuration into points, in output order.
func (c *PlanConfig) Plan() []Point {
	var plan []Point

	for _, kb := range c.DirectMappedSizesKB {
		plan = append(plan, Point{
			Group:    GroupDirectMapped,
			Engine:   EngineSetAssociative,
			Geometry: c.geometry(kb*1024, 1),
		})
	}

	plan = append(plan, c.associativePoints(cache.PolicyNone)...)

	if c.FullyAssociativeBlocks > 0 {
		fa := c.geometry(c.FullyAssociativeBlocks*c.LineSize, c.FullyAssociativeBlocks)
		plan = append(plan,
			Point{Group: GroupFullyAssociativeLRU, Engine: EngineFullyAssociative, Geometry: fa},
			Point{Group: GroupFullyAssociativePLRU, Engine: EnginePseudoLRU, Geometry: fa},
		)
	}

	for _, p := range c.Policies {
		plan = append(plan, c.associativePoints(p)...)
	}

	return plan
}

func (c *PlanConfig) associativePoints(policy cache.Policy) []Point {
	points := make([]Point, 0, len(c.Associativities))
	for _, ways := range c.Associativities {
		points = append(points, Point{
			Group:    policyGroup(policy),
			Engine:   EngineSetAssociative,
			Geometry: c.geometry(c.AssociativeSizeKB*1024, ways),
			Policy:   policy,
		})
	}
	return points
}

func (c *PlanConfig) geometry(totalSize, ways int) cache.Geometry {
	return cache.Geometry{
		LineSize:  c.LineSize,
		TotalSize: totalSize,
		Ways:      ways,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
