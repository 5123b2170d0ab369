package sweep_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("Plan", func() {
	It("should enumerate the default sweep in output order", func() {
		plan := sweep.DefaultPlan()
		Expect(plan).To(HaveLen(22))

		groups := []string{}
		for _, p := range plan {
			if len(groups) == 0 || groups[len(groups)-1] != p.Group {
				groups = append(groups, p.Group)
			}
		}
		Expect(groups).To(Equal([]string{
			sweep.GroupDirectMapped,
			sweep.GroupSetAssociative,
			sweep.GroupFullyAssociativeLRU,
			sweep.GroupFullyAssociativePLRU,
			sweep.GroupWriteOnMiss,
			sweep.GroupPrefetchAlways,
			sweep.GroupPrefetchOnMiss,
		}))
	})

	It("should size the direct-mapped group", func() {
		plan := sweep.DefaultPlan()
		for i, kb := range []int{1, 4, 16, 32} {
			Expect(plan[i].Geometry).To(Equal(cache.NewGeometry(kb*1024, 1)))
			Expect(plan[i].Engine).To(Equal(sweep.EngineSetAssociative))
		}
	})

	It("should run the policy groups at 16KB", func() {
		plan := sweep.DefaultPlan()
		for _, p := range plan[10:] {
			Expect(p.Geometry.TotalSize).To(Equal(16 * 1024))
			Expect(p.Policy).NotTo(Equal(cache.PolicyNone))
		}
		Expect(plan[10].Policy).To(Equal(cache.PolicyWriteOnMiss))
		Expect(plan[14].Policy).To(Equal(cache.PolicyPrefetchAlways))
		Expect(plan[18].Policy).To(Equal(cache.PolicyPrefetchOnMiss))
		Expect(plan[21].Geometry.Ways).To(Equal(16))
	})

	It("should place the fully-associative caches after the associativity sweep", func() {
		plan := sweep.DefaultPlan()
		Expect(plan[8].Engine).To(Equal(sweep.EngineFullyAssociative))
		Expect(plan[9].Engine).To(Equal(sweep.EnginePseudoLRU))
		Expect(plan[8].Geometry).To(Equal(cache.FullyAssociativeGeometry(512)))
	})

	It("should build an engine for every point", func() {
		for _, p := range sweep.DefaultPlan() {
			e, err := p.NewEngine()
			Expect(err).NotTo(HaveOccurred(), p.Label())
			Expect(e).NotTo(BeNil())
		}
	})

	It("should label points", func() {
		plan := sweep.DefaultPlan()
		Expect(plan[0].Label()).To(Equal("direct-mapped [1KB 1-way 32B]"))
		Expect(plan[10].Label()).To(Equal("write-on-miss [16KB 2-way 32B, write-on-miss]"))
	})
})

var _ = Describe("PlanConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writeConfig := func(content string) string {
		path := filepath.Join(dir, "plan.json")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("should validate the defaults", func() {
		Expect(sweep.DefaultPlanConfig().Validate()).To(Succeed())
	})

	It("should overlay a file onto the defaults", func() {
		path := writeConfig(`{"associativities": [2, 4], "policies": ["prefetch-always"]}`)

		config, err := sweep.LoadPlanConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.Validate()).To(Succeed())
		Expect(config.DirectMappedSizesKB).To(Equal([]int{1, 4, 16, 32}))
		Expect(config.Policies).To(Equal([]cache.Policy{cache.PolicyPrefetchAlways}))

		plan := config.Plan()
		Expect(plan).To(HaveLen(4 + 2 + 2 + 2))
		Expect(plan[len(plan)-1].Group).To(Equal(sweep.GroupPrefetchAlways))
	})

	It("should leave out the fully-associative caches when asked", func() {
		config := sweep.DefaultPlanConfig()
		config.FullyAssociativeBlocks = 0

		for _, p := range config.Plan() {
			Expect(p.Engine).To(Equal(sweep.EngineSetAssociative))
		}
	})

	It("should round trip through a file", func() {
		path := filepath.Join(dir, "saved.json")
		Expect(sweep.DefaultPlanConfig().SaveConfig(path)).To(Succeed())

		config, err := sweep.LoadPlanConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(config).To(Equal(sweep.DefaultPlanConfig()))
	})

	It("should fail on a missing file", func() {
		_, err := sweep.LoadPlanConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(HaveOccurred())
	})

	It("should fail on an unknown policy", func() {
		_, err := sweep.LoadPlanConfig(writeConfig(`{"policies": ["write-back"]}`))
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should reject unusable plans",
		func(content string) {
			config, err := sweep.LoadPlanConfig(writeConfig(content))
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Validate()).NotTo(Succeed())
		},
		Entry("base policy listed", `{"policies": ["none"]}`),
		Entry("duplicate policy", `{"policies": ["write-on-miss", "write-on-miss"]}`),
		Entry("odd direct-mapped size", `{"direct_mapped_sizes_kb": [3]}`),
		Entry("line size not a power of two", `{"line_size": 48}`),
		Entry("pseudo-LRU block count not a power of two", `{"fully_associative_blocks": 24}`),
	)
})
