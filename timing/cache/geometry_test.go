package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("Geometry", func() {
	It("should derive the set count", func() {
		g := cache.NewGeometry(16*1024, 4)
		Expect(g.LineSize).To(Equal(32))
		Expect(g.Sets()).To(Equal(128))
		Expect(g.Blocks()).To(Equal(512))
		Expect(g.Validate()).To(Succeed())
	})

	DescribeTable("should decompose addresses",
		func(g cache.Geometry, addr uint64, wantSet, wantTag uint64) {
			set, tag := g.Decompose(addr)
			Expect(set).To(Equal(wantSet))
			Expect(tag).To(Equal(wantTag))
		},
		// 1KB direct-mapped: 32 sets, 5 offset bits, 5 index bits
		Entry("1KB 1-way, zero", cache.NewGeometry(1024, 1), uint64(0), uint64(0), uint64(0)),
		Entry("1KB 1-way, offset ignored", cache.NewGeometry(1024, 1), uint64(0x1F), uint64(0), uint64(0)),
		Entry("1KB 1-way, set 1", cache.NewGeometry(1024, 1), uint64(0x20), uint64(1), uint64(0)),
		Entry("1KB 1-way, wraps to tag 1", cache.NewGeometry(1024, 1), uint64(0x400), uint64(0), uint64(1)),
		// 32KB direct-mapped: 1024 sets; the tag follows the size
		Entry("32KB 1-way", cache.NewGeometry(32*1024, 1), uint64(0x0022f5b4), uint64(0x3AD), uint64(0x45)),
		// 16KB 4-way: 128 sets
		Entry("16KB 4-way", cache.NewGeometry(16*1024, 4), uint64(0x0022f5b4), uint64(0x2D), uint64(0x22F)),
		Entry("fully associative", cache.FullyAssociativeGeometry(512), uint64(0x0022f5b4), uint64(0), uint64(0x117AD)),
		Entry("beyond 32 bits", cache.NewGeometry(1024, 1), uint64(0x100000000), uint64(0), uint64(0x400000)),
	)

	DescribeTable("should reject geometries that cannot be decomposed",
		func(g cache.Geometry) {
			Expect(g.Validate()).NotTo(Succeed())
		},
		Entry("zero size", cache.NewGeometry(0, 1)),
		Entry("zero ways", cache.NewGeometry(1024, 0)),
		Entry("line size not a power of two", cache.Geometry{LineSize: 24, TotalSize: 1024, Ways: 1}),
		Entry("size not a multiple of a set", cache.NewGeometry(1000, 1)),
		Entry("set count not a power of two", cache.NewGeometry(3*1024, 1)),
	)

	It("should accept a non power-of-two associativity", func() {
		g := cache.NewGeometry(6*32*64, 6)
		Expect(g.Validate()).To(Succeed())
		Expect(g.Sets()).To(Equal(64))
	})

	It("should format itself", func() {
		Expect(cache.NewGeometry(16*1024, 4).String()).To(Equal("16KB 4-way 32B"))
		Expect(cache.NewGeometry(512, 1).String()).To(Equal("512B 1-way 32B"))
	})
})

var _ = Describe("Policy", func() {
	It("should round trip through its name", func() {
		for _, p := range []cache.Policy{
			cache.PolicyNone,
			cache.PolicyWriteOnMiss,
			cache.PolicyPrefetchAlways,
			cache.PolicyPrefetchOnMiss,
		} {
			parsed, err := cache.ParsePolicy(p.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(p))
		}
	})

	It("should reject unknown names", func() {
		_, err := cache.ParsePolicy("write-back")
		Expect(err).To(HaveOccurred())
	})
})
