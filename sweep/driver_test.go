package sweep_test

import (
	"bytes"
	"errors"
	"log"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/trace"
)

func randomTrace(n int, seed uint64) *trace.Trace {
	rng := rand.New(rand.NewPCG(seed, 42))

	accesses := make([]trace.Access, n)
	for i := range accesses {
		// Mostly nearby lines with the occasional far jump.
		if rng.IntN(8) == 0 {
			accesses[i].Address = rng.Uint32()
		} else {
			accesses[i].Address = rng.Uint32N(1 << 16)
		}
		if rng.IntN(4) == 0 {
			accesses[i].Kind = trace.Store
		}
	}
	return trace.New(accesses)
}

var _ = Describe("Driver", func() {
	var (
		mockCtrl *gomock.Controller
		t        *trace.Trace
		plan     []sweep.Point
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		t = randomTrace(20000, 1)
		plan = sweep.DefaultPlan()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should default to one worker per CPU", func() {
		d := sweep.NewDriver(sweep.DriverConfig{})
		Expect(d.Workers()).To(BeNumerically(">", 0))
	})

	It("should return one outcome per point in plan order", func() {
		d := sweep.NewDriver(sweep.DriverConfig{Workers: 4})

		outcomes, err := d.Run(t, plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(HaveLen(len(plan)))

		for i, o := range outcomes {
			Expect(o.Point).To(Equal(plan[i]))
			Expect(o.Result.Accesses).To(Equal(uint64(t.Len())))
			Expect(o.Result.Hits).To(BeNumerically("<=", o.Result.Accesses))

			e, err := plan[i].NewEngine()
			Expect(err).NotTo(HaveOccurred())
			Expect(o.Result).To(Equal(cache.Run(e, t)), plan[i].Label())
		}
	})

	It("should not depend on the number of workers", func() {
		serial, err := sweep.NewDriver(sweep.DriverConfig{Workers: 1}).Run(t, plan)
		Expect(err).NotTo(HaveOccurred())

		parallel, err := sweep.NewDriver(sweep.DriverConfig{Workers: 16}).Run(t, plan)
		Expect(err).NotTo(HaveOccurred())

		Expect(parallel).To(Equal(serial))
	})

	It("should agree with the directory reference when verifying", func() {
		d := sweep.NewDriver(sweep.DriverConfig{Workers: 4, Verify: true})

		_, err := d.Run(t, plan)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should handle an empty trace", func() {
		outcomes, err := sweep.NewDriver(sweep.DriverConfig{}).Run(trace.New(nil), plan)
		Expect(err).NotTo(HaveOccurred())
		for _, o := range outcomes {
			Expect(o.Result).To(Equal(cache.Result{}))
		}
	})

	It("should log one line per point", func() {
		var buf bytes.Buffer
		d := sweep.NewDriver(sweep.DriverConfig{
			Workers: 2,
			Logger:  log.New(&buf, "", 0),
		})

		_, err := d.Run(t, plan[:3])
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Count(buf.Bytes(), []byte("\n"))).To(Equal(3))
		Expect(buf.String()).To(ContainSubstring("direct-mapped [1KB 1-way 32B]"))
	})

	It("should feed the sink in plan order", func() {
		sink := NewMockSink(mockCtrl)

		expected, err := sweep.NewDriver(sweep.DriverConfig{}).Run(t, plan)
		Expect(err).NotTo(HaveOccurred())

		var prev *gomock.Call
		for _, o := range expected {
			call := sink.EXPECT().Record(o).Return(nil)
			if prev != nil {
				call.After(prev)
			}
			prev = call
		}

		d := sweep.NewDriver(sweep.DriverConfig{Workers: 8, Sink: sink})
		_, err = d.Run(t, plan)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report sink failures", func() {
		sink := NewMockSink(mockCtrl)
		sink.EXPECT().Record(gomock.Any()).Return(errors.New("disk full"))

		d := sweep.NewDriver(sweep.DriverConfig{Sink: sink})
		_, err := d.Run(t, plan)
		Expect(err).To(MatchError(ContainSubstring("disk full")))
	})

	It("should fail before simulating when a point is invalid", func() {
		sink := NewMockSink(mockCtrl)

		bad := append([]sweep.Point{}, plan...)
		bad = append(bad, sweep.Point{
			Group:    sweep.GroupDirectMapped,
			Engine:   sweep.EngineSetAssociative,
			Geometry: cache.NewGeometry(3*1024, 1),
		})

		d := sweep.NewDriver(sweep.DriverConfig{Sink: sink})
		outcomes, err := d.Run(t, bad)
		Expect(err).To(HaveOccurred())
		Expect(outcomes).To(BeNil())
	})
})

var _ = Describe("MismatchError", func() {
	It("should name the point and both hit counts", func() {
		err := &sweep.MismatchError{
			Point:     sweep.DefaultPlan()[4],
			Result:    cache.Result{Hits: 10, Accesses: 20},
			Reference: cache.Result{Hits: 11, Accesses: 20},
		}
		Expect(err.Error()).To(Equal(
			"set-associative [16KB 2-way 32B]: 10 hits, reference directory has 11"))
	})
})
