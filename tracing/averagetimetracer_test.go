package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/ringdma/sim"
)

type testTimeTeller struct {
	currentTime sim.VTimeInSec
}

func (t *testTimeTeller) CurrentTime() sim.VTimeInSec {
	return t.currentTime
}

var _ = Describe("AverageTimeTracer", func() {
	var (
		timeTeller *testTimeTeller
		tracer     *AverageTimeTracer
	)

	BeforeEach(func() {
		timeTeller = &testTimeTeller{}
		tracer = NewAverageTimeTracer(timeTeller, func(t Task) bool {
			return t.Kind == "burst"
		})
	})

	It("should average the task time", func() {
		timeTeller.currentTime = 1
		tracer.StartTask(Task{ID: "a", Kind: "burst"})
		tracer.StartTask(Task{ID: "b", Kind: "burst"})
		Expect(tracer.NumInflight()).To(Equal(2))

		timeTeller.currentTime = 2
		tracer.EndTask(Task{ID: "a"})

		timeTeller.currentTime = 4
		tracer.EndTask(Task{ID: "b"})

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(BeNumerically("~", 2.0, 1e-9))
		Expect(tracer.MaxTime()).To(BeNumerically("~", 3.0, 1e-9))
	})

	It("should ignore filtered tasks", func() {
		tracer.StartTask(Task{ID: "a", Kind: "other"})
		timeTeller.currentTime = 2
		tracer.EndTask(Task{ID: "a"})

		Expect(tracer.TotalCount()).To(Equal(uint64(0)))
		Expect(tracer.NumInflight()).To(Equal(0))
		Expect(tracer.AverageTime()).To(BeZero())
	})
})
