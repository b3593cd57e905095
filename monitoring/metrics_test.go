package monitoring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
)

type namedDomain struct {
	sim.HookableBase
}

func (namedDomain) Name() string {
	return "DMA"
}

var _ = Describe("MetricsHook", func() {
	var (
		reg  *prometheus.Registry
		hook *MetricsHook
		dom  *namedDomain
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		hook = NewMetricsHook(reg)
		dom = &namedDomain{}
	})

	It("should count bursts and errors per engine", func() {
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosBurstIssued,
			Item: ringdma.BurstRequest{Address: 0x1000, Length: 0x100}})
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosBurstIssued,
			Item: ringdma.BurstRequest{Address: 0x1100, Length: 0x100}})
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosPacketWritten,
			Item: ringdma.Event{Kind: ringdma.EventPacketWritten}})
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosBusError,
			Item: ringdma.Event{Kind: ringdma.EventBusError}})

		Expect(testutil.ToFloat64(hook.burstsIssued.WithLabelValues("DMA"))).
			To(Equal(2.0))
		Expect(testutil.ToFloat64(hook.packetsWritten.WithLabelValues("DMA"))).
			To(Equal(1.0))
		Expect(testutil.ToFloat64(hook.busErrors.WithLabelValues("DMA"))).
			To(Equal(1.0))
	})

	It("should label backpressure with the reason", func() {
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosBackpressure,
			Item: ringdma.BlockedRingFull})

		Expect(testutil.ToFloat64(hook.backpressure.WithLabelValues(
			"DMA", ringdma.BlockedRingFull.String()))).To(Equal(1.0))
		Expect(testutil.CollectAndCount(reg,
			"ringdma_engine_backpressure_stalls_total")).To(Equal(1))
	})

	It("should track the engine state", func() {
		hook.Func(sim.HookCtx{Domain: dom, Pos: ringdma.HookPosStateChange,
			Item: ringdma.Event{
				Kind: ringdma.EventStateChange,
				From: ringdma.StateArmed,
				To:   ringdma.StateStreaming,
			}})

		Expect(testutil.ToFloat64(hook.state.WithLabelValues("DMA"))).
			To(Equal(float64(ringdma.StateStreaming)))
	})
})
