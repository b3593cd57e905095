package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
)

// MetricsHook counts ring DMA engine events into Prometheus metrics. One hook
// can be shared by several engines; the engine name is the label.
type MetricsHook struct {
	burstsIssued    *prometheus.CounterVec
	packetsWritten  *prometheus.CounterVec
	busErrors       *prometheus.CounterVec
	configErrors    *prometheus.CounterVec
	backpressure    *prometheus.CounterVec
	stateTransition *prometheus.CounterVec
	state           *prometheus.GaugeVec
}

// NewMetricsHook creates a MetricsHook and registers its metrics.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	f := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringdma",
				Subsystem: "engine",
				Name:      name,
				Help:      help,
			},
			append([]string{"engine"}, labels...),
		)
	}

	return &MetricsHook{
		burstsIssued: counter("bursts_issued_total",
			"Total bursts issued to the memory bus"),
		packetsWritten: counter("packets_written_total",
			"Total bursts retired by the completion tracker"),
		busErrors: counter("bus_errors_total",
			"Total bursts that completed with an error"),
		configErrors: counter("config_errors_total",
			"Total rejected register writes and enables"),
		backpressure: counter("backpressure_stalls_total",
			"Issue attempts that found the engine blocked, by reason. "+
				"A blocked engine sleeps until woken, so one stall is "+
				"counted once per wakeup, not once per cycle", "reason"),
		stateTransition: counter("state_transitions_total",
			"Engine state transitions", "to"),
		state: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ringdma",
				Subsystem: "engine",
				Name:      "state",
				Help:      "Engine state code as reported in the status register",
			},
			[]string{"engine"},
		),
	}
}

// Func updates the metrics.
func (h *MetricsHook) Func(ctx sim.HookCtx) {
	engine := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		engine = named.Name()
	}

	switch ctx.Pos {
	case ringdma.HookPosBurstIssued:
		h.burstsIssued.WithLabelValues(engine).Inc()
	case ringdma.HookPosPacketWritten:
		h.packetsWritten.WithLabelValues(engine).Inc()
	case ringdma.HookPosBusError:
		h.busErrors.WithLabelValues(engine).Inc()
	case ringdma.HookPosConfigError:
		h.configErrors.WithLabelValues(engine).Inc()
	case ringdma.HookPosBackpressure:
		reason := ctx.Item.(ringdma.BlockReason)
		h.backpressure.WithLabelValues(engine, reason.String()).Inc()
	case ringdma.HookPosStateChange:
		e := ctx.Item.(ringdma.Event)
		h.stateTransition.WithLabelValues(engine, e.To.String()).Inc()
		h.state.WithLabelValues(engine).Set(float64(e.To))
	}
}
