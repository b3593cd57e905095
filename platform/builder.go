package platform

import (
	"log"

	"github.com/sarchlab/ringdma/driver"
	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/mem/idealmemcontroller"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/simulation"
	"github.com/sarchlab/ringdma/stream"
	"github.com/sarchlab/ringdma/tracing"
)

// Builder can build platforms.
type Builder struct {
	engine     sim.Engine
	simulation *simulation.Simulation
	freq       sim.Freq

	dmaConfig  ringdma.Config
	region     ringdma.Region
	numPackets uint64
	gap        int

	memLatency      int
	errorRanges     []idealmemcontroller.ErrorRange
	transientErrors bool

	consumeDelay int
	pollInterval int
	idlePolls    int
	toggleEvery  uint64

	dmaHooks []sim.Hook
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		dmaConfig:    ringdma.DefaultConfig(),
		region:       ringdma.Region{Base: 0x1000, End: 0x2000},
		numPackets:   64,
		memLatency:   20,
		pollInterval: 100,
		idlePolls:    16,
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSimulation builds the platform on the engine of a simulation and
// registers all the components with it.
func (b Builder) WithSimulation(s *simulation.Simulation) Builder {
	b.simulation = s
	b.engine = s.GetEngine()

	return b
}

// WithFreq sets the frequency of all the components.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithDMAConfig sets the static configuration of the engine.
func (b Builder) WithDMAConfig(cfg ringdma.Config) Builder {
	b.dmaConfig = cfg
	return b
}

// WithRegion sets the ring buffer the driver programs.
func (b Builder) WithRegion(region ringdma.Region) Builder {
	b.region = region
	return b
}

// WithNumPackets sets the number of packets produced.
func (b Builder) WithNumPackets(n uint64) Builder {
	b.numPackets = n
	return b
}

// WithProducerGap sets the idle cycles between produced packets.
func (b Builder) WithProducerGap(cycles int) Builder {
	b.gap = cycles
	return b
}

// WithMemoryLatency sets the latency of the memory in cycles.
func (b Builder) WithMemoryLatency(cycles int) Builder {
	b.memLatency = cycles
	return b
}

// WithErrorRange makes the memory fail the accesses to a range.
func (b Builder) WithErrorRange(r idealmemcontroller.ErrorRange) Builder {
	b.errorRanges = append(append(
		[]idealmemcontroller.ErrorRange(nil), b.errorRanges...), r)

	return b
}

// WithTransientErrors removes the error ranges after the first bus error.
func (b Builder) WithTransientErrors() Builder {
	b.transientErrors = true
	return b
}

// WithConsumeDelay sets the cycles the driver spends on each packet.
func (b Builder) WithConsumeDelay(cycles int) Builder {
	b.consumeDelay = cycles
	return b
}

// WithPollInterval sets the cycles between the driver status polls.
func (b Builder) WithPollInterval(cycles int) Builder {
	b.pollInterval = cycles
	return b
}

// WithIdlePolls sets the number of idle polls before the driver stops.
func (b Builder) WithIdlePolls(n int) Builder {
	b.idlePolls = n
	return b
}

// WithToggleEvery makes the driver disable and re-enable the engine every n
// packets.
func (b Builder) WithToggleEvery(n uint64) Builder {
	b.toggleEvery = n
	return b
}

// WithDMAHook attaches a hook to the engine.
func (b Builder) WithDMAHook(h sim.Hook) Builder {
	b.dmaHooks = append(append([]sim.Hook(nil), b.dmaHooks...), h)
	return b
}

// Build creates the platform.
func (b Builder) Build() *Platform {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	p := &Platform{Engine: b.engine}

	b.buildComponents(p)
	b.connect(p)
	b.attachHooks(p)

	if b.simulation != nil {
		b.simulation.RegisterComponent(p.Producer)
		b.simulation.RegisterComponent(p.DMA)
		b.simulation.RegisterComponent(p.Memory)
		b.simulation.RegisterComponent(p.Driver)
	}

	return p
}

func (b Builder) buildComponents(p *Platform) {
	cfg := b.dmaConfig

	p.Producer = stream.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithPacketLength(cfg.PacketLength).
		WithBeatWidth(cfg.BeatWidth).
		WithNumPackets(b.numPackets).
		WithGap(b.gap).
		Build("Producer")

	p.DMA = ringdma.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithConfig(cfg).
		Build("DMA")

	memBuilder := idealmemcontroller.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithLatency(b.memLatency).
		WithNewStorage(b.storageSize())
	for _, r := range b.errorRanges {
		memBuilder = memBuilder.WithErrorRange(r)
	}

	p.Memory = memBuilder.Build("Memory")

	p.Driver = driver.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithRegion(b.region).
		WithPacketLength(cfg.PacketLength).
		WithConsumeDelay(b.consumeDelay).
		WithPollInterval(b.pollInterval).
		WithIdlePolls(b.idlePolls).
		WithToggleEvery(b.toggleEvery).
		Build("Driver")
}

// storageSize rounds the end of the ring up to a whole megabyte.
func (b Builder) storageSize() uint64 {
	return (b.region.End + mem.MB - 1) / mem.MB * mem.MB
}

func (b Builder) connect(p *Platform) {
	p.StreamConn = sim.NewDirectConnection("StreamConn", b.engine, b.freq)
	p.StreamConn.PlugIn(p.Producer.Port())
	p.StreamConn.PlugIn(p.DMA.StreamPort())
	p.Producer.SetDst(p.DMA.StreamPort().AsRemote())

	p.BusConn = sim.NewDirectConnection("BusConn", b.engine, b.freq)
	p.BusConn.PlugIn(p.DMA.MemPort())
	p.BusConn.PlugIn(p.Driver.MemPort())
	p.BusConn.PlugIn(p.Memory.TopPort())
	p.DMA.SetAddressToPortMapper(&mem.SinglePortMapper{
		Port: p.Memory.TopPort().AsRemote(),
	})
	p.Driver.SetMemory(p.Memory.TopPort().AsRemote())

	p.CtrlConn = sim.NewDirectConnection("CtrlConn", b.engine, b.freq)
	p.CtrlConn.PlugIn(p.Driver.CtrlPort())
	p.CtrlConn.PlugIn(p.Driver.IRQPort())
	p.CtrlConn.PlugIn(p.DMA.CtrlPort())
	p.CtrlConn.PlugIn(p.DMA.IRQPort())
	p.Driver.SetEngine(p.DMA.CtrlPort().AsRemote())
	p.DMA.SetInterruptDst(p.Driver.IRQPort().AsRemote())
}

func (b Builder) attachHooks(p *Platform) {
	p.burstLatency = tracing.NewAverageTimeTracer(b.engine,
		func(t tracing.Task) bool { return t.Kind == tracing.KindReqOut })
	tracing.CollectTrace(p.DMA, p.burstLatency)

	for _, h := range b.dmaHooks {
		p.DMA.AcceptHook(h)
	}

	if b.transientErrors {
		p.DMA.AcceptHook(sim.HookAt(ringdma.HookPosBusError,
			func(sim.HookCtx) { p.Memory.ClearErrorRanges() }))
	}
}

