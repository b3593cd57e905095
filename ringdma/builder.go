package ringdma

import (
	"log"

	"github.com/sarchlab/ringdma/sim"
)

// A Builder can build ring buffer DMA engines.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	cfg    Config

	streamBufSize int
	ctrlBufSize   int
	memBufSize    int
	irqBufSize    int
}

// MakeBuilder creates a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		cfg:           DefaultConfig(),
		streamBufSize: 4,
		ctrlBufSize:   4,
		memBufSize:    4,
		irqBufSize:    4,
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the engine.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig replaces the whole static configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithPacketLength sets the number of bytes per burst.
func (b Builder) WithPacketLength(n uint64) Builder {
	b.cfg.PacketLength = n
	return b
}

// WithBeatWidth sets the number of bytes per stream beat.
func (b Builder) WithBeatWidth(n uint64) Builder {
	b.cfg.BeatWidth = n
	return b
}

// WithMaxOutstanding sets the maximum number of bursts in flight.
func (b Builder) WithMaxOutstanding(n int) Builder {
	b.cfg.MaxOutstanding = n
	return b
}

// WithStagingDepth sets the number of packets that can be staged.
func (b Builder) WithStagingDepth(n int) Builder {
	b.cfg.StagingDepth = n
	return b
}

// WithFullDetection sets how a full ring is detected.
func (b Builder) WithFullDetection(f FullDetection) Builder {
	b.cfg.FullDetection = f
	return b
}

// WithBusErrorPolicy sets what happens when a burst fails.
func (b Builder) WithBusErrorPolicy(p BusErrorPolicy) Builder {
	b.cfg.BusErrorPolicy = p
	return b
}

// WithReadPointerSyncStages sets the latency of read pointer updates.
func (b Builder) WithReadPointerSyncStages(n int) Builder {
	b.cfg.ReadPointerSyncStages = n
	return b
}

// WithWrittenPointerSyncStages sets the latency of the written pointer
// register.
func (b Builder) WithWrittenPointerSyncStages(n int) Builder {
	b.cfg.WrittenPointerSyncStages = n
	return b
}

// WithStreamBufSize sets the number of beats the stream port can hold.
func (b Builder) WithStreamBufSize(n int) Builder {
	b.streamBufSize = n
	return b
}

// WithCtrlBufSize sets the number of register accesses the control port can
// hold.
func (b Builder) WithCtrlBufSize(n int) Builder {
	b.ctrlBufSize = n
	return b
}

// WithMemBufSize sets the buffer size of the memory port.
func (b Builder) WithMemBufSize(n int) Builder {
	b.memBufSize = n
	return b
}

// Build creates a new engine.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if err := b.cfg.Validate(); err != nil {
		log.Panic(err)
	}

	c := &Comp{
		maxQueuedRsps: b.ctrlBufSize,
		maxQueuedIRQs: b.irqBufSize,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.core = NewCore(name, b.cfg)
	c.stager = NewStager(b.cfg)

	memInBuf := max(b.memBufSize, b.cfg.MaxOutstanding)

	c.streamPort = sim.NewPort(c, b.streamBufSize, 1, name+".StreamPort")
	c.memPort = sim.NewPort(c, memInBuf, b.memBufSize, name+".MemPort")
	c.ctrlPort = sim.NewPort(c, b.ctrlBufSize, b.ctrlBufSize, name+".CtrlPort")
	c.irqPort = sim.NewPort(c, 1, b.irqBufSize, name+".IRQPort")

	c.AddPort("Stream", c.streamPort)
	c.AddPort("Mem", c.memPort)
	c.AddPort("Ctrl", c.ctrlPort)
	c.AddPort("IRQ", c.irqPort)

	return c
}
