package idealmemcontroller

import (
	"log"

	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/pipelining"
	"github.com/sarchlab/ringdma/sim"
)

// A Builder can build ideal memory controllers.
type Builder struct {
	engine      sim.Engine
	freq        sim.Freq
	latency     int
	capacity    uint64
	topBufSize  int
	storage     *mem.Storage
	errorRanges []ErrorRange
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		latency:    100,
		capacity:   4 * mem.GB,
		topBufSize: 16,
	}
}

// WithEngine sets the engine of the memory controller
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the memory controller
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets the number of cycles between accepting a request and
// responding to it.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithNewStorage sets the capacity of the memory controller
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithStorage sets the storage of the memory controller
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithTopBufSize sets the size of the top buffer
func (b Builder) WithTopBufSize(topBufSize int) Builder {
	b.topBufSize = topBufSize
	return b
}

// WithErrorRange injects an address range that fails.
func (b Builder) WithErrorRange(r ErrorRange) Builder {
	b.errorRanges = append(append([]ErrorRange(nil), b.errorRanges...), r)
	return b
}

// Build builds a new Comp
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.latency < 1 {
		log.Panicf("latency must be at least 1 cycle, got %d", b.latency)
	}

	c := &Comp{
		errorRanges: append([]ErrorRange(nil), b.errorRanges...),
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	if b.storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	} else {
		c.Storage = b.storage
	}

	c.responseBuf = sim.NewBuffer(name+".ResponseBuf", b.topBufSize)
	c.pipeline = pipelining.MakeBuilder().
		WithNumStage(b.latency).
		WithCyclePerStage(1).
		WithPostPipelineBuffer(c.responseBuf).
		Build(name + ".Pipeline")

	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	return c
}
