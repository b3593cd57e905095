package driver

import (
	"log"

	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
)

// A Builder can build drivers.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	region       ringdma.Region
	packetLength uint64
	consumeDelay int
	pollInterval int
	idlePolls    int
	toggleEvery  uint64
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		region:       ringdma.Region{Base: 0x1000, End: 0x2000},
		packetLength: 256,
		pollInterval: 100,
		idlePolls:    16,
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency the driver runs at.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithRegion sets the ring buffer to program.
func (b Builder) WithRegion(region ringdma.Region) Builder {
	b.region = region
	return b
}

// WithPacketLength sets the packet length of the engine.
func (b Builder) WithPacketLength(n uint64) Builder {
	b.packetLength = n
	return b
}

// WithConsumeDelay sets the number of cycles spent on each packet after
// reading it.
func (b Builder) WithConsumeDelay(cycles int) Builder {
	b.consumeDelay = cycles
	return b
}

// WithPollInterval sets the number of cycles between status polls.
func (b Builder) WithPollInterval(cycles int) Builder {
	b.pollInterval = cycles
	return b
}

// WithIdlePolls sets the number of polls without any new packet after which
// the driver disables the engine and stops. Zero means never stop.
func (b Builder) WithIdlePolls(n int) Builder {
	b.idlePolls = n
	return b
}

// WithToggleEvery makes the driver disable and re-enable the engine after
// every n consumed packets. Zero disables toggling.
func (b Builder) WithToggleEvery(n uint64) Builder {
	b.toggleEvery = n
	return b
}

// Build creates a driver.
func (b Builder) Build(name string) *Driver {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if err := b.region.Validate(b.packetLength); err != nil {
		log.Panic(err)
	}

	if b.region.Size() < 2*b.packetLength {
		log.Panic("the ring must hold at least two packets")
	}

	d := &Driver{
		region:       b.region,
		packetLength: b.packetLength,
		consumeDelay: b.consumeDelay,
		pollInterval: b.pollInterval,
		idlePolls:    b.idlePolls,
		toggleEvery:  b.toggleEvery,
	}
	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	d.ctrlPort = sim.NewPort(d, 4, 4, name+".CtrlPort")
	d.memPort = sim.NewPort(d, 4, 4, name+".MemPort")
	d.irqPort = sim.NewPort(d, 16, 1, name+".IRQPort")

	d.AddPort("Ctrl", d.ctrlPort)
	d.AddPort("Mem", d.memPort)
	d.AddPort("IRQ", d.irqPort)

	return d
}
