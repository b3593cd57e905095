package stream

import (
	"log"

	"github.com/sarchlab/ringdma/sim"
)

// A Builder can build stream producers.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	packetLength uint64
	beatWidth    uint64
	numPackets   uint64
	gap          int
	bufSize      int
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		packetLength: 256,
		beatWidth:    16,
		bufSize:      4,
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the stream clock.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithPacketLength sets the packet length in bytes.
func (b Builder) WithPacketLength(n uint64) Builder {
	b.packetLength = n
	return b
}

// WithBeatWidth sets the beat width in bytes.
func (b Builder) WithBeatWidth(n uint64) Builder {
	b.beatWidth = n
	return b
}

// WithNumPackets sets how many packets to send. Zero means no limit.
func (b Builder) WithNumPackets(n uint64) Builder {
	b.numPackets = n
	return b
}

// WithGap sets the number of idle cycles after each packet.
func (b Builder) WithGap(cycles int) Builder {
	b.gap = cycles
	return b
}

// Build creates a Producer. The producer starts once it is ticked.
func (b Builder) Build(name string) *Producer {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.beatWidth == 0 || b.packetLength%b.beatWidth != 0 {
		log.Panicf("beat width %d does not divide packet length %d",
			b.beatWidth, b.packetLength)
	}

	if b.packetLength < SeqBytes {
		log.Panicf("packet length %d is too short", b.packetLength)
	}

	p := &Producer{
		packetLength: b.packetLength,
		beatWidth:    b.beatWidth,
		numPackets:   b.numPackets,
		gap:          b.gap,
	}
	p.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, p)
	p.port = sim.NewPort(p, 1, b.bufSize, name+".Port")
	p.AddPort("Port", p.port)

	return p
}
