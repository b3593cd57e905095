package stream

import (
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
)

// HookPosPacketSent marks that the last beat of a packet left the producer.
// The item is the sequence number.
var HookPosPacketSent = &sim.HookPos{Name: "Stream Packet Sent"}

// Producer sends packets as a stream of beats. A port that refuses a beat
// stalls the stream, which is how the engine applies backpressure.
type Producer struct {
	*sim.TickingComponent

	port sim.Port
	dst  sim.RemotePort

	packetLength uint64
	beatWidth    uint64
	numPackets   uint64
	gap          int

	seq       uint64
	current   []byte
	offset    uint64
	gapLeft   int
	numStalls uint64
}

// Port returns the port that sends beats.
func (p *Producer) Port() sim.Port {
	return p.port
}

// SetDst sets the port that receives the beats.
func (p *Producer) SetDst(dst sim.RemotePort) {
	p.dst = dst
}

// NumPacketsSent returns the number of whole packets sent.
func (p *Producer) NumPacketsSent() uint64 {
	return p.seq
}

// NumStalls returns the number of cycles a beat was ready but refused.
func (p *Producer) NumStalls() uint64 {
	return p.numStalls
}

// Done tells if all the packets have been sent.
func (p *Producer) Done() bool {
	return p.numPackets > 0 && p.seq >= p.numPackets
}

// Tick sends at most one beat.
func (p *Producer) Tick() bool {
	if p.Done() {
		return false
	}

	if p.gapLeft > 0 {
		p.gapLeft--
		return true
	}

	if p.current == nil {
		p.current = Payload(p.seq, p.packetLength)
		p.offset = 0
	}

	beat := ringdma.BeatMsgBuilder{}.
		WithSrc(p.port.AsRemote()).
		WithDst(p.dst).
		WithData(p.current[p.offset : p.offset+p.beatWidth]).
		Build()

	if err := p.port.Send(beat); err != nil {
		p.numStalls++
		return false
	}

	p.offset += p.beatWidth
	if p.offset == p.packetLength {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosPacketSent,
			Item:   p.seq,
		})

		p.seq++
		p.current = nil
		p.gapLeft = p.gap
	}

	return true
}
