package ringdma

import "log"

// A Stager assembles stream beats into packets and holds up to depth whole
// packets until a burst takes them. It accepts beats whether or not the
// engine is enabled.
type Stager struct {
	packetLength uint64
	beatWidth    uint64
	depth        int

	packets [][]byte
	partial []byte
}

// NewStager creates a Stager.
func NewStager(cfg Config) *Stager {
	return &Stager{
		packetLength: cfg.PacketLength,
		beatWidth:    cfg.BeatWidth,
		depth:        cfg.StagingDepth,
	}
}

// CanAcceptBeat tells if there is room for one more beat.
func (s *Stager) CanAcceptBeat() bool {
	return len(s.packets) < s.depth
}

// PushBeat appends a beat to the packet being assembled.
func (s *Stager) PushBeat(data []byte) {
	if uint64(len(data)) != s.beatWidth {
		log.Panicf("beat of %d bytes, expecting %d", len(data), s.beatWidth)
	}

	if !s.CanAcceptBeat() {
		log.Panic("staging buffer is full")
	}

	if s.partial == nil {
		s.partial = make([]byte, 0, s.packetLength)
	}

	s.partial = append(s.partial, data...)

	if uint64(len(s.partial)) == s.packetLength {
		s.packets = append(s.packets, s.partial)
		s.partial = nil
	}
}

// PacketReady tells if a whole packet is staged.
func (s *Stager) PacketReady() bool {
	return len(s.packets) > 0
}

// PopPacket removes and returns the oldest staged packet.
func (s *Stager) PopPacket() []byte {
	if len(s.packets) == 0 {
		log.Panic("no packet staged")
	}

	p := s.packets[0]
	s.packets = s.packets[1:]

	return p
}

// NumPackets returns the number of whole packets staged.
func (s *Stager) NumPackets() int {
	return len(s.packets)
}

// NumPartialBytes returns the number of bytes of the packet being assembled.
func (s *Stager) NumPartialBytes() int {
	return len(s.partial)
}
