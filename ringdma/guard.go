package ringdma

// Guard decides whether a new burst fits in the ring. It looks at the
// projected write pointer, which counts the bursts in flight as already
// written, so the engine never issues into unread data.
type Guard struct {
	policy         FullDetection
	packetLength   uint64
	maxOutstanding int

	// occupancy is the number of unread bytes, including bursts in flight.
	// It is only maintained under TrackOccupancy.
	occupancy uint64
}

// NewGuard creates a Guard.
func NewGuard(cfg Config) *Guard {
	return &Guard{
		policy:         cfg.FullDetection,
		packetLength:   cfg.PacketLength,
		maxOutstanding: cfg.MaxOutstanding,
	}
}

// ProjectedPointer returns where the write pointer will be once all the
// bursts in flight complete.
func (g *Guard) ProjectedPointer(p *PointerModel, pending int) uint64 {
	return p.Region().Advance(
		p.CurrentWriteAddress(), uint64(pending)*g.packetLength)
}

// FreeSpace returns the number of bytes that can be written without touching
// unread data.
func (g *Guard) FreeSpace(p *PointerModel, pending int) uint64 {
	size := p.Region().Size()

	if g.policy == TrackOccupancy {
		if g.occupancy >= size {
			return 0
		}

		return size - g.occupancy
	}

	used := p.Region().Distance(
		p.CurrentReadAddress(), g.ProjectedPointer(p, pending))
	if used+g.packetLength >= size {
		return 0
	}

	return size - used - g.packetLength
}

// CanIssue tells if one more burst is allowed.
func (g *Guard) CanIssue(p *PointerModel, pending int) bool {
	if pending >= g.maxOutstanding {
		return false
	}

	return g.FreeSpace(p, pending) >= g.packetLength
}

// Occupancy returns the tracked number of unread bytes.
func (g *Guard) Occupancy() uint64 {
	return g.occupancy
}

// OnIssue accounts for a burst that was just issued.
func (g *Guard) OnIssue() {
	if g.policy == TrackOccupancy {
		g.occupancy += g.packetLength
	}
}

// OnDiscard gives back the space of a burst that completed without moving
// the write pointer.
func (g *Guard) OnDiscard() {
	if g.policy == TrackOccupancy {
		g.occupancy -= min(g.occupancy, g.packetLength)
	}
}

// OnReadPointerMoved releases the bytes that software consumed. A move of
// zero bytes changes nothing.
func (g *Guard) OnReadPointerMoved(region Region, from, to uint64) {
	if g.policy != TrackOccupancy {
		return
	}

	delta := region.Distance(from, to)
	g.occupancy -= min(g.occupancy, delta)
}

// ResetOccupancy sets the number of unread bytes, e.g., after the region is
// reconfigured.
func (g *Guard) ResetOccupancy(occupancy uint64) {
	g.occupancy = occupancy
}
