package ringdma

import "fmt"

// PointerModel owns the write pointer and a copy of the software read
// pointer. It is only active between enabling the engine and the end of the
// drain that follows disabling.
type PointerModel struct {
	region       Region
	packetLength uint64
	written      uint64
	read         uint64
	active       bool
}

// NewPointerModel creates a pointer model with both pointers at the base.
func NewPointerModel(region Region, packetLength uint64) *PointerModel {
	return &PointerModel{
		region:       region,
		packetLength: packetLength,
		written:      region.Base,
		read:         region.Base,
	}
}

// Region returns the buffer region.
func (p *PointerModel) Region() Region {
	return p.region
}

// CurrentWriteAddress returns the address where the next packet will land.
func (p *PointerModel) CurrentWriteAddress() uint64 {
	return p.written
}

// CurrentReadAddress returns the last read pointer the engine observed.
func (p *PointerModel) CurrentReadAddress() uint64 {
	return p.read
}

// Active tells if the model accepts write pointer updates.
func (p *PointerModel) Active() bool {
	return p.active
}

// AdvanceWritePointer moves the write pointer forward by one packet, wrapping
// at the end of the region. It returns false and does nothing if the model is
// not active.
func (p *PointerModel) AdvanceWritePointer() bool {
	if !p.active {
		return false
	}

	p.written = p.region.Advance(p.written, p.packetLength)

	return true
}

// SetReadPointer records a new read pointer. Values outside the region are
// rejected and leave the pointer unchanged.
func (p *PointerModel) SetReadPointer(addr uint64) error {
	if !p.region.Contains(addr) {
		return fmt.Errorf("read pointer 0x%x, buffer %s: %w",
			addr, p.region, ErrReadPointerOutOfRange)
	}

	p.read = addr

	return nil
}

// Reconfigure changes the region and moves both pointers to its base.
func (p *PointerModel) Reconfigure(region Region) {
	p.region = region
	p.written = region.Base
	p.read = region.Base
}

func (p *PointerModel) activate() {
	p.active = true
}

func (p *PointerModel) deactivate() {
	p.active = false
}
