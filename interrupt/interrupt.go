// Package interrupt implements a small interrupt register block: sticky
// status bits, an enable mask, and write-one-to-clear acknowledgement.
package interrupt

import "strings"

// Source identifies one interrupt source by its bit in the status register.
type Source uint32

// The interrupt sources of the DMA engine.
const (
	SourcePacketWritten Source = 1 << iota
	SourceBusError
	SourceConfigError
)

// AllSources has all the defined source bits set.
const AllSources = uint32(SourcePacketWritten | SourceBusError | SourceConfigError)

func (s Source) String() string {
	var names []string

	if s&SourcePacketWritten != 0 {
		names = append(names, "PacketWritten")
	}

	if s&SourceBusError != 0 {
		names = append(names, "BusError")
	}

	if s&SourceConfigError != 0 {
		names = append(names, "ConfigError")
	}

	if len(names) == 0 {
		return "None"
	}

	return strings.Join(names, "|")
}

// A Block holds the interrupt status and mask. A status bit is set whenever
// its source fires, regardless of the mask. The mask only decides whether the
// interrupt line is asserted.
type Block struct {
	status uint32
	mask   uint32
}

// NewBlock creates a block with all sources masked.
func NewBlock() *Block {
	return &Block{}
}

// Raise sets the status bit of the source. It returns true if the source is
// enabled in the mask, which means the event should be delivered.
func (b *Block) Raise(src Source) bool {
	b.status |= uint32(src)

	return b.mask&uint32(src) != 0
}

// Status returns the raw sticky status.
func (b *Block) Status() uint32 {
	return b.status
}

// Mask returns the enable mask.
func (b *Block) Mask() uint32 {
	return b.mask
}

// SetMask sets the enable mask. Undefined bits are ignored.
func (b *Block) SetMask(mask uint32) {
	b.mask = mask & AllSources
}

// Clear acknowledges the status bits written as one and returns the bits that
// were actually cleared.
func (b *Block) Clear(w1c uint32) uint32 {
	cleared := b.status & w1c
	b.status &^= cleared

	return cleared
}

// Has returns true if the sticky status of the source is set.
func (b *Block) Has(src Source) bool {
	return b.status&uint32(src) != 0
}

// Pending returns the status bits that are enabled.
func (b *Block) Pending() uint32 {
	return b.status & b.mask
}

// Asserted tells if the interrupt line is high.
func (b *Block) Asserted() bool {
	return b.Pending() != 0
}

// Reset clears both the status and the mask.
func (b *Block) Reset() {
	b.status = 0
	b.mask = 0
}
