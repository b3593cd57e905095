package ringdma

import "fmt"

// A Region is the circular buffer [Base, End) in external memory.
type Region struct {
	Base uint64
	End  uint64
}

// Size returns the number of bytes in the region.
func (r Region) Size() uint64 {
	return r.End - r.Base
}

// Contains checks if an address is inside the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End
}

// Validate checks that the region can hold packets of the given length.
func (r Region) Validate(packetLength uint64) error {
	if r.Base%packetLength != 0 {
		return fmt.Errorf("start 0x%x: %w", r.Base, ErrMisalignedStart)
	}

	if r.End%packetLength != 0 {
		return fmt.Errorf("end 0x%x: %w", r.End, ErrMisalignedEnd)
	}

	if r.End <= r.Base {
		return fmt.Errorf("start 0x%x, end 0x%x: %w",
			r.Base, r.End, ErrEmptyRegion)
	}

	if !isPowerOfTwo(r.Size()) {
		return fmt.Errorf("size 0x%x: %w", r.Size(), ErrRegionNotPowerOfTwo)
	}

	return nil
}

// Advance moves an address forward by n bytes, wrapping at End.
func (r Region) Advance(addr, n uint64) uint64 {
	if r.Size() == 0 {
		return addr
	}

	return r.Base + (addr-r.Base+n)%r.Size()
}

// Distance returns the number of bytes from one address forward to another.
func (r Region) Distance(from, to uint64) uint64 {
	if r.Size() == 0 {
		return 0
	}

	return (to - from + r.Size()) % r.Size()
}

// Slot returns the packet index of an address.
func (r Region) Slot(addr, packetLength uint64) uint64 {
	return (addr - r.Base) / packetLength
}

func (r Region) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Base, r.End)
}
