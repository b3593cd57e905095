package mem

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAddressOutOfRange is returned when an access goes beyond the capacity of
// a storage.
var ErrAddressOutOfRange = errors.New("address out of range")

// A Storage keeps the data of the simulated memory.
//
// The storage is managed in units, similar to pages. No memory is allocated
// for the units that are never touched by Read or Write.
type Storage struct {
	lock     sync.RWMutex
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4*KB)
}

// NewStorageWithUnitSize creates a storage object with the specified capacity
// and unit size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// Contains checks if the range [address, address+size) is inside the storage.
func (s *Storage) Contains(address, size uint64) bool {
	return address < s.capacity && size <= s.capacity-address
}

func (s *Storage) unit(baseAddr uint64) []byte {
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return baseAddr, inUnitAddr
}

// Read returns a copy of the data in [address, address+length).
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if !s.Contains(address, length) {
		return nil, fmt.Errorf("read 0x%x+%d: %w",
			address, length, ErrAddressOutOfRange)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	res := make([]byte, length)
	offset := uint64(0)

	for offset < length {
		baseAddr, inUnitAddr := s.parseAddress(address + offset)
		n := min(s.unitSize-inUnitAddr, length-offset)

		copy(res[offset:offset+n], s.unit(baseAddr)[inUnitAddr:inUnitAddr+n])
		offset += n
	}

	return res, nil
}

// Write stores data starting at the given address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if !s.Contains(address, length) {
		return fmt.Errorf("write 0x%x+%d: %w",
			address, length, ErrAddressOutOfRange)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	offset := uint64(0)

	for offset < length {
		baseAddr, inUnitAddr := s.parseAddress(address + offset)
		n := min(s.unitSize-inUnitAddr, length-offset)

		copy(s.unit(baseAddr)[inUnitAddr:inUnitAddr+n], data[offset:offset+n])
		offset += n
	}

	return nil
}
