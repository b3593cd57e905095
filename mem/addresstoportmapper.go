package mem

import "github.com/sarchlab/ringdma/sim"

// AddressToPortMapper tells a requester which memory port serves an address.
type AddressToPortMapper interface {
	Find(address uint64) sim.RemotePort
}

// SinglePortMapper sends every address to the same memory port.
type SinglePortMapper struct {
	Port sim.RemotePort
}

// Find returns the only port.
func (f *SinglePortMapper) Find(_ uint64) sim.RemotePort {
	return f.Port
}
