// Package mem defines the memory protocol used between the DMA engine, the
// software agent and the memory controllers, together with the storage model
// that holds the ring contents.
package mem

// For capacity
const (
	_        = iota
	KB uint64 = 1 << (10 * iota)
	MB
	GB
	TB
)
