package ringdma

import "fmt"

// A BurstRequest asks the bus issuer to write one packet.
type BurstRequest struct {
	Address uint64
	Length  uint64

	// Seq numbers the bursts issued since the engine was built.
	Seq uint64
}

func (b BurstRequest) String() string {
	return fmt.Sprintf("burst#%d@0x%x+%d", b.Seq, b.Address, b.Length)
}

// BlockReason tells why no burst was issued in a cycle.
type BlockReason int

// The reasons the request generator can wait.
const (
	NotBlocked BlockReason = iota
	BlockedDisabled
	BlockedNoPacket
	BlockedMaxOutstanding
	BlockedBusBusy
	BlockedRingFull
)

func (r BlockReason) String() string {
	switch r {
	case NotBlocked:
		return "none"
	case BlockedDisabled:
		return "disabled"
	case BlockedNoPacket:
		return "no-packet"
	case BlockedMaxOutstanding:
		return "max-outstanding"
	case BlockedBusBusy:
		return "bus-busy"
	case BlockedRingFull:
		return "ring-full"
	default:
		return fmt.Sprintf("BlockReason(%d)", int(r))
	}
}

// IsBackpressure tells if the reason is the downstream side not keeping up,
// as opposed to the engine having nothing to do.
func (r BlockReason) IsBackpressure() bool {
	switch r {
	case BlockedMaxOutstanding, BlockedBusBusy, BlockedRingFull:
		return true
	default:
		return false
	}
}

// RequestGenerator issues at most one burst per cycle.
type RequestGenerator struct {
	packetLength   uint64
	maxOutstanding int
	numIssued      uint64
}

// NewRequestGenerator creates a RequestGenerator.
func NewRequestGenerator(cfg Config) *RequestGenerator {
	return &RequestGenerator{
		packetLength:   cfg.PacketLength,
		maxOutstanding: cfg.MaxOutstanding,
	}
}

type issueConditions struct {
	issuing     bool
	packetReady bool
	busReady    bool
	pending     int
}

// decide returns the burst to issue, or the reason to wait. Conditions are
// checked from the most to the least fundamental so that the reason reported
// is the one software can act on.
func (g *RequestGenerator) decide(
	cond issueConditions,
	guard *Guard,
	ptr *PointerModel,
) (BurstRequest, BlockReason) {
	switch {
	case !cond.issuing:
		return BurstRequest{}, BlockedDisabled
	case !cond.packetReady:
		return BurstRequest{}, BlockedNoPacket
	case cond.pending >= g.maxOutstanding:
		return BurstRequest{}, BlockedMaxOutstanding
	case !guard.CanIssue(ptr, cond.pending):
		return BurstRequest{}, BlockedRingFull
	case !cond.busReady:
		return BurstRequest{}, BlockedBusBusy
	}

	burst := BurstRequest{
		Address: guard.ProjectedPointer(ptr, cond.pending),
		Length:  g.packetLength,
		Seq:     g.numIssued,
	}
	g.numIssued++

	return burst, NotBlocked
}

// NumIssued returns the number of bursts issued.
func (g *RequestGenerator) NumIssued() uint64 {
	return g.numIssued
}
