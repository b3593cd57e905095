package ringdma

import "fmt"

// Register byte offsets. All registers are 32 bits wide.
const (
	RegConfig       uint32 = 0x00
	RegStart        uint32 = 0x04
	RegEnd          uint32 = 0x08
	RegRead         uint32 = 0x0C
	RegWritten      uint32 = 0x10
	RegStatus       uint32 = 0x14
	RegIRQStatus    uint32 = 0x18
	RegIRQMask      uint32 = 0x1C
	RegErrorAddress uint32 = 0x20
)

// Config register fields.
const (
	ConfigEnable uint32 = 1 << 0
)

// Status register fields.
const (
	StatusStateMask    uint32 = 0x7
	StatusConfigError  uint32 = 1 << 3
	StatusBusError     uint32 = 1 << 4
	StatusPendingShift        = 8
	StatusPendingMask  uint32 = 0xFF << StatusPendingShift
)

// RegisterName returns a readable name for a register offset.
func RegisterName(offset uint32) string {
	switch offset {
	case RegConfig:
		return "config"
	case RegStart:
		return "buffer_start_address"
	case RegEnd:
		return "buffer_end_address"
	case RegRead:
		return "buffer_read_address"
	case RegWritten:
		return "buffer_written_address"
	case RegStatus:
		return "status"
	case RegIRQStatus:
		return "irq_status"
	case RegIRQMask:
		return "irq_mask"
	case RegErrorAddress:
		return "error_address"
	default:
		return fmt.Sprintf("reg_0x%02x", offset)
	}
}

// StatusState extracts the state from a status register value.
func StatusState(status uint32) State {
	return State(status & StatusStateMask)
}

// StatusPending extracts the number of bursts in flight from a status
// register value.
func StatusPending(status uint32) int {
	return int((status & StatusPendingMask) >> StatusPendingShift)
}

// A RegWrite is a register write from software.
type RegWrite struct {
	Offset uint32
	Value  uint32
}
