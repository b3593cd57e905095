package ringdma

import "fmt"

// State is the engine-level state, reported in status bits [2:0].
type State uint32

// The engine states.
const (
	StateDisabled State = iota
	StateArmed
	StateStreaming
	StateDraining
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateArmed:
		return "Armed"
	case StateStreaming:
		return "Streaming"
	case StateDraining:
		return "Draining"
	case StateFaulted:
		return "Faulted"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// issuing tells if new bursts may be issued in the state.
func (s State) issuing() bool {
	return s == StateArmed || s == StateStreaming
}

// EventKind identifies what an Event reports.
type EventKind int

// The event kinds.
const (
	EventPacketWritten EventKind = iota
	EventBusError
	EventConfigError
	EventStateChange
)

func (k EventKind) String() string {
	switch k {
	case EventPacketWritten:
		return "PacketWritten"
	case EventBusError:
		return "BusError"
	case EventConfigError:
		return "ConfigError"
	case EventStateChange:
		return "StateChange"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// An Event is something software may want to know about.
type Event struct {
	Kind EventKind

	// Address is the packet address for packet and bus error events.
	Address uint64

	// Err is set for config error events.
	Err error

	// From and To are set for state change events.
	From, To State

	// Interrupt is true if the event source is unmasked and an interrupt
	// should be delivered.
	Interrupt bool
}
