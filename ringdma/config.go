package ringdma

import "fmt"

// FullDetection selects how the engine tells a full ring from an empty one.
type FullDetection int

const (
	// ReserveOnePacket keeps one packet slot free so that equal pointers
	// always mean empty. At most size/PL-1 packets can be unread.
	ReserveOnePacket FullDetection = iota

	// TrackOccupancy keeps a count of unread bytes, updated from read pointer
	// movements, so that all size/PL slots can be filled. When the ring is
	// full and nothing is in flight, writing the current read pointer again
	// reports a whole lap consumed and frees the entire ring.
	TrackOccupancy
)

func (f FullDetection) String() string {
	switch f {
	case ReserveOnePacket:
		return "reserve-one-packet"
	case TrackOccupancy:
		return "track-occupancy"
	default:
		return fmt.Sprintf("FullDetection(%d)", int(f))
	}
}

// ParseFullDetection parses the names printed by String.
func ParseFullDetection(s string) (FullDetection, error) {
	switch s {
	case "reserve-one-packet":
		return ReserveOnePacket, nil
	case "track-occupancy":
		return TrackOccupancy, nil
	default:
		return 0, fmt.Errorf("%w: unknown full detection %q",
			ErrInvalidConfig, s)
	}
}

// BusErrorPolicy selects what happens when a burst completes with an error.
type BusErrorPolicy int

const (
	// AdvanceOnError counts the failed packet as written, advances the write
	// pointer and flags the failure in the sticky bus error status.
	AdvanceOnError BusErrorPolicy = iota

	// HaltOnError keeps the write pointer on the failed packet, stops issuing
	// and waits for software to disable and re-enable the engine.
	HaltOnError
)

func (p BusErrorPolicy) String() string {
	switch p {
	case AdvanceOnError:
		return "advance"
	case HaltOnError:
		return "halt"
	default:
		return fmt.Sprintf("BusErrorPolicy(%d)", int(p))
	}
}

// ParseBusErrorPolicy parses the names printed by String.
func ParseBusErrorPolicy(s string) (BusErrorPolicy, error) {
	switch s {
	case "advance":
		return AdvanceOnError, nil
	case "halt":
		return HaltOnError, nil
	default:
		return 0, fmt.Errorf("%w: unknown bus error policy %q",
			ErrInvalidConfig, s)
	}
}

// Config is the static configuration of an engine. It does not change after
// the engine is built.
type Config struct {
	// PacketLength is the number of bytes moved by one burst.
	PacketLength uint64

	// BeatWidth is the number of bytes carried by one stream beat.
	BeatWidth uint64

	// MaxOutstanding bounds the number of bursts in flight.
	MaxOutstanding int

	// StagingDepth is the number of assembled packets that can wait for a
	// burst.
	StagingDepth int

	FullDetection  FullDetection
	BusErrorPolicy BusErrorPolicy

	// ReadPointerSyncStages is the number of cycles needed by a software read
	// pointer update to reach the engine.
	ReadPointerSyncStages int

	// WrittenPointerSyncStages is the number of cycles needed by the write
	// pointer to be visible in the register interface.
	WrittenPointerSyncStages int
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		PacketLength:   256,
		BeatWidth:      16,
		MaxOutstanding: 4,
		StagingDepth:   2,
	}
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Validate checks the static configuration.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.PacketLength) {
		return fmt.Errorf("%w: packet length %d is not a power of two",
			ErrInvalidConfig, c.PacketLength)
	}

	if c.BeatWidth == 0 || c.PacketLength%c.BeatWidth != 0 {
		return fmt.Errorf("%w: beat width %d does not divide packet length %d",
			ErrInvalidConfig, c.BeatWidth, c.PacketLength)
	}

	if c.MaxOutstanding < 1 || c.MaxOutstanding > 255 {
		return fmt.Errorf("%w: max outstanding %d not in [1, 255]",
			ErrInvalidConfig, c.MaxOutstanding)
	}

	if c.StagingDepth < 1 {
		return fmt.Errorf("%w: staging depth must be positive",
			ErrInvalidConfig)
	}

	if c.FullDetection != ReserveOnePacket && c.FullDetection != TrackOccupancy {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.FullDetection)
	}

	if c.BusErrorPolicy != AdvanceOnError && c.BusErrorPolicy != HaltOnError {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.BusErrorPolicy)
	}

	if c.ReadPointerSyncStages < 0 || c.WrittenPointerSyncStages < 0 {
		return fmt.Errorf("%w: negative synchronizer stages", ErrInvalidConfig)
	}

	return nil
}

// BeatsPerPacket returns the number of stream beats that form a packet.
func (c Config) BeatsPerPacket() int {
	return int(c.PacketLength / c.BeatWidth)
}
