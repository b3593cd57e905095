package ringdma

import "errors"

// Errors reported for invalid configurations and register accesses.
var (
	ErrMisalignedStart       = errors.New("buffer start address is not packet aligned")
	ErrMisalignedEnd         = errors.New("buffer end address is not packet aligned")
	ErrEmptyRegion           = errors.New("buffer end address must be above the start address")
	ErrRegionNotPowerOfTwo   = errors.New("buffer size is not a power of two")
	ErrReadPointerOutOfRange = errors.New("read pointer is outside the buffer")
	ErrRegisterLocked        = errors.New("register cannot be written while the engine is active")
	ErrUnknownRegister       = errors.New("unknown register")
	ErrReadOnlyRegister      = errors.New("register is read-only")
	ErrInvalidConfig         = errors.New("invalid engine configuration")
)

// IsConfigError tells if the error is a configuration error, which raises the
// sticky config error status.
func IsConfigError(err error) bool {
	for _, target := range []error{
		ErrMisalignedStart,
		ErrMisalignedEnd,
		ErrEmptyRegion,
		ErrRegionNotPowerOfTwo,
		ErrReadPointerOutOfRange,
		ErrRegisterLocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
