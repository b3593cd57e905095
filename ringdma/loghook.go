package ringdma

import (
	"fmt"

	"github.com/sarchlab/ringdma/sim"
	"go.uber.org/zap"
)

// LogHook writes engine events to a zap logger. Backpressure is not logged
// since it can fire every cycle.
type LogHook struct {
	logger *zap.Logger
}

// NewLogHook creates a LogHook.
func NewLogHook(logger *zap.Logger) *LogHook {
	return &LogHook{logger: logger}
}

func hexAddr(key string, addr uint64) zap.Field {
	return zap.String(key, fmt.Sprintf("0x%x", addr))
}

// Func logs the event of the hook context.
func (h *LogHook) Func(ctx sim.HookCtx) {
	fields := make([]zap.Field, 0, 6)

	if named, ok := ctx.Domain.(sim.Named); ok {
		fields = append(fields, zap.String("engine", named.Name()))
	}

	if tt, ok := ctx.Domain.(sim.TimeTeller); ok {
		fields = append(fields, zap.Float64("time", float64(tt.CurrentTime())))
	}

	switch ctx.Pos {
	case HookPosBurstIssued:
		b := ctx.Item.(BurstRequest)
		h.logger.Debug("burst issued", append(fields,
			zap.Uint64("seq", b.Seq),
			hexAddr("address", b.Address),
			zap.Uint64("length", b.Length))...)
	case HookPosPacketWritten:
		e := ctx.Item.(Event)
		h.logger.Debug("packet written",
			append(fields, hexAddr("address", e.Address))...)
	case HookPosBusError:
		e := ctx.Item.(Event)
		h.logger.Warn("bus error",
			append(fields, hexAddr("address", e.Address))...)
	case HookPosConfigError:
		e := ctx.Item.(Event)
		h.logger.Warn("configuration error",
			append(fields, zap.Error(e.Err))...)
	case HookPosStateChange:
		e := ctx.Item.(Event)
		h.logger.Info("state change", append(fields,
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To))...)
	}
}
