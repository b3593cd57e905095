package ringdma

import (
	"log"

	"github.com/sarchlab/ringdma/mem"
)

type completionOutcome struct {
	address  uint64
	status   mem.Status
	advanced bool
	halted   bool
}

// CompletionTracker follows the bursts in flight. Responses arrive in issue
// order, so the oldest burst is always the one completing.
type CompletionTracker struct {
	policy   BusErrorPolicy
	inflight []uint64
	halted   bool

	numCompleted, numErrors uint64
}

// NewCompletionTracker creates a CompletionTracker.
func NewCompletionTracker(cfg Config) *CompletionTracker {
	return &CompletionTracker{
		policy: cfg.BusErrorPolicy,
	}
}

// Pending returns the number of bursts in flight.
func (t *CompletionTracker) Pending() int {
	return len(t.inflight)
}

// Halted tells if a failure stopped the engine under HaltOnError.
func (t *CompletionTracker) Halted() bool {
	return t.halted
}

func (t *CompletionTracker) onIssue(address uint64) {
	t.inflight = append(t.inflight, address)
}

// complete retires the oldest burst. Once halted, the remaining bursts are
// retired without moving the write pointer.
func (t *CompletionTracker) complete(
	status mem.Status,
	ptr *PointerModel,
) completionOutcome {
	if len(t.inflight) == 0 {
		log.Panic("completion without any burst in flight")
	}

	out := completionOutcome{
		address: t.inflight[0],
		status:  status,
	}
	t.inflight = t.inflight[1:]
	t.numCompleted++

	if status.IsError() {
		t.numErrors++

		if t.policy == HaltOnError {
			t.halted = true
		}
	}

	out.halted = t.halted
	if !t.halted {
		out.advanced = ptr.AdvanceWritePointer()
	}

	return out
}

// resume clears the halt after software restarts the engine.
func (t *CompletionTracker) resume() {
	t.halted = false
}

// NumCompleted returns the number of bursts that completed.
func (t *CompletionTracker) NumCompleted() uint64 {
	return t.numCompleted
}

// NumErrors returns the number of bursts that completed with an error.
func (t *CompletionTracker) NumErrors() uint64 {
	return t.numErrors
}
