package cdc

import (
	"fmt"

	"github.com/sarchlab/ringdma/pipelining"
	"github.com/sarchlab/ringdma/sim"
)

type syncItem struct {
	id    string
	value uint64
}

func (i syncItem) TaskID() string {
	return i.id
}

// PointerSync transfers whole pointer values with a request/acknowledge
// handshake. Only one value is in flight at a time. Values written while the
// handshake is busy are coalesced, so the destination always converges to the
// last written value. A value written into an idle synchronizer becomes
// visible after exactly numStage ticks, and any value within 2*numStage ticks.
type PointerSync struct {
	pipeline  pipelining.Pipeline
	arrived   sim.Buffer
	delivered []uint64

	pending    uint64
	hasPending bool
	inFlight   bool
	numSent    uint64
}

// NewPointerSync creates a PointerSync.
func NewPointerSync(name string, numStage int) *PointerSync {
	s := &PointerSync{
		arrived: sim.NewBuffer(name+".Arrived", 1),
	}

	s.pipeline = pipelining.MakeBuilder().
		WithNumStage(numStage).
		WithCyclePerStage(1).
		WithPostPipelineBuffer(s.arrived).
		Build(name + ".Stages")

	return s
}

// Write records a new value in the source domain.
func (s *PointerSync) Write(v uint64) {
	s.pending = v
	s.hasPending = true
}

// Tick advances the synchronizer by one destination-domain cycle.
func (s *PointerSync) Tick() (madeProgress bool) {
	if s.hasPending && !s.inFlight && s.pipeline.CanAccept() {
		s.pipeline.Accept(syncItem{
			id:    fmt.Sprintf("ptr_sync_%d", s.numSent),
			value: s.pending,
		})
		s.numSent++
		s.hasPending = false
		s.inFlight = true
		madeProgress = true
	}

	madeProgress = s.pipeline.Tick() || madeProgress

	if item := s.arrived.Pop(); item != nil {
		s.delivered = append(s.delivered, item.(syncItem).value)
		s.inFlight = false
		madeProgress = true
	}

	return madeProgress
}

// Pop returns the next value that arrived in the destination domain, in the
// order they were launched.
func (s *PointerSync) Pop() (uint64, bool) {
	if len(s.delivered) == 0 {
		return 0, false
	}

	v := s.delivered[0]
	s.delivered = s.delivered[1:]

	return v, true
}

// Busy returns true if a value is waiting or crossing.
func (s *PointerSync) Busy() bool {
	return s.hasPending || s.inFlight || len(s.delivered) > 0
}

// Clear drops all the values that have not arrived.
func (s *PointerSync) Clear() {
	s.pipeline.Clear()
	s.arrived.Clear()
	s.delivered = nil
	s.hasPending = false
	s.inFlight = false
}
