// Package pipelining provides fixed-depth pipelines that delay items by a
// configurable number of cycles, e.g., the stages of a synchronizer chain or
// the access latency of a memory.
package pipelining

import (
	"log"
	"reflect"

	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/tracing"
)

// PipelineItem is an item that can pass through a pipeline.
type PipelineItem interface {
	TaskID() string
}

// A Pipeline holds items for numStage * cyclePerStage cycles and then pushes
// them into its post-pipeline buffer in order. Items that cannot leave stay
// in the last stage and block the lane behind them.
type Pipeline interface {
	tracing.NamedHookable

	Tick() (madeProgress bool)
	CanAccept() bool

	// Accept puts elem into the first free lane. It panics if CanAccept is
	// false.
	Accept(elem PipelineItem)

	// NumItems counts the items still in the stages.
	NumItems() int

	// Clear drops every item in the stages.
	Clear()
}

type slot struct {
	elem      PipelineItem
	cycleLeft int
}

type pipelineImpl struct {
	sim.HookableBase

	name          string
	numStage      int
	cyclePerStage int
	out           sim.Buffer

	// lanes[lane][stage]
	lanes [][]slot
}

func (p *pipelineImpl) Name() string {
	return p.name
}

func (p *pipelineImpl) Clear() {
	for lane := range p.lanes {
		clear(p.lanes[lane])
	}
}

func (p *pipelineImpl) Tick() (madeProgress bool) {
	for lane := range p.lanes {
		// Drain from the back so that an item moves at most one stage.
		for stage := p.numStage - 1; stage >= 0; stage-- {
			madeProgress = p.advance(lane, stage) || madeProgress
		}
	}

	return madeProgress
}

func (p *pipelineImpl) advance(lane, stage int) bool {
	s := &p.lanes[lane][stage]

	switch {
	case s.elem == nil:
		return false
	case s.cycleLeft > 0:
		s.cycleLeft--
		return true
	case stage == p.numStage-1:
		return p.leave(s)
	}

	next := &p.lanes[lane][stage+1]
	if next.elem != nil {
		return false
	}

	*next = slot{elem: s.elem, cycleLeft: p.cyclePerStage - 1}
	*s = slot{}

	return true
}

func (p *pipelineImpl) leave(s *slot) bool {
	if !p.out.CanPush() {
		return false
	}

	tracing.EndTask(pipelineTaskID(s.elem), p)
	p.out.Push(s.elem)
	*s = slot{}

	return true
}

func (p *pipelineImpl) CanAccept() bool {
	if p.numStage == 0 {
		return p.out.CanPush()
	}

	return p.freeLane() >= 0
}

func (p *pipelineImpl) freeLane() int {
	for lane := range p.lanes {
		if p.lanes[lane][0].elem == nil {
			return lane
		}
	}

	return -1
}

func (p *pipelineImpl) Accept(elem PipelineItem) {
	if p.numStage == 0 {
		p.out.Push(elem)
		return
	}

	lane := p.freeLane()
	if lane < 0 {
		log.Panicf("pipeline %s is full, check CanAccept first", p.name)
	}

	p.lanes[lane][0] = slot{elem: elem, cycleLeft: p.cyclePerStage - 1}

	tracing.StartTask(pipelineTaskID(elem), elem.TaskID(), p,
		"pipeline", reflect.TypeOf(elem).String(), nil)
}

func pipelineTaskID(elem PipelineItem) string {
	return elem.TaskID() + "_pipeline"
}

func (p *pipelineImpl) NumItems() int {
	n := 0

	for _, lane := range p.lanes {
		for _, s := range lane {
			if s.elem != nil {
				n++
			}
		}
	}

	return n
}
