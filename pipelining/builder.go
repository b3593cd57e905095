package pipelining

import (
	"log"

	"github.com/sarchlab/ringdma/sim"
)

// A Builder configures the shape of a pipeline. The defaults are one lane of
// five single-cycle stages.
type Builder struct {
	width           int
	numStage        int
	cyclePerStage   int
	postPipelineBuf sim.Buffer
}

// MakeBuilder creates a default builder
func MakeBuilder() Builder {
	return Builder{
		width:         1,
		numStage:      5,
		cyclePerStage: 1,
	}
}

// WithPipelineWidth sets how many items can enter per cycle.
func (b Builder) WithPipelineWidth(n int) Builder {
	b.width = n
	return b
}

// WithNumStage sets the number of pipeline stages. Zero stages make the
// pipeline a pass-through to the post-pipeline buffer.
func (b Builder) WithNumStage(n int) Builder {
	b.numStage = n
	return b
}

// WithCyclePerStage sets how long an item stays in each stage.
func (b Builder) WithCyclePerStage(n int) Builder {
	b.cyclePerStage = n
	return b
}

// WithPostPipelineBuffer sets where items go when they leave the last stage.
func (b Builder) WithPostPipelineBuffer(buf sim.Buffer) Builder {
	b.postPipelineBuf = buf
	return b
}

// Build creates the pipeline. It panics without a post-pipeline buffer or
// with a shape that cannot hold an item.
func (b Builder) Build(name string) Pipeline {
	sim.NameMustBeValid(name)

	if b.postPipelineBuf == nil {
		log.Panic("post pipeline buffer is not set")
	}

	if b.width < 1 || b.numStage < 0 || b.cyclePerStage < 1 {
		log.Panicf("invalid pipeline shape: width %d, %d stages, %d cycles",
			b.width, b.numStage, b.cyclePerStage)
	}

	p := &pipelineImpl{
		name:          name,
		numStage:      b.numStage,
		cyclePerStage: b.cyclePerStage,
		out:           b.postPipelineBuf,
		lanes:         make([][]slot, b.width),
	}

	for lane := range p.lanes {
		p.lanes[lane] = make([]slot, b.numStage)
	}

	return p
}
