// Package platform assembles a complete ring buffer DMA system: a stream
// producer feeding the engine, an ideal memory holding the ring, and a driver
// consuming it.
package platform

import (
	"github.com/sarchlab/ringdma/driver"
	"github.com/sarchlab/ringdma/mem/idealmemcontroller"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/stream"
	"github.com/sarchlab/ringdma/tracing"
)

// Platform is a system built by the Builder.
type Platform struct {
	Engine   sim.Engine
	Producer *stream.Producer
	DMA      *ringdma.Comp
	Memory   *idealmemcontroller.Comp
	Driver   *driver.Driver

	StreamConn *sim.DirectConnection
	BusConn    *sim.DirectConnection
	CtrlConn   *sim.DirectConnection

	burstLatency *tracing.AverageTimeTracer
}

// Summary is what a run produced.
type Summary struct {
	Time   sim.VTimeInSec
	Events uint64

	PacketsSent      uint64
	ProducerStalls   uint64
	BurstsIssued     uint64
	BurstsCompleted  uint64
	BusErrors        uint64
	MemoryWrites     uint64
	MemoryReads      uint64
	AvgBurstLatency  sim.VTimeInSec
	MaxBurstLatency  sim.VTimeInSec
	FinalState       ringdma.State
	FinalWritePtr    uint64
	FinalReadPtr     uint64
	Driver           driver.Stats
	DriverErrorCount int
}

// Run starts the driver and the producer and runs the simulation until no
// event is left.
func (p *Platform) Run() error {
	p.Driver.Start()
	p.Producer.TickLater()

	return p.Engine.Run()
}

// Summary collects the counters of all the components.
func (p *Platform) Summary() Summary {
	core := p.DMA.Core()

	var events uint64
	if counter, ok := p.Engine.(sim.EventCounter); ok {
		events = counter.NumEventsHandled()
	}

	return Summary{
		Time:             p.Engine.CurrentTime(),
		Events:           events,
		PacketsSent:      p.Producer.NumPacketsSent(),
		ProducerStalls:   p.Producer.NumStalls(),
		BurstsIssued:     core.NumIssued(),
		BurstsCompleted:  core.NumCompleted(),
		BusErrors:        core.NumBusErrors(),
		MemoryWrites:     p.Memory.NumWrites(),
		MemoryReads:      p.Memory.NumReads(),
		AvgBurstLatency:  p.burstLatency.AverageTime(),
		MaxBurstLatency:  p.burstLatency.MaxTime(),
		FinalState:       core.State(),
		FinalWritePtr:    core.WriteAddress(),
		FinalReadPtr:     p.Driver.ReadAddress(),
		Driver:           p.Driver.Stats(),
		DriverErrorCount: len(p.Driver.Errors()),
	}
}
