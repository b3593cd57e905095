// Package driver provides the software side of a ring buffer DMA engine. The
// driver programs the registers, follows the interrupts, reads the packets
// back from memory and hands the space back by moving the read pointer.
package driver

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/ringdma"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/stream"
)

// Hook positions of the driver. Consumed packets carry the sequence number,
// and errors carry the error.
var (
	HookPosPacketConsumed = &sim.HookPos{Name: "Driver Packet Consumed"}
	HookPosDriverError    = &sim.HookPos{Name: "Driver Error"}
	HookPosRecovery       = &sim.HookPos{Name: "Driver Recovery"}
)

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseRecovering
	phaseStopping
	phaseDone
)

type ctrlOp struct {
	offset uint32
	value  uint32
	write  bool
	onDone func(value uint32, err error)
}

// writtenPacket is a packet the engine reported as written. A packet whose
// burst failed is skipped without reading it.
type writtenPacket struct {
	address uint64
	bad     bool
}

// Stats counts what the driver observed.
type Stats struct {
	Consumed     uint64
	Verified     uint64
	Corrupt      uint64
	Lost         uint64
	Skipped      uint64
	ReadErrors   uint64
	Interrupts   uint64
	BusErrors    uint64
	ConfigErrors uint64
	Recoveries   uint64
	Toggles      uint64
}

// Driver is a software agent that consumes the ring buffer.
type Driver struct {
	*sim.TickingComponent

	ctrlPort sim.Port
	memPort  sim.Port
	irqPort  sim.Port

	dmaCtrl sim.RemotePort
	memDst  sim.RemotePort

	region       ringdma.Region
	packetLength uint64
	consumeDelay int
	pollInterval int
	idlePolls    int
	toggleEvery  uint64

	phase     phase
	ctrlQueue []ctrlOp
	ctrlReq   sim.Msg
	ctrlOp    ctrlOp

	written    []writtenPacket
	read       uint64
	unreported int
	ackPending uint32
	expected   uint64

	memReq     *mem.ReadReq
	delayLeft  int
	consuming  bool
	pollLeft   int
	idleCount  int
	toggleLeft uint64

	stats  Stats
	errors []error
}

// CtrlPort returns the port that accesses the engine registers.
func (d *Driver) CtrlPort() sim.Port {
	return d.ctrlPort
}

// MemPort returns the port that reads the ring.
func (d *Driver) MemPort() sim.Port {
	return d.memPort
}

// IRQPort returns the port that receives interrupts.
func (d *Driver) IRQPort() sim.Port {
	return d.irqPort
}

// SetEngine sets the register port of the engine.
func (d *Driver) SetEngine(ctrl sim.RemotePort) {
	d.dmaCtrl = ctrl
}

// SetMemory sets the memory port that serves the ring.
func (d *Driver) SetMemory(dst sim.RemotePort) {
	d.memDst = dst
}

// Stats returns the counters.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Errors returns the unexpected errors reported by the engine.
func (d *Driver) Errors() []error {
	return d.errors
}

// Done tells if the driver stopped the engine and will do nothing more.
func (d *Driver) Done() bool {
	return d.phase == phaseDone
}

// ReadAddress returns the software read pointer.
func (d *Driver) ReadAddress() uint64 {
	return d.read
}

// Start programs the engine and enables it.
func (d *Driver) Start() {
	if d.phase != phaseIdle {
		log.Panic("driver already started")
	}

	d.read = d.region.Base
	d.pollLeft = d.pollInterval
	d.toggleLeft = d.toggleEvery

	d.enqueueWrite(ringdma.RegStart, uint32(d.region.Base))
	d.enqueueWrite(ringdma.RegEnd, uint32(d.region.End))
	d.enqueueWrite(ringdma.RegRead, uint32(d.region.Base))
	d.enqueueWrite(ringdma.RegIRQMask, uint32(interrupt.AllSources))
	d.enqueueWrite(ringdma.RegConfig, ringdma.ConfigEnable)

	d.phase = phaseRunning
	d.TickLater()
}

// Tick runs one cycle of the driver.
func (d *Driver) Tick() bool {
	madeProgress := false

	madeProgress = d.handleInterrupts() || madeProgress
	madeProgress = d.handleCtrlRsp() || madeProgress
	madeProgress = d.handleMemRsp() || madeProgress
	madeProgress = d.consume() || madeProgress
	madeProgress = d.readPacket() || madeProgress
	madeProgress = d.poll() || madeProgress
	madeProgress = d.sendCtrl() || madeProgress

	return madeProgress
}

func (d *Driver) reportError(err error) {
	d.errors = append(d.errors, err)
	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosDriverError,
		Item:   err,
	})
}

func (d *Driver) enqueueWrite(offset, value uint32) {
	d.ctrlQueue = append(d.ctrlQueue, ctrlOp{
		offset: offset,
		value:  value,
		write:  true,
		onDone: func(_ uint32, err error) {
			if err != nil {
				d.reportError(err)
			}
		},
	})
}

func (d *Driver) enqueueRead(offset uint32, onDone func(uint32, error)) {
	d.ctrlQueue = append(d.ctrlQueue, ctrlOp{
		offset: offset,
		onDone: onDone,
	})
}

func (d *Driver) sendCtrl() bool {
	if d.ctrlReq != nil {
		return false
	}

	if len(d.ctrlQueue) == 0 {
		d.flushDeferredWrites()
	}

	if len(d.ctrlQueue) == 0 {
		return false
	}

	op := d.ctrlQueue[0]
	b := ringdma.RegReqBuilder{}.
		WithSrc(d.ctrlPort.AsRemote()).
		WithDst(d.dmaCtrl).
		WithOffset(op.offset).
		WithValue(op.value)

	var req sim.Msg
	if op.write {
		req = b.BuildWrite()
	} else {
		req = b.BuildRead()
	}

	if err := d.ctrlPort.Send(req); err != nil {
		return false
	}

	d.ctrlQueue = d.ctrlQueue[1:]
	d.ctrlReq = req
	d.ctrlOp = op

	return true
}

func (d *Driver) handleCtrlRsp() bool {
	msg := d.ctrlPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	switch rsp := msg.(type) {
	case *ringdma.RegReadRsp:
		d.ctrlMustMatch(rsp)
		d.ctrlOp.onDone(rsp.Value, rsp.Err)
	case *ringdma.RegWriteRsp:
		d.ctrlMustMatch(rsp)
		d.ctrlOp.onDone(0, rsp.Err)
	default:
		log.Panicf("cannot handle register response of type %s",
			reflect.TypeOf(msg))
	}

	return true
}

func (d *Driver) ctrlMustMatch(rsp sim.Rsp) {
	if d.ctrlReq == nil || !sim.IsRspTo(rsp, d.ctrlReq.Meta().ID) {
		log.Panicf("unexpected register response to %s", rsp.GetRspTo())
	}

	d.ctrlReq = nil
}

func (d *Driver) handleInterrupts() bool {
	madeProgress := false

	for {
		msg := d.irqPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		irq, ok := msg.(*ringdma.InterruptMsg)
		if !ok {
			log.Panicf("cannot handle interrupt of type %s", reflect.TypeOf(msg))
		}

		d.stats.Interrupts++
		d.handleInterrupt(irq)
		madeProgress = true
	}

	return madeProgress
}

func (d *Driver) handleInterrupt(irq *ringdma.InterruptMsg) {
	switch irq.Source {
	case interrupt.SourcePacketWritten:
		d.written = append(d.written, writtenPacket{address: irq.Address})
	case interrupt.SourceBusError:
		d.stats.BusErrors++

		n := len(d.written)
		if n > 0 && d.written[n-1].address == irq.Address {
			d.written[n-1].bad = true
		}

		d.checkStatus()
	case interrupt.SourceConfigError:
		d.stats.ConfigErrors++
	}

	d.ackPending |= uint32(irq.Source)
}

// flushDeferredWrites reports the read pointer and acknowledges the
// interrupts. Both are coalesced until the register port is free.
func (d *Driver) flushDeferredWrites() {
	if d.unreported > 0 {
		d.enqueueWrite(ringdma.RegRead, uint32(d.read))
		d.unreported = 0
	}

	if d.ackPending != 0 {
		d.enqueueWrite(ringdma.RegIRQStatus, d.ackPending)
		d.ackPending = 0
	}
}

// readPacket starts reading the oldest written packet. Packets written by a
// failed burst are skipped.
func (d *Driver) readPacket() bool {
	if d.consuming || d.memReq != nil || len(d.written) == 0 {
		return false
	}

	if d.unreported >= d.maxUnreported() {
		return false
	}

	p := d.written[0]
	if p.address != d.read {
		log.Panicf("engine wrote 0x%x, driver expects 0x%x", p.address, d.read)
	}

	if p.bad {
		d.stats.Skipped++
		d.consuming = true
		d.delayLeft = 0

		return true
	}

	req := mem.ReadReqBuilder{}.
		WithSrc(d.memPort.AsRemote()).
		WithDst(d.memDst).
		WithAddress(p.address).
		WithByteSize(d.packetLength).
		Build()

	if err := d.memPort.Send(req); err != nil {
		return false
	}

	d.memReq = req

	return true
}

// maxUnreported keeps the read pointer updates from covering a whole lap,
// which the engine could not tell from no movement at all.
func (d *Driver) maxUnreported() int {
	return int(d.region.Size()/d.packetLength) - 1
}

func (d *Driver) handleMemRsp() bool {
	msg := d.memPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	rsp, ok := msg.(*mem.DataReadyRsp)
	if !ok {
		log.Panicf("cannot handle memory response of type %s",
			reflect.TypeOf(msg))
	}

	if d.memReq == nil || !sim.IsRspTo(rsp, d.memReq.ID) {
		log.Panicf("unexpected memory response to %s", rsp.RespondTo)
	}

	d.memReq = nil
	d.consuming = true
	d.delayLeft = d.consumeDelay

	if rsp.Status.IsError() {
		d.stats.ReadErrors++
		return true
	}

	d.verify(rsp.Data)

	return true
}

func (d *Driver) verify(data []byte) {
	seq, err := stream.Verify(data)
	if err != nil {
		d.stats.Corrupt++
		d.reportError(err)

		return
	}

	switch {
	case seq < d.expected:
		d.stats.Corrupt++
		d.reportError(fmt.Errorf("%w: seq %d after %d",
			stream.ErrCorruptPacket, seq, d.expected-1))

		return
	case seq > d.expected:
		d.stats.Lost += seq - d.expected
	}

	d.stats.Verified++
	d.expected = seq + 1

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosPacketConsumed,
		Item:   seq,
	})
}

func (d *Driver) consume() bool {
	if !d.consuming {
		return false
	}

	if d.delayLeft > 0 {
		d.delayLeft--
		return true
	}

	d.consuming = false
	d.written = d.written[1:]
	d.read = d.region.Advance(d.read, d.packetLength)
	d.unreported++
	d.stats.Consumed++
	d.idleCount = 0

	if d.toggleEvery > 0 {
		d.toggleLeft--
		if d.toggleLeft == 0 {
			d.toggleLeft = d.toggleEvery
			d.toggle()
		}
	}

	return true
}

// toggle disables and re-enables the engine without waiting for the drain.
func (d *Driver) toggle() {
	if d.phase != phaseRunning {
		return
	}

	d.stats.Toggles++
	d.enqueueWrite(ringdma.RegConfig, 0)
	d.enqueueWrite(ringdma.RegConfig, ringdma.ConfigEnable)
}

func (d *Driver) poll() bool {
	switch d.phase {
	case phaseIdle, phaseDone:
		return false
	}

	if d.pollLeft > 0 {
		d.pollLeft--
		return true
	}

	d.pollLeft = d.pollInterval

	if d.phase == phaseRunning && d.idle() {
		d.idleCount++
		if d.idlePolls > 0 && d.idleCount >= d.idlePolls {
			d.stop()
			return true
		}
	}

	d.checkStatus()

	return true
}

func (d *Driver) idle() bool {
	return len(d.written) == 0 && !d.consuming && d.memReq == nil
}

func (d *Driver) checkStatus() {
	for _, op := range d.ctrlQueue {
		if !op.write && op.offset == ringdma.RegStatus {
			return
		}
	}

	d.enqueueRead(ringdma.RegStatus, d.onStatus)
}

func (d *Driver) onStatus(status uint32, err error) {
	if err != nil {
		d.reportError(err)
		return
	}

	state := ringdma.StatusState(status)

	switch d.phase {
	case phaseRunning:
		switch state {
		case ringdma.StateFaulted:
			d.recover()
		case ringdma.StateDisabled:
			d.enqueueWrite(ringdma.RegIRQStatus, uint32(interrupt.AllSources))
			d.enqueueWrite(ringdma.RegConfig, ringdma.ConfigEnable)
		}
	case phaseRecovering:
		if state == ringdma.StateDisabled {
			d.enqueueWrite(ringdma.RegIRQStatus, uint32(interrupt.AllSources))
			d.enqueueWrite(ringdma.RegConfig, ringdma.ConfigEnable)
			d.phase = phaseRunning
		} else {
			d.checkStatus()
		}
	case phaseStopping:
		if state == ringdma.StateDisabled {
			d.phase = phaseDone
		} else {
			d.checkStatus()
		}
	}
}

// recover restarts an engine that stopped on a bus error. Disabling lets the
// engine finish the bursts in flight. Re-enabling resumes at the failed
// packet.
func (d *Driver) recover() {
	d.stats.Recoveries++
	d.phase = phaseRecovering
	d.enqueueWrite(ringdma.RegConfig, 0)
	d.checkStatus()

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosRecovery,
		Item:   d.read,
	})
}

func (d *Driver) stop() {
	d.phase = phaseStopping
	d.enqueueWrite(ringdma.RegConfig, 0)
	d.checkStatus()
}
