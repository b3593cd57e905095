package ringdma

import (
	"log"
	"reflect"

	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/mem"
	"github.com/sarchlab/ringdma/sim"
	"github.com/sarchlab/ringdma/tracing"
)

// Hook positions of the engine. Burst issues carry a BurstRequest as the
// item, backpressure carries a BlockReason, and the others carry an Event.
var (
	HookPosBurstIssued   = &sim.HookPos{Name: "RingDMA Burst Issued"}
	HookPosPacketWritten = &sim.HookPos{Name: "RingDMA Packet Written"}
	HookPosBusError      = &sim.HookPos{Name: "RingDMA Bus Error"}
	HookPosConfigError   = &sim.HookPos{Name: "RingDMA Config Error"}
	HookPosStateChange   = &sim.HookPos{Name: "RingDMA State Change"}
	HookPosBackpressure  = &sim.HookPos{Name: "RingDMA Backpressure"}
)

type inflightBurst struct {
	req   *mem.WriteReq
	burst BurstRequest
}

// Comp is a ring buffer DMA engine that can be placed in a simulation. It
// assembles beats from StreamPort into packets, writes them into memory
// through MemPort, takes register accesses on CtrlPort and delivers
// interrupts on IRQPort.
type Comp struct {
	*sim.TickingComponent

	streamPort sim.Port
	memPort    sim.Port
	ctrlPort   sim.Port
	irqPort    sim.Port

	core   *Core
	stager *Stager

	addressToPortMapper mem.AddressToPortMapper
	interruptDst        sim.RemotePort

	inflight      []inflightBurst
	ctrlRsps      []sim.Msg
	interrupts    []*InterruptMsg
	maxQueuedRsps int
	maxQueuedIRQs int
	numDropped    uint64
}

// StreamPort returns the port that receives stream beats.
func (c *Comp) StreamPort() sim.Port {
	return c.streamPort
}

// MemPort returns the port that issues bursts.
func (c *Comp) MemPort() sim.Port {
	return c.memPort
}

// CtrlPort returns the port that takes register accesses.
func (c *Comp) CtrlPort() sim.Port {
	return c.ctrlPort
}

// IRQPort returns the port that sends interrupts.
func (c *Comp) IRQPort() sim.Port {
	return c.irqPort
}

// Core returns the control core.
func (c *Comp) Core() *Core {
	return c.core
}

// Stager returns the beat staging buffer.
func (c *Comp) Stager() *Stager {
	return c.stager
}

// SetAddressToPortMapper sets how the engine finds the memory port that owns
// a burst address.
func (c *Comp) SetAddressToPortMapper(m mem.AddressToPortMapper) {
	c.addressToPortMapper = m
}

// SetInterruptDst sets the port that receives interrupts. If it is not set,
// interrupts are only visible in irq_status.
func (c *Comp) SetInterruptDst(dst sim.RemotePort) {
	c.interruptDst = dst
}

// Tick runs one cycle of the engine.
func (c *Comp) Tick() bool {
	madeProgress := false

	madeProgress = c.sendCtrlRsps() || madeProgress
	madeProgress = c.sendInterrupts() || madeProgress
	madeProgress = c.assembleBeats() || madeProgress

	in := TickInput{}

	writeReq, progress := c.takeCtrlReq(&in)
	madeProgress = progress || madeProgress

	madeProgress = c.collectCompletions(&in) || madeProgress

	in.PacketReady = c.stager.PacketReady()
	in.BusReady = c.memPort.CanSend()

	out := c.core.Step(in)

	madeProgress = c.handleOutput(out, writeReq) || madeProgress
	madeProgress = c.core.Busy() || madeProgress

	return madeProgress
}

func (c *Comp) sendCtrlRsps() bool {
	madeProgress := false

	for len(c.ctrlRsps) > 0 {
		if c.ctrlPort.Send(c.ctrlRsps[0]) != nil {
			break
		}

		c.ctrlRsps = c.ctrlRsps[1:]
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) sendInterrupts() bool {
	madeProgress := false

	for len(c.interrupts) > 0 {
		if c.irqPort.Send(c.interrupts[0]) != nil {
			break
		}

		c.interrupts = c.interrupts[1:]
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) assembleBeats() bool {
	madeProgress := false

	for c.stager.CanAcceptBeat() {
		msg := c.streamPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		beat, ok := msg.(*BeatMsg)
		if !ok {
			log.Panicf("cannot handle stream message of type %s",
				reflect.TypeOf(msg))
		}

		c.stager.PushBeat(beat.Data)
		madeProgress = true
	}

	return madeProgress
}

// takeCtrlReq takes at most one register access per cycle. Reads are served
// from the state before the cycle. Writes are handed to the core.
func (c *Comp) takeCtrlReq(in *TickInput) (*RegWriteReq, bool) {
	if len(c.ctrlRsps) >= c.maxQueuedRsps {
		return nil, false
	}

	msg := c.ctrlPort.RetrieveIncoming()
	if msg == nil {
		return nil, false
	}

	switch req := msg.(type) {
	case *RegReadReq:
		value, err := c.core.ReadRegister(req.Offset)
		rsp := &RegReadRsp{
			RespondTo: req.ID,
			Offset:    req.Offset,
			Value:     value,
			Err:       err,
		}
		rsp.MsgMeta = sim.NewMsgMeta[RegReadRsp](
			c.ctrlPort.AsRemote(), req.Src, 4,
		)
		c.ctrlRsps = append(c.ctrlRsps, rsp)

		return nil, true
	case *RegWriteReq:
		in.RegWrites = append(in.RegWrites,
			RegWrite{Offset: req.Offset, Value: req.Value})

		return req, true
	default:
		log.Panicf("cannot handle control message of type %s",
			reflect.TypeOf(msg))
	}

	return nil, false
}

func (c *Comp) collectCompletions(in *TickInput) bool {
	madeProgress := false

	for {
		msg := c.memPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		rsp, ok := msg.(*mem.WriteDoneRsp)
		if !ok {
			log.Panicf("cannot handle memory response of type %s",
				reflect.TypeOf(msg))
		}

		if len(c.inflight) == 0 || !sim.IsRspTo(rsp, c.inflight[0].req.ID) {
			log.Panicf("response %s does not match the oldest burst",
				rsp.RespondTo)
		}

		tracing.TraceReqFinalize(c.inflight[0].req, c)
		c.inflight = c.inflight[1:]

		in.Completions = append(in.Completions, rsp.Status)
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) handleOutput(out TickOutput, writeReq *RegWriteReq) bool {
	madeProgress := false

	if writeReq != nil {
		rsp := &RegWriteRsp{
			RespondTo: writeReq.ID,
			Offset:    writeReq.Offset,
			Err:       out.RegWriteErrs[0],
		}
		rsp.MsgMeta = sim.NewMsgMeta[RegWriteRsp](
			c.ctrlPort.AsRemote(), writeReq.Src, 4,
		)
		c.ctrlRsps = append(c.ctrlRsps, rsp)
		madeProgress = true
	}

	if out.Burst != nil {
		c.issueBurst(*out.Burst)
		madeProgress = true
	} else if out.Blocked.IsBackpressure() {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosBackpressure,
			Item:   out.Blocked,
		})
	}

	for _, e := range out.Events {
		c.handleEvent(e)
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) issueBurst(burst BurstRequest) {
	if c.addressToPortMapper == nil {
		log.Panic("address to port mapper is not set")
	}

	data := c.stager.PopPacket()

	req := mem.WriteReqBuilder{}.
		WithSrc(c.memPort.AsRemote()).
		WithDst(c.addressToPortMapper.Find(burst.Address)).
		WithAddress(burst.Address).
		WithData(data).
		WithInfo(burst).
		Build()

	if err := c.memPort.Send(req); err != nil {
		log.Panic("bus issuer refused a burst after reporting ready")
	}

	c.inflight = append(c.inflight, inflightBurst{req: req, burst: burst})

	tracing.TraceReqInitiate(req, c, "")
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosBurstIssued,
		Item:   burst,
		Detail: req,
	})
}

func (c *Comp) handleEvent(e Event) {
	var pos *sim.HookPos
	var src interrupt.Source

	switch e.Kind {
	case EventPacketWritten:
		pos, src = HookPosPacketWritten, interrupt.SourcePacketWritten
	case EventBusError:
		pos, src = HookPosBusError, interrupt.SourceBusError
	case EventConfigError:
		pos, src = HookPosConfigError, interrupt.SourceConfigError
	case EventStateChange:
		pos = HookPosStateChange
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   e,
	})

	if e.Interrupt && c.interruptDst != "" {
		c.queueInterrupt(src, e.Address)
	}
}

// queueInterrupt holds an interrupt message until IRQPort can take it. When
// the destination stops draining, the message is dropped; the source stays
// sticky in irq_status.
func (c *Comp) queueInterrupt(src interrupt.Source, address uint64) {
	if len(c.interrupts) >= c.maxQueuedIRQs {
		c.numDropped++
		return
	}

	status, _ := c.core.ReadRegister(RegIRQStatus)

	msg := &InterruptMsg{
		Source:  src,
		Address: address,
		Status:  status,
	}
	msg.MsgMeta = sim.NewMsgMeta[InterruptMsg](
		c.irqPort.AsRemote(), c.interruptDst, 4,
	)

	c.interrupts = append(c.interrupts, msg)
}

// NumDroppedInterrupts returns the number of interrupt messages dropped
// because the destination did not take them.
func (c *Comp) NumDroppedInterrupts() uint64 {
	return c.numDropped
}

// NumInflight returns the number of bursts sent and not yet acknowledged.
func (c *Comp) NumInflight() int {
	return len(c.inflight)
}
