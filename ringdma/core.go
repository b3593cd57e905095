package ringdma

import (
	"fmt"
	"log"

	"github.com/sarchlab/ringdma/cdc"
	"github.com/sarchlab/ringdma/interrupt"
	"github.com/sarchlab/ringdma/mem"
)

// TickInput is everything the core samples in one cycle.
type TickInput struct {
	// RegWrites are applied in order, before anything else.
	RegWrites []RegWrite

	// Completions are the statuses of the bursts that completed this cycle,
	// oldest first.
	Completions []mem.Status

	// PacketReady is true if a whole packet is staged.
	PacketReady bool

	// BusReady is true if the bus issuer can take a burst.
	BusReady bool
}

// TickOutput is everything the core decides in one cycle.
type TickOutput struct {
	// Burst is the burst to issue, or nil.
	Burst *BurstRequest

	// Blocked tells why no burst was issued.
	Blocked BlockReason

	Events []Event

	// RegWriteErrs has one entry per register write of the input.
	RegWriteErrs []error
}

// Core is the control core of the ring buffer DMA engine. It owns the
// pointers, the state machine, the overflow guard and the register file.
// Step must be called once per cycle. The core does no I/O.
type Core struct {
	cfg   Config
	state State

	enable      bool
	regionDirty bool
	readWritten bool

	startReg, endReg, readReg uint32
	errorAddress              uint64

	ptr         *PointerModel
	guard       *Guard
	gen         *RequestGenerator
	tracker     *CompletionTracker
	irq         *interrupt.Block
	readSync    *cdc.PointerSync
	writtenSync *cdc.GraySync

	events []Event
}

// NewCore creates a core in the Disabled state. It panics if the
// configuration is invalid.
func NewCore(name string, cfg Config) *Core {
	if err := cfg.Validate(); err != nil {
		log.Panic(err)
	}

	return &Core{
		cfg:         cfg,
		regionDirty: true,
		ptr:         NewPointerModel(Region{}, cfg.PacketLength),
		guard:       NewGuard(cfg),
		gen:         NewRequestGenerator(cfg),
		tracker:     NewCompletionTracker(cfg),
		irq:         interrupt.NewBlock(),
		readSync: cdc.NewPointerSync(
			name+".ReadPointerSync", cfg.ReadPointerSyncStages),
	}
}

// Step advances the core by one cycle.
func (c *Core) Step(in TickInput) TickOutput {
	c.events = nil
	out := TickOutput{}

	if c.writtenSync != nil {
		c.writtenSync.Tick()
	}

	if len(in.RegWrites) > 0 {
		out.RegWriteErrs = make([]error, len(in.RegWrites))
		for i, w := range in.RegWrites {
			out.RegWriteErrs[i] = c.writeRegister(w)
		}
	}

	c.syncReadPointer()

	for _, status := range in.Completions {
		c.complete(status)
	}

	c.updateState()

	out.Burst, out.Blocked = c.issue(in)

	c.publishWrittenPointer()

	out.Events = c.events
	c.events = nil

	return out
}

func (c *Core) emit(e Event) {
	c.events = append(c.events, e)
}

func (c *Core) setState(s State) {
	if s == c.state {
		return
	}

	c.emit(Event{Kind: EventStateChange, From: c.state, To: s})
	c.state = s
}

func (c *Core) configError(err error) error {
	c.emit(Event{
		Kind:      EventConfigError,
		Err:       err,
		Interrupt: c.irq.Raise(interrupt.SourceConfigError),
	})

	return err
}

func (c *Core) shadowRegion() Region {
	return Region{Base: uint64(c.startReg), End: uint64(c.endReg)}
}

func (c *Core) writeRegister(w RegWrite) error {
	name := RegisterName(w.Offset)

	switch w.Offset {
	case RegConfig:
		return c.writeConfig(w.Value)
	case RegStart, RegEnd:
		if c.state != StateDisabled {
			return c.configError(fmt.Errorf("%s: %w", name, ErrRegisterLocked))
		}

		reg := &c.endReg
		if w.Offset == RegStart {
			reg = &c.startReg
		}

		if *reg != w.Value {
			*reg = w.Value
			c.regionDirty = true
		}
	case RegRead:
		return c.writeReadPointer(uint64(w.Value))
	case RegIRQStatus:
		c.irq.Clear(w.Value)
	case RegIRQMask:
		c.irq.SetMask(w.Value)
	case RegWritten, RegStatus, RegErrorAddress:
		return fmt.Errorf("%s: %w", name, ErrReadOnlyRegister)
	default:
		return fmt.Errorf("offset 0x%x: %w", w.Offset, ErrUnknownRegister)
	}

	return nil
}

func (c *Core) writeConfig(v uint32) error {
	enable := v&ConfigEnable != 0

	switch {
	case enable && c.state == StateDisabled:
		return c.arm()
	case enable && c.state == StateDraining:
		c.enable = true
		if c.tracker.Pending() > 0 {
			c.setState(StateStreaming)
		} else {
			c.setState(StateArmed)
		}
	case !enable && c.state.issuing():
		c.enable = false
		c.setState(StateDraining)
	case !enable && c.state == StateFaulted:
		c.enable = false
	}

	return nil
}

func (c *Core) writeReadPointer(addr uint64) error {
	region := c.shadowRegion()
	if c.state != StateDisabled {
		region = c.ptr.Region()
	}

	if !region.Contains(addr) {
		return c.configError(fmt.Errorf("read pointer 0x%x, buffer %s: %w",
			addr, region, ErrReadPointerOutOfRange))
	}

	c.readReg = uint32(addr)

	if c.state != StateDisabled {
		c.readSync.Write(addr)
	} else {
		c.readWritten = true
	}

	return nil
}

// arm validates the configuration and enables the engine. A region written
// since the last enable restarts the write pointer at its base.
func (c *Core) arm() error {
	region := c.shadowRegion()
	if err := region.Validate(c.cfg.PacketLength); err != nil {
		return c.configError(fmt.Errorf("enable: %w", err))
	}

	read := uint64(c.readReg)
	if !region.Contains(read) {
		return c.configError(fmt.Errorf(
			"enable: read pointer 0x%x, buffer %s: %w",
			read, region, ErrReadPointerOutOfRange))
	}

	if c.regionDirty {
		c.ptr.Reconfigure(region)
		c.writtenSync = cdc.NewGraySync(
			region.Size()/c.cfg.PacketLength,
			c.cfg.WrittenPointerSyncStages)
		c.regionDirty = false

		if err := c.ptr.SetReadPointer(read); err != nil {
			log.Panic(err)
		}

		c.guard.ResetOccupancy(region.Distance(read, c.ptr.CurrentWriteAddress()))
	} else if c.readWritten && c.isFullLap(read) {
		c.guard.ResetOccupancy(0)
	} else {
		c.applyReadPointer(read)
	}

	c.readWritten = false
	c.writtenSync.Reset(c.writtenSlot())
	c.readSync.Clear()
	c.tracker.resume()
	c.enable = true
	c.ptr.activate()
	c.setState(StateArmed)

	return nil
}

func (c *Core) applyReadPointer(addr uint64) {
	old := c.ptr.CurrentReadAddress()

	if err := c.ptr.SetReadPointer(addr); err != nil {
		_ = c.configError(err)
		return
	}

	c.guard.OnReadPointerMoved(c.ptr.Region(), old, addr)
}

func (c *Core) syncReadPointer() {
	c.readSync.Tick()

	for {
		v, ok := c.readSync.Pop()
		if !ok {
			return
		}

		if c.isFullLap(v) {
			c.guard.ResetOccupancy(0)
			continue
		}

		c.applyReadPointer(v)
	}
}

// isFullLap tells if a read pointer update reports that software consumed a
// completely full ring. Under TrackOccupancy the read and write pointers are
// equal both when the ring is empty and when it is full, so the update does
// not move the read pointer.
func (c *Core) isFullLap(addr uint64) bool {
	if c.cfg.FullDetection != TrackOccupancy {
		return false
	}

	return addr == c.ptr.CurrentReadAddress() &&
		addr == c.ptr.CurrentWriteAddress() &&
		c.tracker.Pending() == 0 &&
		c.guard.Occupancy() >= c.ptr.Region().Size()
}

func (c *Core) complete(status mem.Status) {
	out := c.tracker.complete(status, c.ptr)

	if out.advanced {
		c.emit(Event{
			Kind:      EventPacketWritten,
			Address:   out.address,
			Interrupt: c.irq.Raise(interrupt.SourcePacketWritten),
		})
	} else {
		c.guard.OnDiscard()
	}

	if status.IsError() {
		c.errorAddress = out.address
		c.emit(Event{
			Kind:      EventBusError,
			Address:   out.address,
			Interrupt: c.irq.Raise(interrupt.SourceBusError),
		})
	}

	if out.halted {
		c.setState(StateFaulted)
	}
}

func (c *Core) updateState() {
	pending := c.tracker.Pending()

	switch c.state {
	case StateDraining:
		if pending == 0 {
			c.quiesce()
		}
	case StateFaulted:
		if !c.enable && pending == 0 {
			c.quiesce()
		}
	}
}

// quiesce brings the engine to Disabled once nothing is in flight. Read
// pointer updates still crossing are applied directly.
func (c *Core) quiesce() {
	c.readSync.Clear()
	c.applyReadPointer(uint64(c.readReg))
	c.ptr.deactivate()
	c.setState(StateDisabled)
}

func (c *Core) issue(in TickInput) (*BurstRequest, BlockReason) {
	cond := issueConditions{
		issuing:     c.state.issuing(),
		packetReady: in.PacketReady,
		busReady:    in.BusReady,
		pending:     c.tracker.Pending(),
	}

	burst, reason := c.gen.decide(cond, c.guard, c.ptr)
	if reason != NotBlocked {
		return nil, reason
	}

	c.tracker.onIssue(burst.Address)
	c.guard.OnIssue()

	if c.state == StateArmed {
		c.setState(StateStreaming)
	}

	return &burst, NotBlocked
}

func (c *Core) writtenSlot() uint64 {
	return c.ptr.Region().Slot(c.ptr.CurrentWriteAddress(), c.cfg.PacketLength)
}

func (c *Core) publishWrittenPointer() {
	if c.writtenSync != nil {
		c.writtenSync.Set(c.writtenSlot())
	}
}

func (c *Core) publishedWrittenAddress() uint64 {
	if c.writtenSync == nil {
		return c.ptr.CurrentWriteAddress()
	}

	return c.ptr.Region().Base + c.writtenSync.Value()*c.cfg.PacketLength
}

// ReadRegister returns the value of a register as software sees it.
func (c *Core) ReadRegister(offset uint32) (uint32, error) {
	switch offset {
	case RegConfig:
		if c.enable {
			return ConfigEnable, nil
		}

		return 0, nil
	case RegStart:
		return c.startReg, nil
	case RegEnd:
		return c.endReg, nil
	case RegRead:
		return c.readReg, nil
	case RegWritten:
		return uint32(c.publishedWrittenAddress()), nil
	case RegStatus:
		return c.status(), nil
	case RegIRQStatus:
		return c.irq.Status(), nil
	case RegIRQMask:
		return c.irq.Mask(), nil
	case RegErrorAddress:
		return uint32(c.errorAddress), nil
	default:
		return 0, fmt.Errorf("offset 0x%x: %w", offset, ErrUnknownRegister)
	}
}

func (c *Core) status() uint32 {
	v := uint32(c.state) & StatusStateMask

	if c.irq.Has(interrupt.SourceConfigError) {
		v |= StatusConfigError
	}

	if c.irq.Has(interrupt.SourceBusError) {
		v |= StatusBusError
	}

	v |= (uint32(c.tracker.Pending()) << StatusPendingShift) & StatusPendingMask

	return v
}

// Config returns the static configuration.
func (c *Core) Config() Config {
	return c.cfg
}

// State returns the engine state.
func (c *Core) State() State {
	return c.state
}

// Enabled returns the enable bit.
func (c *Core) Enabled() bool {
	return c.enable
}

// Pending returns the number of bursts in flight.
func (c *Core) Pending() int {
	return c.tracker.Pending()
}

// Region returns the region the engine is working on.
func (c *Core) Region() Region {
	return c.ptr.Region()
}

// WriteAddress returns the engine write pointer.
func (c *Core) WriteAddress() uint64 {
	return c.ptr.CurrentWriteAddress()
}

// ReadAddress returns the read pointer as the engine sees it.
func (c *Core) ReadAddress() uint64 {
	return c.ptr.CurrentReadAddress()
}

// ProjectedWriteAddress returns the write pointer after all the bursts in
// flight complete.
func (c *Core) ProjectedWriteAddress() uint64 {
	return c.guard.ProjectedPointer(c.ptr, c.tracker.Pending())
}

// FreeSpace returns the number of bytes the engine may still write.
func (c *Core) FreeSpace() uint64 {
	if c.ptr.Region().Size() == 0 {
		return 0
	}

	return c.guard.FreeSpace(c.ptr, c.tracker.Pending())
}

// Occupancy returns the unread byte count kept under TrackOccupancy.
func (c *Core) Occupancy() uint64 {
	return c.guard.Occupancy()
}

// InterruptAsserted tells if the interrupt line is high.
func (c *Core) InterruptAsserted() bool {
	return c.irq.Asserted()
}

// NumIssued returns the number of bursts issued.
func (c *Core) NumIssued() uint64 {
	return c.gen.NumIssued()
}

// NumCompleted returns the number of bursts completed.
func (c *Core) NumCompleted() uint64 {
	return c.tracker.NumCompleted()
}

// NumBusErrors returns the number of bursts that failed.
func (c *Core) NumBusErrors() uint64 {
	return c.tracker.NumErrors()
}

// Busy tells if the core still has work that progresses without input.
func (c *Core) Busy() bool {
	if c.readSync.Busy() {
		return true
	}

	return c.writtenSync != nil && !c.writtenSync.Settled()
}
