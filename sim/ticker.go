package sim

import "sync"

// TickEvent wakes up a ticking component.
type TickEvent struct {
	EventBase
}

// A Ticker updates its state once per cycle. Tick returns false when nothing
// changed, after which the component sleeps until a port wakes it up.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules at most one tick event per cycle for a handler.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	// nextTickTime is negative until the first tick is scheduled.
	nextTickTime VTimeInSec
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler:      handler,
		Engine:       engine,
		Freq:         freq,
		nextTickTime: -1,
	}
}

// NewSecondaryTickScheduler creates a scheduler whose ticks run after the
// primary events of the same cycle.
func NewSecondaryTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	t := NewTickScheduler(handler, engine, freq)
	t.secondary = true

	return t
}

// TickNow schedules a tick in the current cycle.
func (t *TickScheduler) TickNow() {
	t.tickAt(t.Freq.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick in the next cycle.
func (t *TickScheduler) TickLater() {
	t.tickAt(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) tickAt(time VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.nextTickTime >= time {
		return
	}

	t.nextTickTime = time
	t.Engine.Schedule(TickEvent{
		EventBase: makeEventBase(time, t.handler, t.secondary),
	})
}

// CurrentTime returns the current time of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// CurrentCycle returns the number of cycles elapsed at the current time.
func (t *TickScheduler) CurrentCycle() uint64 {
	return t.Freq.Cycle(t.CurrentTime())
}

// TickingComponent runs a Ticker every cycle while it makes progress. Port
// activity wakes it up again.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker    Ticker
	numTicks  uint64
	idleTicks uint64
}

// NewTickingComponent creates a new ticking component
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// NewSecondaryTickingComponent creates a ticking component that ticks after
// the primary events of each cycle.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := NewTickingComponent(name, engine, freq, ticker)
	tc.TickScheduler = NewSecondaryTickScheduler(tc, engine, freq)

	return tc
}

// NotifyPortFree wakes the component up.
func (c *TickingComponent) NotifyPortFree(_ Port) {
	c.TickLater()
}

// NotifyRecv wakes the component up.
func (c *TickingComponent) NotifyRecv(_ Port) {
	c.TickLater()
}

// Handle runs one tick and schedules the next one if the tick made progress.
func (c *TickingComponent) Handle(_ Event) error {
	c.numTicks++

	if !c.ticker.Tick() {
		c.idleTicks++
		return nil
	}

	c.TickLater()

	return nil
}

// NumTicks returns how many ticks ran and how many of them made no
// progress.
func (c *TickingComponent) NumTicks() (total, idle uint64) {
	return c.numTicks, c.idleTicks
}
