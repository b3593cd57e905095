package sim

import (
	"log"
	"reflect"
	"sync"
	"sync/atomic"
)

// A SerialEngine handles events one at a time in time order. Same-time
// primary events run in the order they were scheduled, followed by the
// secondary events of that time.
type SerialEngine struct {
	HookableBase

	timeLock  sync.RWMutex
	time      VTimeInSec
	primary   EventQueue
	secondary EventQueue
	numEvents atomic.Uint64

	// pauseLock is held while an event runs and while the engine is paused.
	pauseLock     sync.Mutex
	isPausedLock  sync.Mutex
	isPaused      bool
	singleRunLock sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		primary:   NewEventQueue(),
		secondary: NewEventQueue(),
	}
}

// Schedule queues an event. Scheduling into the past panics.
func (e *SerialEngine) Schedule(evt Event) {
	if now := e.CurrentTime(); evt.Time() < now {
		log.Panicf("cannot schedule %s @ %.10f, now %.10f",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	if evt.IsSecondary() {
		e.secondary.Push(evt)
		return
	}

	e.primary.Push(evt)
}

// CurrentTime returns the time of the event being handled.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.time
}

func (e *SerialEngine) advanceTo(t VTimeInSec) {
	e.timeLock.Lock()
	defer e.timeLock.Unlock()

	if t < e.time {
		log.Panicf("time cannot go back from %.10f to %.10f", e.time, t)
	}

	e.time = t
}

// Run handles events until none is left. It stops at the first error a
// handler returns.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for e.primary.Len() > 0 || e.secondary.Len() > 0 {
		if err := e.step(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) step() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.popNext()
	e.advanceTo(evt.Time())

	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)
	e.numEvents.Add(1)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// popNext takes the earliest event. A secondary event only goes first when
// it is strictly earlier than every primary event.
func (e *SerialEngine) popNext() Event {
	switch {
	case e.primary.Len() == 0:
		return e.secondary.Pop()
	case e.secondary.Len() == 0:
		return e.primary.Pop()
	case e.secondary.Peek().Time() < e.primary.Peek().Time():
		return e.secondary.Pop()
	default:
		return e.primary.Pop()
	}
}

// NumEventsHandled returns the number of events handled so far.
func (e *SerialEngine) NumEventsHandled() uint64 {
	return e.numEvents.Load()
}

// Pause stops the engine before its next event.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes a paused engine.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.isPaused = false
	e.pauseLock.Unlock()
}

// RegisterSimulationEndHandler adds a handler that Finished calls.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished calls all the SimulationEndHandlers with the current time.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
