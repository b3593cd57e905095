package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler runs once the engine has no more events.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine drives a discrete event simulation. Before and after every
// event it invokes its hooks at HookPosBeforeEvent and HookPosAfterEvent.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run handles events until the queue is empty or a handler fails.
	Run() error

	// Pause blocks Run before the next event until Continue is called. The
	// monitor uses it to freeze a running simulation.
	Pause()
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the registered SimulationEndHandlers.
	Finished()
}

// An EventCounter reports how many events an engine has handled.
type EventCounter interface {
	NumEventsHandled() uint64
}
