package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is something that a Handler does at a given time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary events run after every primary event of the same time.
	// Components that must observe the settled state of a cycle schedule
	// secondary events.
	IsSecondary() bool
}

// A Handler owns the events scheduled for it. An event may only change the
// state of its own handler.
type Handler interface {
	Handle(e Event) error
}

// HandlerFunc lets a plain function handle events.
type HandlerFunc func(e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(e Event) error {
	return f(e)
}

// EventBase can be embedded to implement Event.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event base.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := makeEventBase(t, handler, false)
	return &e
}

// NewSecondaryEventBase creates a secondary event base.
func NewSecondaryEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := makeEventBase(t, handler, true)
	return &e
}

func makeEventBase(t VTimeInSec, handler Handler, secondary bool) EventBase {
	return EventBase{
		ID:        GetIDGenerator().Generate(),
		time:      t,
		handler:   handler,
		secondary: secondary,
	}
}

func (e EventBase) Time() VTimeInSec {
	return e.time
}

func (e EventBase) Handler() Handler {
	return e.handler
}

func (e EventBase) IsSecondary() bool {
	return e.secondary
}
