package sim

import (
	"container/heap"
	"sync"
)

// EventQueue orders events by time. Events of the same time come out in the
// order they were pushed.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl is a heap-based EventQueue that is safe for concurrent use.
type EventQueueImpl struct {
	lock    sync.Mutex
	events  eventHeap
	pushSeq uint64
}

// NewEventQueue creates an empty EventQueueImpl.
func NewEventQueue() *EventQueueImpl {
	return &EventQueueImpl{}
}

func (q *EventQueueImpl) Push(evt Event) {
	q.lock.Lock()
	defer q.lock.Unlock()

	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.pushSeq})
	q.pushSeq++
}

// Pop removes and returns the earliest event. The queue must not be empty.
func (q *EventQueueImpl) Pop() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return heap.Pop(&q.events).(queuedEvent).evt
}

func (q *EventQueueImpl) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.events)
}

// Peek returns the earliest event without removing it. The queue must not be
// empty.
func (q *EventQueueImpl) Peek() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.events[0].evt
}

type queuedEvent struct {
	evt Event
	seq uint64
}

func (e queuedEvent) before(other queuedEvent) bool {
	if t, o := e.evt.Time(), other.evt.Time(); t != o {
		return t < o
	}

	return e.seq < other.seq
}

// eventHeap implements heap.Interface.
type eventHeap []queuedEvent

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = queuedEvent{}
	*h = old[:len(old)-1]

	return last
}
