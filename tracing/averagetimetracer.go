package tracing

import (
	"sync"

	"github.com/sarchlab/ringdma/sim"
)

// AverageTimeTracer measures how long the tasks that pass its filter take,
// e.g., the latency of a burst from issue to completion.
type AverageTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock      sync.Mutex
	startedAt map[string]sim.VTimeInSec
	count     uint64
	total     sim.VTimeInSec
	longest   sim.VTimeInSec
}

// NewAverageTimeTracer creates a new AverageTimeTracer
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		startedAt:  make(map[string]sim.VTimeInSec),
	}
}

// AverageTime returns the mean duration of the completed tasks.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return t.total / sim.VTimeInSec(t.count)
}

// MaxTime returns the longest time spent on a single task.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.longest
}

// TotalCount returns the number of completed tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// NumInflight returns the number of tasks that started and have not ended.
func (t *AverageTimeTracer) NumInflight() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.startedAt)
}

func (t *AverageTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.startedAt[task.ID] = t.timeTeller.CurrentTime()
}

func (t *AverageTimeTracer) StepTask(_ Task) {}

// EndTask ignores tasks that did not pass the filter when they started.
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.startedAt[task.ID]
	if !ok {
		return
	}

	delete(t.startedAt, task.ID)

	d := t.timeTeller.CurrentTime() - start
	t.count++
	t.total += d
	t.longest = max(t.longest, d)
}
