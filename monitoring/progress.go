package monitoring

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sarchlab/ringdma/sim"
)

// A ProgressBar counts the work of a long-running run, e.g. the packets the
// driver consumed, so that the web page can show how far the run is.
type ProgressBar struct {
	lock sync.Mutex

	id         string
	name       string
	startTime  time.Time
	total      uint64
	finished   uint64
	inProgress uint64
}

func newProgressBar(name string, total uint64) *ProgressBar {
	return &ProgressBar{
		id:        sim.GetIDGenerator().Generate(),
		name:      name,
		startTime: time.Now(),
		total:     total,
	}
}

// IncrementInProgress marks amount more items as started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.inProgress += amount
}

// IncrementFinished marks amount more items as done without starting them
// first.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finished += amount
}

// MoveInProgressToFinished marks amount started items as done.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.inProgress -= min(amount, b.inProgress)
	b.finished += amount
}

// Snapshot returns the finished and total counts.
func (b *ProgressBar) Snapshot() (finished, total uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.finished, b.total
}

// MarshalJSON takes a consistent copy of the counters.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return json.Marshal(struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		StartTime  time.Time `json:"start_time"`
		Total      uint64    `json:"total"`
		Finished   uint64    `json:"finished"`
		InProgress uint64    `json:"in_progress"`
	}{b.id, b.name, b.startTime, b.total, b.finished, b.inProgress})
}
