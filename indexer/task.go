package indexer

import (
	"math"
	"sync/atomic"

	"github.com/google/uuid"
)

// Task is a running or finished indexing job.
type Task struct {
	// JobID correlates the task's log lines
	JobID string

	done     chan struct{}
	report   Report
	progress atomic.Uint32
}

func newTask() *Task {
	return &Task{
		JobID: uuid.New().String(),
		done:  make(chan struct{}),
	}
}

// Wait blocks until the task finishes and returns its report.
func (t *Task) Wait() Report {
	<-t.done
	return t.report
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Progress returns a value in [0,1], or Indeterminate while the number of
// items is unknown. A finished task reports 1.
func (t *Task) Progress() float32 {
	return math.Float32frombits(t.progress.Load())
}

func (t *Task) setProgress(p float32) {
	t.progress.Store(math.Float32bits(p))
}

func (t *Task) finish(r Report) {
	t.report = r
	t.setProgress(1)
	close(t.done)
}
