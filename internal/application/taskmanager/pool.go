// Package taskmanager runs domain/task.Task values on a fixed pool of
// worker goroutines, FIFO within the shared ready queue, gated on an
// optional dependency Async.
package taskmanager

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/kestrelengine/assetpipe/internal/domain/async"
	"github.com/kestrelengine/assetpipe/internal/domain/task"
)

type readyItem struct {
	id     uuid.UUID
	t      *task.Task
	handle task.Handle
}

// TaskManager owns an unbounded FIFO ready queue drained by a fixed number
// of long-lived worker goroutines. Scheduling never blocks the caller: a
// submitted task is appended to the queue and a waiting worker is signaled.
type TaskManager struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []readyItem
	closed   bool
	wg       conc.WaitGroup
	executed int64
}

// New starts a pool with the given number of worker goroutines. A count
// below 1 is clamped to 1.
func New(workers int) *TaskManager {
	if workers < 1 {
		workers = 1
	}
	m := &TaskManager{}
	m.cond = sync.NewCond(&m.mu)
	for i := 0; i < workers; i++ {
		workerID := i
		m.wg.Go(func() { m.runWorker(workerID) })
	}
	return m
}

func (m *TaskManager) runWorker(workerID int) {
	ctx := &task.Context{WorkerID: workerID, Submit: m.scheduleDependent}
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 && m.closed {
			m.mu.Unlock()
			return
		}
		item := m.queue[0]
		// Clear the slot so the backing array does not keep the task, and
		// whatever its runnable captured, reachable after it has run.
		m.queue[0] = readyItem{}
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.execute(ctx, item)
	}
}

func (m *TaskManager) execute(ctx *task.Context, item readyItem) {
	code := item.t.Run(ctx)
	m.mu.Lock()
	m.executed++
	m.mu.Unlock()
	if code != 0 {
		item.handle.SetFailed()
		return
	}
	item.handle.SetResult(0)
}

func (m *TaskManager) enqueue(item readyItem) {
	m.mu.Lock()
	m.queue = append(m.queue, item)
	m.mu.Unlock()
	m.cond.Signal()
}

// Schedule submits t with no dependency: it becomes ready immediately.
func (m *TaskManager) Schedule(t *task.Task) task.Handle {
	h := async.NewAsyncResult[int]()
	m.enqueue(readyItem{id: uuid.New(), t: t, handle: h})
	return h
}

// ScheduleAfter submits t gated on dependsOn: t only becomes ready once
// dependsOn completes Ok. If dependsOn completes Failed, t's handle
// resolves Failed without the runnable ever executing. A null dependsOn
// behaves like Schedule.
func (m *TaskManager) ScheduleAfter(t *task.Task, dependsOn async.Async) task.Handle {
	h := async.NewAsyncResult[int]()
	item := readyItem{id: uuid.New(), t: t, handle: h}
	if dependsOn.IsNull() {
		m.enqueue(item)
		return h
	}
	dependsOn.AddOnStatus(func(status async.Status) {
		if status == async.StatusFailed {
			h.SetFailed()
			return
		}
		m.enqueue(item)
	})
	return h
}

func (m *TaskManager) scheduleDependent(t *task.Task, dependsOn async.Async) task.Handle {
	return m.ScheduleAfter(t, dependsOn)
}

// Close lets the pool's workers exit once the queue drains, and waits
// for every in-flight task to finish. It does not cancel queued
// tasks; it lets them run out.
func (m *TaskManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
	m.wg.Wait()
}

// Pending reports the number of tasks sitting in the ready queue, waiting
// for a worker. It is a diagnostic, not a scheduling guarantee.
func (m *TaskManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
