package async

import "sync"

// taskQueue is a FIFO queue of microtasks.
//
// The queue is unbounded so a reaction may enqueue arbitrarily many
// follow-on reactions; runaway chains are caught by the loop's drain quota
// instead of by back-pressure here.
type taskQueue struct {
	mu    sync.Mutex
	tasks []func()
}

func newTaskQueue() *taskQueue {
	return &taskQueue{tasks: make([]func(), 0, 64)}
}

// enqueue adds a task to the back of the queue.
func (q *taskQueue) enqueue(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, fn)
}

// tryDequeue removes and returns the front task.
// Returns (nil, false) if the queue is empty.
func (q *taskQueue) tryDequeue() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	fn := q.tasks[0]
	// Nil the slot so the closure (and whatever it captured) can be collected.
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return fn, true
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// clear drops every queued task.
func (q *taskQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.tasks)
	q.tasks = q.tasks[:0]
}
