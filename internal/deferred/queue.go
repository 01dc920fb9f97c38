// Package deferred coalesces per-frame work registered during update and runs it
// once, late in the frame, before draw submission.
package deferred

import "sync"

// Queue holds at most one closure per key until the next Flush.
type Queue struct {
	mu    sync.Mutex
	keys  []any
	funcs map[any]func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{funcs: make(map[any]func())}
}

// RegisterOnce schedules fn under key. A closure already registered under key is
// replaced and keeps its original position in the run order.
// key must be comparable.
func (q *Queue) RegisterOnce(key any, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.funcs[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.funcs[key] = fn
}

// Pending returns the number of registered closures.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

// Flush runs every registered closure once, in registration order, and clears
// the queue. Closures registered while flushing run on the next Flush.
// It returns the number of closures run.
func (q *Queue) Flush() int {
	q.mu.Lock()
	keys, funcs := q.keys, q.funcs
	q.keys = nil
	q.funcs = make(map[any]func())
	q.mu.Unlock()

	for _, k := range keys {
		funcs[k]()
	}
	return len(keys)
}
