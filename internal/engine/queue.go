package engine

import (
	"sync"

	"github.com/roach88/sheetview/internal/store"
)

// mutationQueue is a thread-safe FIFO of pending mutations.
//
// The queue is unbounded so that producers never block on a busy Run loop.
// A buffered signal channel lets Run wait with select alongside ctx.Done().
type mutationQueue struct {
	mu        sync.Mutex
	mutations []store.Mutation
	closed    bool
	signal    chan struct{} // buffered, size 1
}

func newMutationQueue() *mutationQueue {
	return &mutationQueue{
		mutations: make([]store.Mutation, 0, 64),
		signal:    make(chan struct{}, 1),
	}
}

// Enqueue adds m to the back of the queue.
// Returns false if the queue is closed.
func (q *mutationQueue) Enqueue(m store.Mutation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.mutations = append(q.mutations, m)

	// Non-blocking: the size 1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front mutation without blocking.
func (q *mutationQueue) TryDequeue() (store.Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.mutations) == 0 {
		return store.Mutation{}, false
	}

	m := q.mutations[0]

	// Clear the slot so the backing array does not pin the entity.
	q.mutations[0] = store.Mutation{}
	if len(q.mutations) == 1 {
		q.mutations = q.mutations[:0]
	} else {
		q.mutations = q.mutations[1:]
	}

	return m, true
}

// Wait returns a channel that fires when mutations may be available. It is
// closed once the queue is closed.
func (q *mutationQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *mutationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.mutations)
}

// Closed reports whether Close has been called.
func (q *mutationQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further mutations and wakes any waiter.
func (q *mutationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
