package upload

import "sync"

// Queue is an unbounded, concurrency-safe FIFO of parameter sets. It is the
// sole synchronization point between the feed-processing path (producer)
// and the upload workers (consumers): pushes never block, pops block until
// an item is available.
//
// The daemon never closes the queue in normal operation; Close exists for
// process exit and tests.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Params
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item. It reports false if the queue has been closed, in
// which case the item is discarded.
func (q *Queue) Push(p Params) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, p)
	q.cond.Signal()
	return true
}

// Pop blocks until an item is available and removes it. After Close, Pop
// drains the remaining items and then reports ok=false.
func (q *Queue) Pop() (p Params, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	p = q.items[0]
	q.items = q.items[1:]
	return p, true
}

// Len returns the number of buffered items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes all blocked consumers. Buffered items remain poppable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
