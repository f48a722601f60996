package fifoqueue

import (
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/atomic"
)

// FIFOQueue is a synchronized FIFO queue. It is unbounded unless created with capacity,
// in which case the oldest elements are dropped to make room for new ones, so
// the writer is never blocked by a slow reader
type FIFOQueue[T any] struct {
	d         *deque.Deque[T]
	mutex     sync.Mutex
	cond      *sync.Cond
	capacity  int
	closing   bool
	closedNow bool
	dropped   atomic.Uint64
}

// New creates queue. Optional capacity > 0 bounds number of buffered elements
func New[T any](capacity ...int) *FIFOQueue[T] {
	ret := &FIFOQueue[T]{
		d: new(deque.Deque[T]),
	}
	ret.cond = sync.NewCond(&ret.mutex)
	if len(capacity) > 0 && capacity[0] > 0 {
		ret.capacity = capacity[0]
	}
	return ret
}

// Write pushes element. Panics if the queue is closed
func (q *FIFOQueue[T]) Write(elem T) {
	if !q.TryWrite(elem) {
		panic("attempt to write to the closed FIFOQueue")
	}
}

// TryWrite pushes element unless the queue is closed
func (q *FIFOQueue[T]) TryWrite(elem T) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closing {
		return false
	}
	q.d.PushBack(elem)
	if q.capacity > 0 && q.d.Len() > q.capacity {
		q.d.PopFront()
		q.dropped.Inc()
	}
	q.cond.Signal()
	return true
}

// CloseNow closes the queue immediately. Buffered elements are not read anymore
func (q *FIFOQueue[T]) CloseNow() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.closing = true
	q.closedNow = true
	q.cond.Broadcast()
}

// Close closes the queue after all buffered elements are read
func (q *FIFOQueue[T]) Close() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.closing = true
	q.cond.Broadcast()
}

// read blocks until there is an element or the queue is closed
func (q *FIFOQueue[T]) read() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for q.d.Len() == 0 && !q.closing {
		q.cond.Wait()
	}
	if q.closedNow || q.d.Len() == 0 {
		var nothing T
		return nothing, false
	}
	return q.d.PopFront(), true
}

// Consume calls fun for each element until the queue is closed
func (q *FIFOQueue[T]) Consume(fun func(elem T)) {
	for {
		e, ok := q.read()
		if !ok {
			return
		}
		fun(e)
	}
}

// Len returns number of buffered elements. Non-deterministic
func (q *FIFOQueue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.d.Len()
}

// Dropped returns number of elements dropped because of the capacity
func (q *FIFOQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
