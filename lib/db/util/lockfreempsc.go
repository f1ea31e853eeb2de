// Package util provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// Producers append to a linked list with CAS operations only. A single consumer
// goroutine moves the values to a channel, so the queue can be used in select
// statements. The queue is unbounded. Values pushed by one producer are delivered
// in the order they were pushed; values of concurrent producers interleave.
//
// The queue is used for the gc events of the maple engine and as the
// replication log between a master and its replica.
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is a lock-free multi-producer single-consumer queue
type LockFreeMPSC[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan *T
	closed atomic.Bool

	// wakes the consumer, see wake()
	mu   sync.Mutex
	cond *sync.Cond
}

// NewLockFreeMPSC creates the queue and starts its consumer goroutine
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	sentinel := &node[T]{}
	q := &LockFreeMPSC[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.consume()
	return q
}

// Push adds an item to the queue.
// Returns false if the value is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	n := &node[T]{value: value}
	var backoff uint8

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				// another producer may already have moved the tail, that is fine
				q.tail.CompareAndSwap(tail, n)
				q.wake()
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tail, next)
		}

		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the consumer. The signal is sent while holding the mutex so it can
// not fall between the consumer's emptiness check and its Wait.
func (q *LockFreeMPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// consume moves values from the linked list to the output channel
func (q *LockFreeMPSC[T]) consume() {
	defer close(q.out)

	for {
		drained := false
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			drained = true
			value := next.value
			q.head.Store(next)
			q.out <- value
			next.value = nil
		}

		if !drained && q.closed.Load() {
			return
		}

		if !drained {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns the channel the consumer reads from.
// The channel is closed after Close once all pending items were delivered.
func (q *LockFreeMPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close prevents further pushes. Items already queued are still delivered.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of undelivered items. This is O(n), use it for
// debugging and tests only.
func (q *LockFreeMPSC[T]) Len() int {
	count := 0
	for cur := q.head.Load().next.Load(); cur != nil; cur = cur.next.Load() {
		count++
	}
	return count
}
