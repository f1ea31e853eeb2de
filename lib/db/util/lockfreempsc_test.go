package util

import (
	"sync"
	"testing"
	"time"
)

func recvWithTimeout[T any](t *testing.T, q *LockFreeMPSC[T], d time.Duration) *T {
	t.Helper()
	select {
	case v := <-q.Recv():
		return v
	case <-time.After(d):
		t.Fatalf("timeout waiting for item")
		return nil
	}
}

func TestMPSCPushAndReceive(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		if !q.Push(&i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}
	for i := 0; i < 10; i++ {
		if v := recvWithTimeout(t, q, 100*time.Millisecond); *v != i {
			t.Errorf("Expected %d, got %d", i, *v)
		}
	}

	select {
	case v := <-q.Recv():
		t.Errorf("Queue should be empty, got %v", *v)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestMPSCRejectsNil(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()
	if q.Push(nil) {
		t.Error("nil values must be rejected")
	}
}

func TestMPSCConcurrentProducers(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := base*perProducer + i
				q.Push(&v)
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProducer)
	lastPerProducer := make(map[int]int)
	for len(seen) < producers*perProducer {
		v := *recvWithTimeout(t, q, 2*time.Second)
		if seen[v] {
			t.Fatalf("duplicate item %d", v)
		}
		seen[v] = true

		// items of one producer keep their order
		p := v / perProducer
		if last, ok := lastPerProducer[p]; ok && v < last {
			t.Fatalf("producer %d: %d delivered after %d", p, v, last)
		}
		lastPerProducer[p] = v
	}
	wg.Wait()
}

func TestMPSCClose(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	for i := 0; i < 5; i++ {
		q.Push(&i)
	}
	q.Close()

	if !q.IsClosed() {
		t.Error("IsClosed should report true")
	}
	v := 100
	if q.Push(&v) {
		t.Error("Should not be able to push after queue is closed")
	}

	for i := 0; i < 5; i++ {
		if got := recvWithTimeout(t, q, 100*time.Millisecond); *got != i {
			t.Errorf("Expected %d, got %d", i, *got)
		}
	}

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("channel should be closed after draining")
		}
	case <-time.After(time.Second):
		t.Error("channel was not closed")
	}
}

func TestMPSCSlowConsumerNoLostWakeups(t *testing.T) {
	q := NewLockFreeMPSC[int]()
	defer q.Close()

	// alternate between an idle consumer and single pushes
	for i := 0; i < 200; i++ {
		q.Push(&i)
		if got := recvWithTimeout(t, q, time.Second); *got != i {
			t.Fatalf("Expected %d, got %d", i, *got)
		}
	}
}
