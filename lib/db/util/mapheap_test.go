package util

import (
	"container/heap"
	"testing"
)

type fieldRef struct {
	collection string
	field      string
}

func TestNewMapHeap(t *testing.T) {
	mh := NewMapHeap[uint64]()
	if mh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", mh.Len())
	}
	if _, ok := mh.Peek(); ok {
		t.Error("Peek() on an empty heap should return false")
	}
}

func TestMapHeapAddAndPeek(t *testing.T) {
	mh := NewMapHeap[uint64]()
	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 50)

	if mh.Len() != 3 {
		t.Fatalf("Heap should have 3 items, but has %d", mh.Len())
	}
	for _, k := range []uint64{1, 2, 3} {
		if !mh.Contains(k) {
			t.Errorf("Heap should contain key %d", k)
		}
	}

	it, ok := mh.Peek()
	if !ok || it.Key != 3 || it.Priority != 50 {
		t.Errorf("Expected min item (3,50), got %v", it)
	}
}

func TestMapHeapUpdatePriority(t *testing.T) {
	mh := NewMapHeap[uint64]()
	mh.AddItem(1, 100)
	mh.AddItem(2, 200)

	mh.AddItem(1, 300)
	if it, _ := mh.GetByKey(1); it.Priority != 300 {
		t.Errorf("Item 1 should have priority 300, got %d", it.Priority)
	}
	if min, _ := mh.Peek(); min.Key != 2 {
		t.Errorf("Min item should be key 2, got %d", min.Key)
	}

	mh.AddItem(2, 50)
	if min, _ := mh.Peek(); min.Key != 2 || min.Priority != 50 {
		t.Errorf("Min item should be (2,50), got %v", min)
	}
	if mh.Len() != 2 {
		t.Errorf("Updating must not add items, len = %d", mh.Len())
	}
}

func TestMapHeapRemoveByKey(t *testing.T) {
	mh := NewMapHeap[uint64]()
	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	prio, ok := mh.RemoveByKey(2)
	if !ok || prio != 200 {
		t.Fatalf("RemoveByKey(2) = (%d,%v), want (200,true)", prio, ok)
	}
	if mh.Contains(2) {
		t.Error("key 2 should be gone")
	}
	if _, ok := mh.RemoveByKey(42); ok {
		t.Error("RemoveByKey of an unknown key should return false")
	}
	if mh.Len() != 2 {
		t.Errorf("expected 2 items, got %d", mh.Len())
	}
}

func TestMapHeapPopOrder(t *testing.T) {
	mh := NewMapHeap[uint64]()
	priorities := map[uint64]uint64{1: 500, 2: 100, 3: 300, 4: 200, 5: 400}
	for k, p := range priorities {
		mh.AddItem(k, p)
	}

	var last uint64
	for mh.Len() > 0 {
		it := heap.Pop(mh).(*HeapItem[uint64])
		if it.Priority < last {
			t.Fatalf("items popped out of order: %d after %d", it.Priority, last)
		}
		last = it.Priority
	}
	if len(mh.itemsMap) != 0 {
		t.Errorf("map should be empty after popping everything, has %d", len(mh.itemsMap))
	}
}

func TestMapHeapStructKeys(t *testing.T) {
	mh := NewMapHeap[fieldRef]()
	a := fieldRef{"locks:US", "driver-1"}
	b := fieldRef{"locks:EU", "driver-1"}
	mh.AddItem(a, 10)
	mh.AddItem(b, 5)

	if min, _ := mh.Peek(); min.Key != b {
		t.Errorf("expected %v first, got %v", b, min.Key)
	}
	mh.RemoveByKey(b)
	if min, _ := mh.Peek(); min.Key != a {
		t.Errorf("expected %v after removal, got %v", a, min.Key)
	}
}
