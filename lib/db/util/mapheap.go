// Package util
//
// This file provides a keyed priority queue used by the garbage collectors.
//
// The queue combines a binary min-heap with a map from key to heap slot, so
// entries can be found, re-prioritized and removed by key in O(log n) while the
// entry with the lowest priority is always available in O(1).
//
// The queue is not thread-safe. In the maple engine every heap is owned by the
// gc goroutine of exactly one shard.
//
// Example usage:
//
//	gcQueue := NewMapHeap[string]()
//	gcQueue.AddItem("drivers:US/d1", 42)
//	if next, ok := gcQueue.Peek(); ok && next.Priority <= writeIdx {
//	    gcQueue.RemoveByKey(next.Key)
//	}
package util

import (
	"container/heap"
	"fmt"
)

// HeapItem is an entry of the MapHeap
type HeapItem[K comparable] struct {
	Key      K
	Priority uint64
	index    int
}

func (i *HeapItem[K]) String() string {
	return fmt.Sprintf("(%v,%d)", i.Key, i.Priority)
}

// MapHeap is a min-heap on Priority with key based access
type MapHeap[K comparable] struct {
	items    []*HeapItem[K]
	itemsMap map[K]*HeapItem[K]
}

// NewMapHeap creates an empty heap that is ready to use
func NewMapHeap[K comparable]() *MapHeap[K] {
	return &MapHeap[K]{
		items:    make([]*HeapItem[K], 0),
		itemsMap: make(map[K]*HeapItem[K]),
	}
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

func (h *MapHeap[K]) Len() int { return len(h.items) }

func (h *MapHeap[K]) Less(i, j int) bool {
	return h.items[i].Priority < h.items[j].Priority
}

func (h *MapHeap[K]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *MapHeap[K]) Push(x interface{}) {
	it := x.(*HeapItem[K])
	it.index = len(h.items)
	h.items = append(h.items, it)
	h.itemsMap[it.Key] = it
}

func (h *MapHeap[K]) Pop() interface{} {
	n := len(h.items)
	it := h.items[n-1]
	h.items[n-1] = nil
	it.index = -1
	h.items = h.items[:n-1]
	delete(h.itemsMap, it.Key)
	return it
}

// --------------------------------------------------------------------------
// Keyed access
// --------------------------------------------------------------------------

// AddItem adds a new item or moves an existing one to the new priority
func (h *MapHeap[K]) AddItem(key K, priority uint64) {
	if it, exists := h.itemsMap[key]; exists {
		it.Priority = priority
		heap.Fix(h, it.index)
		return
	}
	heap.Push(h, &HeapItem[K]{Key: key, Priority: priority})
}

// RemoveByKey removes an item and returns its priority
func (h *MapHeap[K]) RemoveByKey(key K) (uint64, bool) {
	it, exists := h.itemsMap[key]
	if !exists {
		return 0, false
	}
	heap.Remove(h, it.index)
	return it.Priority, true
}

// Peek returns the item with the lowest priority without removing it
func (h *MapHeap[K]) Peek() (*HeapItem[K], bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// Contains checks if a key is queued
func (h *MapHeap[K]) Contains(key K) bool {
	_, exists := h.itemsMap[key]
	return exists
}

// GetByKey returns the queued item for the key
func (h *MapHeap[K]) GetByKey(key K) (*HeapItem[K], bool) {
	it, exists := h.itemsMap[key]
	return it, exists
}
