package datastructure

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var ErrEmptyHeap = errors.New("heap is empty")

type PriorityQueueNode[T constraints.Integer] struct {
	Rank float64
	Item T
}

// less orders by rank, equal ranks by the lower item. Every search in this
// module relies on this rule for reproducible results.
func (n PriorityQueueNode[T]) less(o PriorityQueueNode[T]) bool {
	if n.Rank != o.Rank {
		return n.Rank < o.Rank
	}
	return n.Item < o.Item
}

// MinHeap is an indexed binary heap, each item appears at most once.
type MinHeap[T constraints.Integer] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T constraints.Integer]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].less(h.heap[h.parent(index)]) {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.heap[left].less(h.heap[smallest]) {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].less(h.heap[smallest]) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	return h.heap[0], nil
}

// Insert adds key, or updates its rank when the item is already queued.
func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	if idx, ok := h.pos[key.Item]; ok {
		old := h.heap[idx]
		h.heap[idx] = key
		if key.less(old) {
			h.heapifyUp(idx)
		} else {
			h.heapifyDown(idx)
		}
		return
	}
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.Item] = index
	h.heapifyUp(index)
}

func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if !h.isEmpty() {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey lowers the rank of a queued item.
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	idx, ok := h.pos[item.Item]
	if !ok || item.Rank > h.heap[idx].Rank {
		return errors.New("invalid index or new value")
	}
	h.heap[idx] = item
	h.heapifyUp(idx)
	return nil
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *MinHeap[T]) GetItem(item T) (PriorityQueueNode[T], bool) {
	idx, ok := h.pos[item]
	if !ok {
		return PriorityQueueNode[T]{}, false
	}
	return h.heap[idx], true
}
