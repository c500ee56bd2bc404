package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func generateRandomInteger(rng *rand.Rand, min int, max int) int {
	return min + rng.Intn(max-min)
}

func TestPriorityQueue(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pq := NewMinHeap[int32]()

	for i := 0; i < 10000; i++ {
		item := PriorityQueueNode[int32]{Rank: float64(generateRandomInteger(rng, 10, 10000)), Item: int32(i)}
		pq.Insert(item)

		if (i+1)%100 == 0 {
			item.Rank = float64(generateRandomInteger(rng, 0, int(item.Rank)))
			require.NoError(t, pq.DecreaseKey(item))
		}
	}

	prevItem, err := pq.ExtractMin()
	require.NoError(t, err)
	for i := 1; i < 10000; i++ {
		item, err := pq.ExtractMin()
		require.NoError(t, err)
		assert.False(t, item.less(prevItem), "heap is not sorted at %d", i)
		prevItem = item
	}

	_, err = pq.ExtractMin()
	assert.ErrorIs(t, err, ErrEmptyHeap)
}

func TestPriorityQueueTieBreak(t *testing.T) {
	pq := NewMinHeap[int64]()
	for _, id := range []int64{9, 3, 7, -2, 5} {
		pq.Insert(PriorityQueueNode[int64]{Rank: 1, Item: id})
	}

	order := make([]int64, 0, 5)
	for pq.Size() > 0 {
		n, err := pq.ExtractMin()
		require.NoError(t, err)
		order = append(order, n.Item)
	}
	assert.Equal(t, []int64{-2, 3, 5, 7, 9}, order)
}

func TestPriorityQueueInsertUpdatesQueuedItem(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 5, Item: 1})
	pq.Insert(PriorityQueueNode[int32]{Rank: 3, Item: 2})
	pq.Insert(PriorityQueueNode[int32]{Rank: 10, Item: 2})

	assert.Equal(t, 2, pq.Size())
	min, err := pq.GetMin()
	require.NoError(t, err)
	assert.Equal(t, int32(1), min.Item)

	got, ok := pq.GetItem(2)
	require.True(t, ok)
	assert.Equal(t, 10.0, got.Rank)

	assert.Error(t, pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 20, Item: 2}))
	assert.Error(t, pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 1, Item: 99}))
}
