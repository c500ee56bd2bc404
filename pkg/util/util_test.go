package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 12.35, RoundFloat(12.3456, 2))
	assert.Equal(t, 8.0, RoundFloat(8.0004, 2))
	assert.Equal(t, -1.5, RoundFloat(-1.49, 1))
}

func TestReverseG(t *testing.T) {
	arr := []int32{1, 2, 3, 4}
	assert.Equal(t, []int32{4, 3, 2, 1}, ReverseG(arr))
	assert.Equal(t, []int32{1, 2, 3, 4}, arr)
	assert.Empty(t, ReverseG([]string{}))
}
