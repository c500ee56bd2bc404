package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("no path")
	err := WrapErrorf(orig, ErrNotFound, "route from %d to %d", 1, 2)

	assert.ErrorIs(t, err, orig)
	assert.Equal(t, "route from 1 to 2: no path", err.Error())
	assert.Equal(t, ErrNotFound, CodeOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, ErrNotFound, CodeOf(wrapped))

	assert.Equal(t, ErrInternalServerError, CodeOf(errors.New("plain")))
}
