package internal

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailbox(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox[int]()

	_, ok := mb.TryRecv()
	assert.False(ok)

	for n := range 100 {
		mb.Send(n)
	}
	assert.Equal(100, mb.Len())

	for n := range 100 {
		msg, ok := mb.TryRecv()
		assert.True(ok)
		assert.Equal(n, msg)
	}

	mb.Send(7)
	mb.Clear()
	assert.Equal(0, mb.Len())
}

func TestConcat(t *testing.T) {
	assert := assert.New(t)

	seq := Concat(slices.Values([]int{1, 2}), slices.Values([]int{}), slices.Values([]int{3}))
	assert.Equal([]int{1, 2, 3}, slices.Collect(seq))

	flat := Flatten(slices.Values([][]string{{"a"}, nil, {"b", "c"}}))
	assert.Equal([]string{"a", "b", "c"}, slices.Collect(flat))
}
