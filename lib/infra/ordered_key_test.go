package infra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedLess(t *testing.T) {
	less := OrderedLess[int]()
	assert.True(t, less(1, 2))
	assert.False(t, less(2, 1))
	assert.False(t, less(2, 2))
	assert.True(t, less.Equal(2, 2))

	desc := less.Reverse()
	assert.True(t, desc(2, 1))
	assert.False(t, desc(1, 2))
}

func TestLessFromComparator(t *testing.T) {
	require.Nil(t, LessFromComparator[string](nil))

	less := LessFromComparator[string](func(i, j string) int64 {
		return int64(strings.Compare(strings.ToLower(i), strings.ToLower(j)))
	})
	assert.True(t, less("abc", "ABD"))
	assert.True(t, less.Equal("rbtree", "RBTree"))
	assert.False(t, less.Equal("a", "b"))
}
