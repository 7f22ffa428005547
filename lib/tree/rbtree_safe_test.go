package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadSafeRBTree_ConcurrentInsert(t *testing.T) {
	tree := NewThreadSafeRBTree(NewRBTree[int, int]())
	require.Same(t, tree, NewThreadSafeRBTree(tree))
	require.Nil(t, NewThreadSafeRBTree[int, int](nil))

	const (
		writers = 8
		span    = 500
	)
	wg := sync.WaitGroup{}
	wg.Add(writers * 2)
	for w := 0; w < writers; w++ {
		go func(base int) {
			defer wg.Done()
			for i := base; i < base+span; i++ {
				tree.Insert(i, i*2)
			}
		}(w * span)
		go func(base int) {
			defer wg.Done()
			for i := base; i < base+span; i++ {
				if v, ok := tree.Get(i); ok {
					assert.Equal(t, i*2, v)
				}
				_ = tree.Len()
			}
		}(w * span)
	}
	wg.Wait()

	require.Equal(t, int64(writers*span), tree.Len())
	require.True(t, tree.IsValid())
	require.NoError(t, Validate(tree, nil))

	count := 0
	for k, v := range tree.All() {
		require.Equal(t, count, k)
		require.Equal(t, k*2, v)
		count++
	}
	require.Equal(t, writers*span, count)
}

func TestThreadSafeRBTree_ConcurrentErase(t *testing.T) {
	tree := NewThreadSafeRBTree(NewRBTree[int, int]())
	for i := 0; i < 4000; i++ {
		tree.Insert(i, i)
	}
	wg := sync.WaitGroup{}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(rem int) {
			defer wg.Done()
			for i := rem; i < 4000; i += 4 {
				if rem == 3 {
					continue
				}
				assert.True(t, tree.Erase(i))
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, int64(1000), tree.Len())
	require.NoError(t, Validate(tree, nil))
	tree.Foreach(func(idx int64, color RBColor, key int, val int) bool {
		require.Equal(t, int(idx)*4+3, key)
		return true
	})
}

func TestThreadSafeRBTree_CopyAndMove(t *testing.T) {
	tree := NewThreadSafeRBTree(NewRBTree[int, int]())
	for i := 0; i < 32; i++ {
		tree.Insert(i, i)
	}

	clone := tree.Clone()
	_, ok := clone.(*rbTreeDelegator[int, int])
	require.True(t, ok)
	require.Equal(t, tree.Len(), clone.Len())

	moved := tree.Move()
	_, ok = moved.(*rbTreeDelegator[int, int])
	require.True(t, ok)
	require.Equal(t, int64(0), tree.Len())
	require.Equal(t, int64(32), moved.Len())

	*moved.Index(100) = 1
	require.Equal(t, 1, moved.Count(100))
	require.Equal(t, 100, moved.End().Prev().Key())
	moved.Release()
	require.Equal(t, int64(0), moved.Len())
	require.Equal(t, int64(32), clone.Len())
}
