package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xrbmap/lib/infra"
)

// 2B(1B, 4R(3B, 6B(5R, 7R)))
func sevenNodesTree(t *testing.T) *rbTree[uint64, uint64] {
	t.Helper()
	tree := newRBTree[uint64, uint64](infra.OrderedLess[uint64]())
	for key := uint64(1); key <= 7; key++ {
		require.True(t, tree.Insert(key, key))
	}
	require.NoError(t, Validate[uint64, uint64](tree, nil))
	return tree
}

func TestRBTreeValidate(t *testing.T) {
	testcases := []struct {
		name    string
		corrupt func(tree *rbTree[uint64, uint64])
		valid   bool
		expects []error
		passes  []func(RBTree[uint64, uint64]) error
	}{
		{
			name:    "red root",
			corrupt: func(tree *rbTree[uint64, uint64]) { tree.root.color = Red },
			expects: []error{ErrRBTreeRedViolation},
		},
		{
			name: "red red pair",
			corrupt: func(tree *rbTree[uint64, uint64]) {
				tree.root.links[rightSide].links[rightSide].color = Red
			},
			expects: []error{ErrRBTreeRedViolation, ErrRBTreeBlackViolation},
		},
		{
			name: "black height mismatch",
			corrupt: func(tree *rbTree[uint64, uint64]) {
				tree.root.links[leftSide].color = Red
			},
			expects: []error{ErrRBTreeBlackViolation},
			passes: []func(RBTree[uint64, uint64]) error{
				RedViolationValidate[uint64, uint64],
				LinkViolationValidate[uint64, uint64],
			},
		},
		{
			name: "keys out of order",
			corrupt: func(tree *rbTree[uint64, uint64]) {
				n1, n3 := tree.root.links[leftSide], tree.root.links[rightSide].links[leftSide]
				n1.key, n3.key = n3.key, n1.key
			},
			valid:   true,
			expects: []error{ErrRBTreeOrderViolation},
			passes: []func(RBTree[uint64, uint64]) error{
				RedViolationValidate[uint64, uint64],
				BlackViolationValidate[uint64, uint64],
				LinkViolationValidate[uint64, uint64],
			},
		},
		{
			name: "broken parent link",
			corrupt: func(tree *rbTree[uint64, uint64]) {
				n5 := tree.root.links[rightSide].links[rightSide].links[leftSide]
				n5.parent = tree.root
			},
			valid:   true,
			expects: []error{ErrRBTreeLinkViolation},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := sevenNodesTree(tt)
			tc.corrupt(tree)
			require.Equal(tt, tc.valid, tree.IsValid())

			err := Validate[uint64, uint64](tree, nil)
			require.Error(tt, err)
			for _, expected := range tc.expects {
				require.True(tt, errors.Is(err, expected), "expects %v in %v", expected, err)
			}
			es, ok := infra.AsErrorStack(err)
			require.True(tt, ok)
			require.NotEmpty(tt, es.Frames())

			for _, validate := range tc.passes {
				require.NoError(tt, validate(tree))
			}
		})
	}
}

func TestRBTreeValidate_Empty(t *testing.T) {
	tree := NewRBTree[int, int]()
	require.True(t, tree.IsValid())
	require.NoError(t, RedViolationValidate(tree))
	require.NoError(t, BlackViolationValidate(tree))
	require.NoError(t, LinkViolationValidate(tree))
	require.NoError(t, OrderViolationValidate(tree, infra.OrderedLess[int]()))
	require.NoError(t, Validate(tree, nil))
}

func TestRBTreeValidate_ThreadSafe(t *testing.T) {
	tree := NewThreadSafeRBTree(NewRBTree[int, int](WithRBTreeDesc[int, int]()))
	for i := 0; i < 128; i++ {
		tree.Insert(i, i)
	}
	// The ordering is resolved through the delegator.
	require.NoError(t, Validate(tree, nil))
	require.Error(t, Validate(tree, infra.OrderedLess[int]()))
}
