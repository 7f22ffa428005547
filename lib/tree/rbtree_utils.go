package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xrbmap/lib/infra"
)

// invalidBlackHeight is never a real black height.
const invalidBlackHeight = -1

// IsValid reports whether the root is black and every subtree holds the
// red and black rules. Diagnostic only.
func (tree *rbTree[K, V]) IsValid() bool {
	if tree.root == nil {
		return true
	}
	if tree.root.color != Black {
		return false
	}
	return blackHeight(tree.root) != invalidBlackHeight
}

// blackHeight computes the black height bottom-up, a nil leaf counts 1.
// It short-circuits to invalidBlackHeight on the first red-red pair or
// black height mismatch.
func blackHeight[K any, V any](node *rbNode[K, V]) int {
	if node == nil {
		return 1
	}
	if node.isRed() && (node.links[leftSide].isRed() || node.links[rightSide].isRed()) {
		return invalidBlackHeight
	}
	h := blackHeight(node.links[rightSide])
	if h == invalidBlackHeight || h != blackHeight(node.links[leftSide]) {
		return invalidBlackHeight
	}
	if node.color == Black {
		h++
	}
	return h
}

func isRedNode[K any, V any](node RBNode[K, V]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K any, V any](target, to RBNode[K, V]) int {
	depth := 0
	for aux := target; aux != nil; aux = aux.Parent() {
		if aux.Color() == Black {
			depth++
		}
		if aux == to {
			break
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal to validate the rbtree red rule and the black root.
func RedViolationValidate[K any, V any](tree RBTree[K, V]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if aux.Color() != Black {
		return ErrRBTreeRedViolation
	}

	stack := make([]RBNode[K, V], 0, tree.Len()>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; isRedNode(aux) {
			if isRedNode(aux.Parent()) || isRedNode(aux.Left()) || isRedNode(aux.Right()) {
				return ErrRBTreeRedViolation
			}
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// BFS traversal to load all nodes owning at least one nil leaf.
func bfsLeaves[K any, V any](tree RBTree[K, V]) []RBNode[K, V] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K, V], 0, tree.Len()>>1+1)
	queue := make([]RBNode[K, V], 0, tree.Len()>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K any, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K, V](leaves[0], tree.Root())
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo[K, V](leaves[i], tree.Root()) != blackDepth {
			return ErrRBTreeBlackViolation
		}
	}
	return nil
}

// OrderViolationValidate checks the inorder keys are strictly increasing
// under less.
func OrderViolationValidate[K any, V any](tree RBTree[K, V], less infra.LessFunc[K]) error {
	var (
		prev    K
		hasPrev bool
		err     error
	)
	tree.Foreach(func(idx int64, color RBColor, key K, val V) bool {
		if hasPrev && !less(prev, key) {
			err = ErrRBTreeOrderViolation
			return false
		}
		prev, hasPrev = key, true
		return true
	})
	return err
}

// LinkViolationValidate checks every child points back to its parent.
func LinkViolationValidate[K any, V any](tree RBTree[K, V]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if aux.Parent() != nil {
		return ErrRBTreeLinkViolation
	}

	stack := make([]RBNode[K, V], 0, tree.Len()>>1+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)
	for len(stack) > 0 {
		aux = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range []RBNode[K, V]{aux.Left(), aux.Right()} {
			if child == nil {
				continue
			}
			if child.Parent() != aux {
				return ErrRBTreeLinkViolation
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// Validate runs all the validators and combines the violations.
// A nil less falls back to the ordering of the tree itself.
func Validate[K any, V any](tree RBTree[K, V], less infra.LessFunc[K]) error {
	if less == nil {
		less = lessOf(tree)
	}
	err := multierr.Combine(
		LinkViolationValidate(tree),
		RedViolationValidate(tree),
		BlackViolationValidate(tree),
	)
	if less != nil {
		err = multierr.Append(err, OrderViolationValidate(tree, less))
	}
	return infra.WrapErrorStackWithMessage(err, "[rbtree] invariant violation")
}

func lessOf[K any, V any](tree RBTree[K, V]) infra.LessFunc[K] {
	switch t := tree.(type) {
	case *rbTree[K, V]:
		return t.less
	case *rbTreeDelegator[K, V]:
		return lessOf(t.impl)
	default:
	}
	return nil
}
