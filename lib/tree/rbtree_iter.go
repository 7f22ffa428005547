package tree

import (
	"fmt"
	"io"
	"iter"
	"sync/atomic"
)

// Iterator is a bidirectional cursor over the sorted entries.
// The zero node is the End sentinel.
type Iterator[K any, V any] struct {
	tree *rbTree[K, V]
	node *rbNode[K, V]
}

func (it Iterator[K, V]) Valid() bool {
	return it.node != nil
}

func (it Iterator[K, V]) Key() K {
	if it.node == nil {
		panic("[rbtree] dereference the end iterator")
	}
	return it.node.key
}

func (it Iterator[K, V]) Val() V {
	if it.node == nil {
		panic("[rbtree] dereference the end iterator")
	}
	return it.node.val
}

// SetVal replaces the value in place, the key is immutable.
func (it Iterator[K, V]) SetVal(val V) {
	if it.node == nil {
		panic("[rbtree] dereference the end iterator")
	}
	it.node.val = val
}

// Next of the last entry is End, Next of End is End.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.node == nil {
		return it
	}
	return Iterator[K, V]{tree: it.tree, node: it.node.succ()}
}

// Prev of End is the last entry, Prev of the first entry is End.
func (it Iterator[K, V]) Prev() Iterator[K, V] {
	if it.node == nil {
		if it.tree == nil {
			return it
		}
		return Iterator[K, V]{tree: it.tree, node: it.tree.root.maximum()}
	}
	return Iterator[K, V]{tree: it.tree, node: it.node.pred()}
}

func (it Iterator[K, V]) Equal(that Iterator[K, V]) bool {
	return it.node == that.node
}

func (tree *rbTree[K, V]) Begin() Iterator[K, V] {
	return Iterator[K, V]{tree: tree, node: tree.root.minimum()}
}

func (tree *rbTree[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{tree: tree}
}

// All yields the entries in ascending order. The sequence is lazy and
// restartable, mutating the tree during the range is not supported.
func (tree *rbTree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for x := tree.root.minimum(); x != nil; x = x.succ() {
			if !yield(x.key, x.val) {
				return
			}
		}
	}
}

// Inorder traversal by the parent links.
func (tree *rbTree[K, V]) Foreach(action func(idx int64, color RBColor, key K, val V) bool) {
	idx := int64(0)
	for x := tree.root.minimum(); x != nil; x = x.succ() {
		if !action(idx, x.color, x.key, x.val) {
			return
		}
		idx++
	}
}

// LevelOrder writes the keys in BFS order separated by a single space.
// Only for diagnostics.
func (tree *rbTree[K, V]) LevelOrder(w io.Writer) error {
	if tree.root == nil {
		return nil
	}

	queue := make([]*rbNode[K, V], 0, atomic.LoadInt64(&tree.count)>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, tree.root)

	for i := 0; len(queue) > 0; i++ {
		aux := queue[0]
		queue = queue[1:]
		sep := " "
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s%v", sep, aux.key); err != nil {
			return err
		}
		for _, child := range aux.links {
			if child != nil {
				queue = append(queue, child)
			}
		}
	}
	return nil
}

// Release tears down the tree. Every node is unlinked exactly once by an
// explicit stack, so degenerated inputs never recurse.
func (tree *rbTree[K, V]) Release() {
	size := atomic.LoadInt64(&tree.count)
	aux := tree.root
	tree.root = nil
	if size <= 0 || aux == nil {
		atomic.StoreInt64(&tree.count, 0)
		return
	}

	stack := make([]*rbNode[K, V], 0, size>>1+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	for len(stack) > 0 {
		aux = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range aux.links {
			if child != nil {
				stack = append(stack, child)
			}
		}
		aux.parent = nil
		aux.links = [2]*rbNode[K, V]{}
		atomic.AddInt64(&tree.count, -1)
	}
	tree.stats.recordRelease(size)
}
