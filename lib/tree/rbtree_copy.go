package tree

import (
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/benz9527/xrbmap/lib/infra"
)

// Clone copies the tree node by node, the shape and colors are kept.
// Values are copied by assignment.
func (tree *rbTree[K, V]) Clone() RBTree[K, V] {
	dst, err := tree.cloneWith(nil)
	if err != nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] clone without value copier failed")
	}
	return dst
}

// CloneFunc copies the tree and every value through fn.
// The first error of fn rolls the copy back, all partially built nodes
// are released and an empty tree is returned with the error.
func (tree *rbTree[K, V]) CloneFunc(fn func(key K, val V) (V, error)) (RBTree[K, V], error) {
	return tree.cloneWith(fn)
}

func (tree *rbTree[K, V]) cloneWith(fn func(key K, val V) (V, error)) (*rbTree[K, V], error) {
	dst := &rbTree[K, V]{
		less:   tree.less,
		isDesc: tree.isDesc,
		stats:  tree.stats,
	}
	if tree.root == nil {
		return dst, nil
	}

	newNode := func(src, parent *rbNode[K, V]) (*rbNode[K, V], error) {
		val := src.val
		if fn != nil {
			var err error
			if val, err = fn(src.key, src.val); err != nil {
				return nil, err
			}
		}
		dst.added()
		return &rbNode[K, V]{
			key:    src.key,
			val:    val,
			color:  src.color,
			parent: parent,
		}, nil
	}

	root, err := newNode(tree.root, nil)
	if err != nil {
		return dst, infra.WrapErrorStack(multierr.Combine(ErrRBTreeCloneRollback, err))
	}
	dst.root = root

	type pair struct {
		from, to *rbNode[K, V]
	}
	stack := make([]pair, 0, atomic.LoadInt64(&tree.count)>>1+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, pair{from: tree.root, to: root})

	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for s, child := range aux.from.links {
			if child == nil {
				continue
			}
			c, err := newNode(child, aux.to)
			if err != nil {
				dst.Release()
				return dst, infra.WrapErrorStack(multierr.Combine(ErrRBTreeCloneRollback, err))
			}
			aux.to.links[s] = c
			stack = append(stack, pair{from: child, to: c})
		}
	}
	return dst, nil
}

// Move transfers all nodes into a new tree. The source becomes empty and
// no node is touched.
func (tree *rbTree[K, V]) Move() RBTree[K, V] {
	dst := &rbTree[K, V]{
		root:   tree.root,
		less:   tree.less,
		isDesc: tree.isDesc,
		stats:  tree.stats,
		count:  atomic.SwapInt64(&tree.count, 0),
	}
	tree.root = nil
	return dst
}
