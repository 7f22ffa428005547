package tree

import (
	"io"
	"iter"
	"sync"
)

var (
	_ RBTree[uint8, struct{}] = (*rbTreeDelegator[uint8, struct{}])(nil)
)

// rbTreeDelegator serializes the access to a tree by a single RWMutex.
// The iterators and sequences it hands out are not guarded.
type rbTreeDelegator[K any, V any] struct {
	rwmu *sync.RWMutex
	impl RBTree[K, V]
}

func (d *rbTreeDelegator[K, V]) Len() int64 {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.Len()
}

func (d *rbTreeDelegator[K, V]) Root() RBNode[K, V] {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.Root()
}

func (d *rbTreeDelegator[K, V]) Insert(key K, val V) bool {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return d.impl.Insert(key, val)
}

func (d *rbTreeDelegator[K, V]) Erase(key K) bool {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return d.impl.Erase(key)
}

func (d *rbTreeDelegator[K, V]) Remove(key K) (RBNode[K, V], error) {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return d.impl.Remove(key)
}

func (d *rbTreeDelegator[K, V]) RemoveMin() (RBNode[K, V], error) {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return d.impl.RemoveMin()
}

func (d *rbTreeDelegator[K, V]) At(key K) (V, error) {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.At(key)
}

func (d *rbTreeDelegator[K, V]) Get(key K) (V, bool) {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.Get(key)
}

// Index writes through the returned address are not guarded.
func (d *rbTreeDelegator[K, V]) Index(key K) *V {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return d.impl.Index(key)
}

func (d *rbTreeDelegator[K, V]) Count(key K) int {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.Count(key)
}

func (d *rbTreeDelegator[K, V]) LowerBound(key K) Iterator[K, V] {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.LowerBound(key)
}

func (d *rbTreeDelegator[K, V]) Begin() Iterator[K, V] {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.Begin()
}

func (d *rbTreeDelegator[K, V]) End() Iterator[K, V] {
	return d.impl.End()
}

// All holds the read lock for the whole range.
func (d *rbTreeDelegator[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		d.rwmu.RLock()
		defer d.rwmu.RUnlock()
		d.impl.All()(yield)
	}
}

func (d *rbTreeDelegator[K, V]) Foreach(action func(idx int64, color RBColor, key K, val V) bool) {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	d.impl.Foreach(action)
}

func (d *rbTreeDelegator[K, V]) LevelOrder(w io.Writer) error {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.LevelOrder(w)
}

func (d *rbTreeDelegator[K, V]) IsValid() bool {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return d.impl.IsValid()
}

func (d *rbTreeDelegator[K, V]) Clone() RBTree[K, V] {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	return NewThreadSafeRBTree(d.impl.Clone())
}

func (d *rbTreeDelegator[K, V]) CloneFunc(fn func(key K, val V) (V, error)) (RBTree[K, V], error) {
	d.rwmu.RLock()
	defer d.rwmu.RUnlock()
	clone, err := d.impl.CloneFunc(fn)
	return NewThreadSafeRBTree(clone), err
}

func (d *rbTreeDelegator[K, V]) Move() RBTree[K, V] {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	return NewThreadSafeRBTree(d.impl.Move())
}

func (d *rbTreeDelegator[K, V]) Release() {
	d.rwmu.Lock()
	defer d.rwmu.Unlock()
	d.impl.Release()
}

// NewThreadSafeRBTree guards tree by one exclusive lock for writers and a
// shared lock for readers.
func NewThreadSafeRBTree[K any, V any](tree RBTree[K, V]) RBTree[K, V] {
	if tree == nil {
		return nil
	}
	if d, ok := tree.(*rbTreeDelegator[K, V]); ok {
		return d
	}
	return &rbTreeDelegator[K, V]{
		rwmu: &sync.RWMutex{},
		impl: tree,
	}
}
