package tree

import (
	"io"
	"iter"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

type RBNode[K any, V any] interface {
	Key() K
	Val() V
	Color() RBColor
	Direction() RBDirection
	Left() RBNode[K, V]
	Right() RBNode[K, V]
	Parent() RBNode[K, V]
}

// RBTree is an ordered map without duplicate keys.
// It is not thread safe. See NewThreadSafeRBTree.
//
// Iterator invalidation:
// Insert and Index never invalidate an iterator, the nodes are never
// moved or swapped in place.
// Erase, Remove and RemoveMin only invalidate the iterators positioned
// at the removed entry.
// Move and Release invalidate all iterators of the source tree.
type RBTree[K any, V any] interface {
	Len() int64
	Root() RBNode[K, V]

	// Insert returns false and keeps the stored value if key is present.
	Insert(key K, val V) bool
	// Erase returns false if key is absent.
	Erase(key K) bool
	Remove(key K) (RBNode[K, V], error)
	RemoveMin() (RBNode[K, V], error)

	// At is the checked lookup, ErrRBTreeKeyNotFound if key is absent.
	At(key K) (V, error)
	Get(key K) (V, bool)
	// Index returns the address of the stored value, a zero value entry
	// is inserted if key is absent.
	Index(key K) *V
	Count(key K) int
	LowerBound(key K) Iterator[K, V]

	Begin() Iterator[K, V]
	End() Iterator[K, V]
	All() iter.Seq2[K, V]
	Foreach(action func(idx int64, color RBColor, key K, val V) bool)
	LevelOrder(w io.Writer) error

	IsValid() bool

	Clone() RBTree[K, V]
	CloneFunc(fn func(key K, val V) (V, error)) (RBTree[K, V], error)
	Move() RBTree[K, V]
	Release()
}
