package tree

// search descends from the root and returns the last node on the search
// path, the node holding key or the node the key would be attached to.
// Callers must re-check the equality. Only an empty tree returns nil.
func (tree *rbTree[K, V]) search(key K) *rbNode[K, V] {
	var y *rbNode[K, V]
	for x := tree.root; x != nil; {
		y = x
		if tree.less(key, x.key) {
			x = x.links[leftSide]
		} else if tree.less(x.key, key) {
			x = x.links[rightSide]
		} else {
			break
		}
	}
	return y
}

// lookup returns the node holding key or nil.
func (tree *rbTree[K, V]) lookup(key K) *rbNode[K, V] {
	if y := tree.search(key); y != nil && tree.equal(key, y.key) {
		return y
	}
	return nil
}

func (tree *rbTree[K, V]) Count(key K) int {
	if tree.lookup(key) != nil {
		return 1
	}
	return 0
}

func (tree *rbTree[K, V]) At(key K) (V, error) {
	if z := tree.lookup(key); z != nil {
		return z.val, nil
	}
	var zero V
	return zero, ErrRBTreeKeyNotFound
}

func (tree *rbTree[K, V]) Get(key K) (V, bool) {
	if z := tree.lookup(key); z != nil {
		return z.val, true
	}
	var zero V
	return zero, false
}

// Index is the default inserting access. The returned address stays
// valid until the entry is removed.
func (tree *rbTree[K, V]) Index(key K) *V {
	var zero V
	z, _ := tree.insert(key, zero)
	return &z.val
}

// LowerBound returns the iterator at the first entry whose key is not
// less than key, or End.
func (tree *rbTree[K, V]) LowerBound(key K) Iterator[K, V] {
	y := tree.search(key)
	if y != nil && tree.less(y.key, key) {
		y = y.succ()
	}
	return Iterator[K, V]{tree: tree, node: y}
}
