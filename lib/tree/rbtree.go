package tree

import (
	"errors"
	"sync/atomic"

	"github.com/benz9527/xrbmap/lib/infra"
)

var (
	ErrRBTreeKeyNotFound    = errors.New("[rbtree] key not found")
	ErrRBTreeEmpty          = errors.New("[rbtree] empty element to remove")
	ErrRBTreeRedViolation   = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation = errors.New("[rbtree] black violation")
	ErrRBTreeOrderViolation = errors.New("[rbtree] order violation")
	ErrRBTreeLinkViolation  = errors.New("[rbtree] parent link violation")
	ErrRBTreeCloneRollback  = errors.New("[rbtree] clone rolled back")
)

var _ RBTree[int, struct{}] = (*rbTree[int, struct{}])(nil)

type rbTree[K any, V any] struct {
	root   *rbNode[K, V]
	less   infra.LessFunc[K]
	stats  *rbTreeStats
	count  int64
	isDesc bool
}

func (tree *rbTree[K, V]) equal(k1, k2 K) bool {
	return !tree.less(k1, k2) && !tree.less(k2, k1)
}

func (tree *rbTree[K, V]) Len() int64 {
	return atomic.LoadInt64(&tree.count)
}

func (tree *rbTree[K, V]) Root() RBNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.

/*
rotate(X, left) lifts X's right child S, rotate(X, right) is the mirror.

		 |                         |
		 X                         S
		/ \    rotate(X, left)    / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K, V]) rotate(x *rbNode[K, V], dir rbSide) *rbNode[K, V] {
	y := x.links[dir.opposite()]
	if y == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate node x without the child to lift")
	}

	mid := y.links[dir]
	x.links[dir.opposite()] = mid
	if mid != nil {
		mid.parent = x
	}
	tree.transplant(x, y)
	y.links[dir] = x
	x.parent = y
	tree.stats.recordRotation()
	return y
}

// transplant puts the subtree rooted at v into u's slot of u's parent,
// or the root slot. u's own links are untouched.
func (tree *rbTree[K, V]) transplant(u, v *rbNode[K, V]) {
	p := u.parent
	if p == nil {
		tree.root = v
	} else {
		p.links[u.side()] = v
	}
	if v != nil {
		v.parent = p
	}
}

// i1: Empty rbtree, insert directly, the root node is painted to black.
func (tree *rbTree[K, V]) Insert(key K, val V) bool {
	_, inserted := tree.insert(key, val)
	return inserted
}

func (tree *rbTree[K, V]) insert(key K, val V) (*rbNode[K, V], bool) {
	y := tree.search(key)
	if /* i1 */ y == nil {
		tree.root = &rbNode[K, V]{
			key:   key,
			val:   val,
			color: Black,
		}
		tree.added()
		return tree.root, true
	}

	if /* duplicate */ tree.equal(key, y.key) {
		return y, false
	}

	z := &rbNode[K, V]{
		key:    key,
		val:    val,
		color:  Red,
		parent: y,
	}
	if tree.less(key, y.key) {
		y.links[leftSide] = z
	} else {
		y.links[rightSide] = z
	}
	tree.added()
	tree.insertRebalance(z)
	return z, true
}

func (tree *rbTree[K, V]) added() {
	atomic.AddInt64(&tree.count, 1)
	tree.stats.recordInsert()
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

The loop runs while the parent P is red, so P is not the root and the
grandpa G exists and is black.

im1 (uncle U is red): repaint P and U into black, G into red.
G may be red-violation now, recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im2 (uncle U is black, X is the inner grandchild): rotate P to the side
of P, X becomes the outer grandchild, enter im3.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im3 (uncle U is black, X is the outer grandchild): repaint P into black,
G into red, rotate G away from P. Done.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K, V]) insertRebalance(x *rbNode[K, V]) {
	for x.parent.isRed() {
		p := x.parent
		g := p.parent
		ps := p.side()
		u := g.links[ps.opposite()]

		if /* im1 */ u.isRed() {
			p.color = Black
			u.color = Black
			g.color = Red
			x = g
			continue
		}

		if /* im2 */ x.side() != ps {
			tree.rotate(p, ps)
			x, p = p, x
		}

		/* im3 */
		p.color = Black
		g.color = Red
		tree.rotate(g, ps.opposite())
		break
	}
	tree.root.color = Black
}

func (tree *rbTree[K, V]) Erase(key K) bool {
	z := tree.lookup(key)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	return true
}

func (tree *rbTree[K, V]) Remove(key K) (RBNode[K, V], error) {
	if atomic.LoadInt64(&tree.count) <= 0 {
		return nil, ErrRBTreeEmpty
	}
	z := tree.lookup(key)
	if z == nil {
		return nil, ErrRBTreeKeyNotFound
	}
	tree.removeNode(z)
	return z, nil
}

func (tree *rbTree[K, V]) RemoveMin() (RBNode[K, V], error) {
	if atomic.LoadInt64(&tree.count) <= 0 {
		return nil, ErrRBTreeEmpty
	}
	_min := tree.root.minimum()
	tree.removeNode(_min)
	return _min, nil
}

/*
r1: Z has at most one child C (C may be NIL). Splice C into Z's slot.
The defect, if any, sits at Z's old slot.

r2: Z has two children. The succ S = minimum(Z.right) has no left child.
S is relinked into Z's slot and takes Z's color. S's right child is
spliced up into S's old slot. The color actually removed from the tree
is S's original color, the defect sits at S's old slot.

	  |                    |
	  Z                    S
	 / \                  / \
	L   R   relink(S)    L   R
	   / \  =========>      / \
	  S  ..               Sr  ..
	   \
	   Sr

Nodes are relinked rather than swapping key and value, so iterators on
every surviving node stay valid.
*/
func (tree *rbTree[K, V]) removeNode(z *rbNode[K, V]) {
	var (
		erasedColor = z.color
		parent      *rbNode[K, V] // parent of the defect slot
		side        rbSide        // the defect slot is parent.links[side]
	)

	if /* r1 */ z.links[leftSide] == nil || z.links[rightSide] == nil {
		c := z.links[leftSide]
		if c == nil {
			c = z.links[rightSide]
		}
		if parent = z.parent; parent != nil {
			side = z.side()
		}
		tree.transplant(z, c)
	} else /* r2 */ {
		s := z.links[rightSide].minimum()
		erasedColor = s.color
		if s.parent == z {
			parent, side = s, rightSide
		} else {
			parent, side = s.parent, leftSide
			tree.transplant(s, s.links[rightSide])
			s.links[rightSide] = z.links[rightSide]
			s.links[rightSide].parent = s
		}
		tree.transplant(z, s)
		s.links[leftSide] = z.links[leftSide]
		s.links[leftSide].parent = s
		s.color = z.color
	}

	// Unlink node
	z.parent = nil
	z.links = [2]*rbNode[K, V]{}
	atomic.AddInt64(&tree.count, -1)
	tree.stats.recordErase()

	if erasedColor == Black {
		tree.removeRebalance(parent, side)
	}
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X is the doubly black carrier at P.links[side], it may be NIL.
S is X's sibling. Sc is S's child at the same side as X (near),
Sd is S's child at the opposite side (far).

rm1: S is red, so P, Sc and Sd must be black.
Repaint S into black, P into red, rotate P toward X. Enter rm2-rm4 with
the new sibling.

	  [P]                   <S>               [S]
	  / \    rotate(P)      / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd] ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: S, Sc and Sd are black. Repaint S into red, the defect moves up to P.
A red P is painted black when the loop exits.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: S is black, Sc is red and Sd is black.
Repaint Sc into black, S into red, rotate S away from X. Enter rm4.

	  {P}                   {P}
	  / \    rotate(S)      / \
	[X] [S]  ==========>  [X] [Sc]
	    / \                     \
	  <Sc> [Sd]                 <S>
	                              \
	                              [Sd]

rm4: S is black and Sd is red.
S takes P's color, P and Sd are repainted into black, rotate P toward X.
Done.

	  {P}                   {S}
	  / \    rotate(P)      / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 {Sc} <Sd>          [X] {Sc}
*/
func (tree *rbTree[K, V]) removeRebalance(parent *rbNode[K, V], side rbSide) {
	x := tree.root
	if parent != nil {
		x = parent.links[side]
	}

	for parent != nil && x.isBlack() {
		s := parent.links[side.opposite()]
		if s == nil {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] doubly black node without sibling")
		}

		if /* rm1 */ s.isRed() {
			s.color = Black
			parent.color = Red
			tree.rotate(parent, side)
			s = parent.links[side.opposite()]
		}

		if /* rm2 */ s.links[leftSide].isBlack() && s.links[rightSide].isBlack() {
			s.color = Red
			x = parent
			if parent = x.parent; parent != nil {
				side = x.side()
			}
			continue
		}

		if /* rm3 */ s.links[side.opposite()].isBlack() {
			s.links[side].color = Black
			s.color = Red
			tree.rotate(s, side.opposite())
			s = parent.links[side.opposite()]
		}

		/* rm4 */
		s.color = parent.color
		parent.color = Black
		s.links[side.opposite()].color = Black
		tree.rotate(parent, side)
		x, parent = tree.root, nil
	}

	if x != nil {
		x.color = Black
	}
}

type RBTreeOpt[K any, V any] func(*rbTree[K, V])

func WithRBTreeDesc[K any, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.isDesc = true
	}
}

func NewRBTree[K infra.OrderedKey, V any](opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	return newRBTree[K, V](infra.OrderedLess[K](), opts...)
}

// NewRBTreeWithLess builds a tree ordered by a caller supplied strict
// weak ordering. Keys are considered equal if neither is less than the other.
func NewRBTreeWithLess[K any, V any](less infra.LessFunc[K], opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	if less == nil {
		panic("[rbtree] nil less function")
	}
	return newRBTree[K, V](less, opts...)
}

func newRBTree[K any, V any](less infra.LessFunc[K], opts ...RBTreeOpt[K, V]) *rbTree[K, V] {
	tree := &rbTree[K, V]{
		count:  0,
		isDesc: false,
		less:   less,
	}

	for _, o := range opts {
		if o != nil {
			o(tree)
		}
	}
	if tree.isDesc {
		tree.less = less.Reverse()
	}
	return tree
}
