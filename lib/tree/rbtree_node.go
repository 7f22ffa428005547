package tree

// rbSide indexes the children of a node. The rebalancing code is written
// once for one side and mirrored by flipping the side.
type rbSide uint8

const (
	leftSide rbSide = iota
	rightSide
)

func (s rbSide) opposite() rbSide {
	return s ^ 1
}

type rbNode[K any, V any] struct {
	parent *rbNode[K, V] // back-reference, never owns
	links  [2]*rbNode[K, V]
	key    K
	val    V
	color  RBColor
}

func (node *rbNode[K, V]) Color() RBColor {
	return node.color
}

func (node *rbNode[K, V]) Key() K {
	return node.key
}

func (node *rbNode[K, V]) Val() V {
	return node.val
}

func (node *rbNode[K, V]) Left() RBNode[K, V] {
	if node == nil || node.links[leftSide] == nil {
		return nil
	}
	return node.links[leftSide]
}

func (node *rbNode[K, V]) Right() RBNode[K, V] {
	if node == nil || node.links[rightSide] == nil {
		return nil
	}
	return node.links[rightSide]
}

func (node *rbNode[K, V]) Parent() RBNode[K, V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *rbNode[K, V]) Direction() RBDirection {
	if node.parent == nil {
		return Root
	}
	if node.side() == leftSide {
		return Left
	}
	return Right
}

// side reports which child of its parent the node is.
// The node must not be the root.
func (node *rbNode[K, V]) side() rbSide {
	if node.parent.links[leftSide] == node {
		return leftSide
	}
	return rightSide
}

func (node *rbNode[K, V]) isRed() bool {
	return node != nil && node.color == Red
}

// Nil leaves are black.
func (node *rbNode[K, V]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K, V]) minimum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.links[leftSide] != nil; aux = aux.links[leftSide] {
	}
	return aux
}

func (node *rbNode[K, V]) maximum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.links[rightSide] != nil; aux = aux.links[rightSide] {
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (node *rbNode[K, V]) succ() *rbNode[K, V] {
	return node.step(rightSide)
}

// The pred node of the current node is its previous node in sorted order.
func (node *rbNode[K, V]) pred() *rbNode[K, V] {
	return node.step(leftSide)
}

// step walks to the in-order neighbour on side s by the parent links,
// no auxiliary stack is needed.
func (node *rbNode[K, V]) step(s rbSide) *rbNode[K, V] {
	x := node
	if x == nil {
		return nil
	}
	if sub := x.links[s]; sub != nil {
		if s == rightSide {
			return sub.minimum()
		}
		return sub.maximum()
	}

	aux := x.parent
	// Backtrack until x is reached from the opposite side.
	for aux != nil && x == aux.links[s] {
		x = aux
		aux = aux.parent
	}
	return aux
}
