package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// LessFunc is a strict weak ordering over keys.
// Two keys i and j are equivalent when !less(i, j) && !less(j, i).
type LessFunc[K any] func(i, j K) bool

// OrderedKeyComparator
// Assume i is the new key.
//  1. i == j (i-j == 0, return 0)
//  2. i > j (i-j > 0, return 1), turn to right part.
//  3. i < j (i-j < 0, return -1), turn to left part.
type OrderedKeyComparator[K any] func(i, j K) int64

func OrderedLess[K OrderedKey]() LessFunc[K] {
	return func(i, j K) bool {
		return i < j
	}
}

// LessFromComparator adapts a three-way comparator into a LessFunc.
func LessFromComparator[K any](cmp OrderedKeyComparator[K]) LessFunc[K] {
	if cmp == nil {
		return nil
	}
	return func(i, j K) bool {
		return cmp(i, j) < 0
	}
}

// Reverse flips the ordering of less.
func (less LessFunc[K]) Reverse() LessFunc[K] {
	return func(i, j K) bool {
		return less(j, i)
	}
}

func (less LessFunc[K]) Equal(i, j K) bool {
	return !less(i, j) && !less(j, i)
}
