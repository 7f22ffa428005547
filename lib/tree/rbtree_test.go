package tree

import (
	"bytes"
	"errors"
	randv2 "math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xrbmap/lib/infra"
)

type checkData struct {
	color RBColor
	key   uint64
}

func requireInorder(t *testing.T, tree RBTree[uint64, uint64], expected []checkData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
		require.Equal(t, expected[idx].color, color, "key %d", key)
		require.Equal(t, expected[idx].key, key)
		return true
	})
	require.True(t, tree.IsValid())
	require.NoError(t, RedViolationValidate(tree))
	require.NoError(t, BlackViolationValidate(tree))
	require.NoError(t, LinkViolationValidate(tree))
}

func levelOrder[K any, V any](t *testing.T, tree RBTree[K, V]) string {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, tree.LevelOrder(buf))
	return buf.String()
}

func TestNilNode(t *testing.T) {
	var nilNode RBNode[uint64, uint64] = nil
	require.True(t, nilNode == nil)

	var nilNode2 *rbNode[uint64, uint64] = nil
	nilNode = nilNode2
	require.True(t, nilNode != nil)
	require.Nil(t, nilNode)
	require.Nil(t, nilNode.Left())
	require.Nil(t, nilNode.Right())
	require.Nil(t, nilNode.Parent())

	tree := NewRBTree[uint64, uint64]()
	require.Nil(t, tree.Root())
	require.True(t, tree.IsValid())
}

func TestRbtreeInsert_AscendingOuterRotation(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for _, key := range []uint64{10, 20, 30} {
		require.True(t, tree.Insert(key, key*10))
	}
	requireInorder(t, tree, []checkData{
		{Red, 10}, {Black, 20}, {Red, 30},
	})
	root := tree.Root()
	require.Equal(t, uint64(20), root.Key())
	require.Equal(t, Root, root.Direction())
	require.Equal(t, uint64(10), root.Left().Key())
	require.Equal(t, Left, root.Left().Direction())
	require.Equal(t, uint64(30), root.Right().Key())
	require.Equal(t, Right, root.Right().Direction())
	require.Equal(t, "20 10 30", levelOrder(t, tree))
}

func TestRbtreeInsert_InnerThenOuterRotation(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for _, key := range []uint64{30, 10, 20} {
		require.True(t, tree.Insert(key, key*10))
	}
	requireInorder(t, tree, []checkData{
		{Red, 10}, {Black, 20}, {Red, 30},
	})
	require.Equal(t, "20 10 30", levelOrder(t, tree))

	mirrored := NewRBTree[uint64, uint64]()
	for _, key := range []uint64{10, 30, 20} {
		require.True(t, mirrored.Insert(key, key*10))
	}
	require.Equal(t, levelOrder(t, tree), levelOrder(t, mirrored))
}

func TestRbtreeInsertAndRemove_Succ(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()

	tree.Insert(52, 1)
	requireInorder(t, tree, []checkData{{Black, 52}})
	tree.Insert(47, 1)
	requireInorder(t, tree, []checkData{{Red, 47}, {Black, 52}})
	tree.Insert(3, 1)
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 47}, {Red, 52}})
	tree.Insert(35, 1)
	requireInorder(t, tree, []checkData{
		{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52},
	})
	tree.Insert(24, 1)
	requireInorder(t, tree, []checkData{
		{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	// remove

	x, err := tree.Remove(24)
	require.NoError(t, err)
	require.Equal(t, uint64(24), x.Key())
	require.Nil(t, x.Parent())
	require.Nil(t, x.Left())
	require.Nil(t, x.Right())
	requireInorder(t, tree, []checkData{
		{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.Remove(47)
	require.NoError(t, err)
	require.Equal(t, uint64(47), x.Key())
	requireInorder(t, tree, []checkData{
		{Black, 3}, {Black, 35}, {Black, 52},
	})

	x, err = tree.Remove(52)
	require.NoError(t, err)
	require.Equal(t, uint64(52), x.Key())
	requireInorder(t, tree, []checkData{{Red, 3}, {Black, 35}})

	x, err = tree.Remove(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), x.Key())
	requireInorder(t, tree, []checkData{{Black, 35}})

	_, err = tree.Remove(100)
	require.ErrorIs(t, err, ErrRBTreeKeyNotFound)

	x, err = tree.Remove(35)
	require.NoError(t, err)
	require.Equal(t, uint64(35), x.Key())
	require.Equal(t, int64(0), tree.Len())

	_, err = tree.Remove(35)
	require.ErrorIs(t, err, ErrRBTreeEmpty)
}

func TestRbtree_RemoveMin(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for _, key := range []uint64{52, 47, 3, 35, 24} {
		tree.Insert(key, 1)
	}

	x, err := tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(3), x.Key())
	requireInorder(t, tree, []checkData{
		{Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(24), x.Key())
	requireInorder(t, tree, []checkData{
		{Black, 35}, {Black, 47}, {Black, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(35), x.Key())
	requireInorder(t, tree, []checkData{{Black, 47}, {Red, 52}})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(47), x.Key())
	requireInorder(t, tree, []checkData{{Black, 52}})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(52), x.Key())
	require.Equal(t, int64(0), tree.Len())

	_, err = tree.RemoveMin()
	require.ErrorIs(t, err, ErrRBTreeEmpty)
}

func TestRbtreeErase_TwoChildrenSuccessorRelink(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for key := uint64(1); key <= 7; key++ {
		require.True(t, tree.Insert(key, key))
	}
	require.Equal(t, "2 1 4 3 6 5 7", levelOrder(t, tree))

	succ := tree.LowerBound(5)
	require.Equal(t, uint64(5), succ.Key())

	require.True(t, tree.Erase(4))
	require.False(t, tree.Erase(4))
	require.True(t, tree.IsValid())
	require.NoError(t, Validate[uint64, uint64](tree, nil))
	require.Equal(t, []uint64{1, 2, 3, 5, 6, 7}, lo.Map(collect(tree), func(kv [2]uint64, _ int) uint64 {
		return kv[0]
	}))
	require.Equal(t, "2 1 5 3 6 7", levelOrder(t, tree))

	// The successor node itself moved into the erased slot.
	root := tree.Root()
	require.Equal(t, uint64(5), root.Right().Key())
	require.Equal(t, Red, root.Right().Color())

	// Iterators on the surviving nodes stay valid.
	require.True(t, succ.Valid())
	require.Equal(t, uint64(5), succ.Key())
	require.Equal(t, uint64(6), succ.Next().Key())
	require.Equal(t, uint64(3), succ.Prev().Key())
}

func TestRbtreeErase_SoleRoot(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	require.True(t, tree.Insert(1, 1))
	require.True(t, tree.Erase(1))
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.True(t, tree.Begin().Equal(tree.End()))
	require.False(t, tree.Erase(1))
	require.True(t, tree.IsValid())
}

func TestRbtree_LookupModes(t *testing.T) {
	tree := NewRBTree[string, int]()

	_, err := tree.At("absent")
	require.ErrorIs(t, err, ErrRBTreeKeyNotFound)
	_, ok := tree.Get("absent")
	require.False(t, ok)
	require.Equal(t, 0, tree.Count("absent"))

	// default inserting access
	v := tree.Index("absent")
	require.NotNil(t, v)
	require.Equal(t, 0, *v)
	require.Equal(t, int64(1), tree.Len())
	*v = 42
	got, err := tree.At("absent")
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 1, tree.Count("absent"))

	// Index on a present key never inserts.
	*tree.Index("absent") += 1
	require.Equal(t, int64(1), tree.Len())
	got, ok = tree.Get("absent")
	require.True(t, ok)
	require.Equal(t, 43, got)

	require.True(t, tree.Insert("k", 1))
	require.False(t, tree.Insert("k", 2))
	got, err = tree.At("k")
	require.NoError(t, err)
	require.Equal(t, 1, got)

	require.True(t, tree.Erase("k"))
	_, err = tree.At("k")
	require.ErrorIs(t, err, ErrRBTreeKeyNotFound)
	require.Equal(t, 0, tree.Count("k"))
}

func TestRbtree_LowerBound(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	require.True(t, tree.LowerBound(1).Equal(tree.End()))

	for _, key := range []uint64{1, 3, 5, 7} {
		tree.Insert(key, key)
	}

	testcases := []struct {
		query uint64
		want  uint64
		end   bool
	}{
		{query: 0, want: 1},
		{query: 1, want: 1},
		{query: 2, want: 3},
		{query: 4, want: 5},
		{query: 6, want: 7},
		{query: 7, want: 7},
		{query: 8, end: true},
	}
	for _, tc := range testcases {
		it := tree.LowerBound(tc.query)
		if tc.end {
			require.False(t, it.Valid())
			require.True(t, it.Equal(tree.End()))
			continue
		}
		require.True(t, it.Valid())
		require.Equal(t, tc.want, it.Key(), "query %d", tc.query)
	}
}

func TestRbtree_Iterator(t *testing.T) {
	tree := NewRBTree[int, string]()
	require.True(t, tree.Begin().Equal(tree.End()))
	require.False(t, tree.End().Prev().Valid())

	keys := []int{8, 3, 10, 1, 6, 14, 4, 7, 13}
	for _, key := range keys {
		tree.Insert(key, "v")
	}
	slices.Sort(keys)

	forward := make([]int, 0, len(keys))
	for it := tree.Begin(); it.Valid(); it = it.Next() {
		forward = append(forward, it.Key())
	}
	require.Equal(t, keys, forward)

	backward := make([]int, 0, len(keys))
	for it := tree.End().Prev(); it.Valid(); it = it.Prev() {
		backward = append(backward, it.Key())
	}
	slices.Reverse(backward)
	require.Equal(t, keys, backward)

	require.False(t, tree.Begin().Prev().Valid())
	require.True(t, tree.End().Next().Equal(tree.End()))

	it := tree.LowerBound(6)
	it.SetVal("six")
	got, err := tree.At(6)
	require.NoError(t, err)
	require.Equal(t, "six", got)
	require.Equal(t, "six", it.Val())

	require.Panics(t, func() {
		tree.End().Key()
	})

	// Insertion never invalidates.
	tree.Insert(5, "five")
	require.Equal(t, 6, it.Key())
	require.Equal(t, 5, it.Prev().Key())
	require.Equal(t, 7, it.Next().Key())
}

func collect[K any, V any](tree RBTree[K, V]) [][2]uint64 {
	res := make([][2]uint64, 0, tree.Len())
	for k, v := range tree.All() {
		res = append(res, [2]uint64{any(k).(uint64), any(v).(uint64)})
	}
	return res
}

func TestRbtree_All(t *testing.T) {
	tree := NewRBTree[uint64, uint64]()
	for i := uint64(10); i > 0; i-- {
		tree.Insert(i, i*i)
	}
	all := collect(tree)
	require.Len(t, all, 10)
	for i, kv := range all {
		require.Equal(t, uint64(i+1), kv[0])
		require.Equal(t, kv[0]*kv[0], kv[1])
	}

	// lazy and restartable
	count := 0
	for range tree.All() {
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)
	require.Len(t, collect(tree), 10)
}

func TestRbtree_Desc(t *testing.T) {
	tree := NewRBTree[int64, uint64](WithRBTreeDesc[int64, uint64]())
	for i := int64(0); i < 100; i++ {
		tree.Insert(i, uint64(i))
	}
	tree.Foreach(func(idx int64, color RBColor, key int64, val uint64) bool {
		require.Equal(t, 99-idx, key)
		return true
	})
	require.Equal(t, int64(99), tree.Begin().Key())
	require.Equal(t, int64(49), tree.LowerBound(49).Key())
	require.NoError(t, Validate[int64, uint64](tree, nil))
	require.Error(t, OrderViolationValidate[int64, uint64](tree, infra.OrderedLess[int64]()))
}

func TestRbtree_CustomLess(t *testing.T) {
	tree := NewRBTreeWithLess[string, int](func(i, j string) bool {
		return strings.ToLower(i) < strings.ToLower(j)
	})
	require.True(t, tree.Insert("Apple", 1))
	require.True(t, tree.Insert("banana", 2))
	require.False(t, tree.Insert("APPLE", 3))
	require.Equal(t, 1, tree.Count("apple"))
	v, err := tree.At("aPPle")
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, "banana", tree.LowerBound("B").Key())

	require.Panics(t, func() {
		NewRBTreeWithLess[string, int](nil)
	})
}

func TestRbtree_Clone(t *testing.T) {
	a := NewRBTree[uint64, uint64]()
	for i := uint64(0); i < 64; i++ {
		a.Insert(i, i)
	}
	b := a.Clone()
	require.Equal(t, a.Len(), b.Len())
	require.Equal(t, levelOrder(t, a), levelOrder(t, b))
	colorsOf := func(tree RBTree[uint64, uint64]) []RBColor {
		colors := make([]RBColor, 0, tree.Len())
		tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
			colors = append(colors, color)
			return true
		})
		return colors
	}
	require.Equal(t, colorsOf(a), colorsOf(b))
	require.NoError(t, Validate[uint64, uint64](b, nil))

	snapshotB := collect(b)
	for i := uint64(0); i < 64; i += 2 {
		require.True(t, a.Erase(i))
	}
	a.Insert(1000, 1000)
	*a.Index(1) = 7
	require.Equal(t, snapshotB, collect(b))

	snapshotA := collect(a)
	b.Release()
	require.Equal(t, snapshotA, collect(a))

	empty := NewRBTree[uint64, uint64]().Clone()
	require.Equal(t, int64(0), empty.Len())
}

func TestRbtree_CloneFuncRollback(t *testing.T) {
	a := NewRBTree[uint64, []byte]()
	for i := uint64(0); i < 32; i++ {
		a.Insert(i, []byte{byte(i)})
	}

	b, err := a.CloneFunc(func(key uint64, val []byte) ([]byte, error) {
		return bytes.Clone(val), nil
	})
	require.NoError(t, err)
	(*b.Index(3))[0] = 0xff
	v, err := a.At(3)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, v)

	errCopy := errors.New("copy failed")
	for _, failAt := range []int{1, 2, 17, 32} {
		calls := 0
		c, err := a.CloneFunc(func(key uint64, val []byte) ([]byte, error) {
			if calls++; calls == failAt {
				return nil, errCopy
			}
			return bytes.Clone(val), nil
		})
		require.ErrorIs(t, err, ErrRBTreeCloneRollback)
		require.ErrorIs(t, err, errCopy)
		require.NotNil(t, c)
		require.Equal(t, int64(0), c.Len())
		require.Nil(t, c.Root())
		require.True(t, c.Begin().Equal(c.End()))
	}
	require.Equal(t, int64(32), a.Len())
	require.NoError(t, Validate[uint64, []byte](a, nil))
}

func TestRbtree_Move(t *testing.T) {
	a := NewRBTree[uint64, uint64]()
	for i := uint64(0); i < 16; i++ {
		a.Insert(i, i)
	}
	root := a.Root()
	before := collect(a)

	b := a.Move()
	require.Equal(t, int64(0), a.Len())
	require.Nil(t, a.Root())
	require.True(t, a.Begin().Equal(a.End()))
	require.Equal(t, before, collect(b))
	require.Equal(t, root, b.Root())

	// The moved-from tree is reusable.
	require.True(t, a.Insert(1, 1))
	require.Equal(t, int64(16), b.Len())
}

func TestRbtree_Release(t *testing.T) {
	insertTotal := uint64(100_000)
	tree := NewRBTree[uint64, uint64]()
	for i := uint64(0); i < insertTotal; i++ {
		tree.Insert(i, 1)
	}
	tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.Equal(t, "", levelOrder(t, tree))
}

func rbtreeRandomInsertAndEraseRunCore(t *testing.T, rng *randv2.Rand, total int, keySpace uint64) {
	tree := NewRBTree[uint64, uint64]()
	model := make(map[uint64]uint64, keySpace)

	for i := 0; i < total; i++ {
		key := rng.Uint64N(keySpace)
		_, exists := model[key]
		if rng.IntN(3) == 0 {
			require.Equal(t, exists, tree.Erase(key))
			delete(model, key)
		} else {
			require.Equal(t, !exists, tree.Insert(key, uint64(i)))
			if !exists {
				model[key] = uint64(i)
			}
		}
		require.True(t, tree.IsValid())
		require.NoError(t, Validate[uint64, uint64](tree, nil))
		require.Equal(t, int64(len(model)), tree.Len())
	}

	keys := lo.Keys(model)
	slices.Sort(keys)
	tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
		require.Equal(t, keys[idx], key)
		require.Equal(t, model[key], val)
		return true
	})
	for key, val := range model {
		got, err := tree.At(key)
		require.NoError(t, err)
		require.Equal(t, val, got)
		require.Equal(t, 1, tree.Count(key))
	}

	for _, key := range keys {
		require.True(t, tree.Erase(key))
		require.True(t, tree.IsValid())
	}
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
}

func TestRbtreeRandomInsertAndErase(t *testing.T) {
	testcases := []struct {
		name     string
		seed     uint64
		total    int
		keySpace uint64
	}{
		{name: "dense 64", seed: 1, total: 2000, keySpace: 64},
		{name: "sparse 1024", seed: 2, total: 3000, keySpace: 1024},
		{name: "wide 1<<20", seed: 3, total: 2000, keySpace: 1 << 20},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rng := randv2.New(randv2.NewPCG(tc.seed, tc.seed*31))
			rbtreeRandomInsertAndEraseRunCore(tt, rng, tc.total, tc.keySpace)
		})
	}
}

func TestRbtreeInsertAndErase_SequentialNumber(t *testing.T) {
	total := uint64(1000)
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	tree := NewRBTree[uint64, uint64]()
	for i := uint64(0); i < insertTotal+removeTotal; i++ {
		require.True(t, tree.Insert(i, 1))
		require.True(t, tree.IsValid())
	}
	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		x, err := tree.Remove(i)
		require.NoError(t, err)
		require.Equal(t, i, x.Key())
		require.NoError(t, Validate[uint64, uint64](tree, nil))
	}
	tree.Foreach(func(idx int64, color RBColor, key uint64, val uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})

	// reverse order erase exercises the mirrored cases
	for i := int64(insertTotal) - 1; i >= 0; i -= 3 {
		require.True(t, tree.Erase(uint64(i)))
		require.True(t, tree.IsValid())
	}
	require.NoError(t, Validate[uint64, uint64](tree, nil))
}

func BenchmarkRBTree_Random(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewRBTree[int, []byte]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(rngArr[i], testByBytes)
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	tree := NewRBTree[int, []byte]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(i, testByBytes)
	}
}
