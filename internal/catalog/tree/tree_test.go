package tree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cat struct {
	id     int64
	parent *int64
}

func (c cat) NodeID() int64        { return c.id }
func (c cat) ParentNodeID() *int64 { return c.parent }

func ptr(v int64) *int64 { return &v }

func sample() []cat {
	// 1
	// ├── 2
	// │   └── 4
	// └── 3
	// 5
	// 6 (parent 99 missing)
	return []cat{
		{id: 1},
		{id: 2, parent: ptr(1)},
		{id: 3, parent: ptr(1)},
		{id: 4, parent: ptr(2)},
		{id: 5},
		{id: 6, parent: ptr(99)},
	}
}

type pair struct {
	id    int64
	depth int
}

func pairs(entries []Entry[cat]) []pair {
	out := make([]pair, 0, len(entries))
	for _, e := range entries {
		out = append(out, pair{id: e.Item.id, depth: e.Depth})
	}
	return out
}

func TestFlattenPreOrderWithDepth(t *testing.T) {
	f := Build(sample())

	assert.Equal(t, []pair{
		{1, 0}, {2, 1}, {4, 2}, {3, 1}, {5, 0}, {6, 0},
	}, pairs(f.Flatten()))
}

func TestFlattenIsStable(t *testing.T) {
	a := pairs(Build(sample()).Flatten())
	b := pairs(Build(sample()).Flatten())
	assert.Equal(t, a, b)
}

func TestMissingParentBecomesRoot(t *testing.T) {
	f := Build([]cat{{id: 10, parent: ptr(11)}})
	roots := f.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, int64(10), roots[0].id)
}

func TestFlattenVisitsEveryNodeOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(40)
		items := make([]cat, 0, n)
		for i := 1; i <= n; i++ {
			c := cat{id: int64(i)}
			// parents always point to a smaller id, which keeps the input acyclic
			if i > 1 && rng.Intn(4) != 0 {
				c.parent = ptr(int64(1 + rng.Intn(i-1)))
			}
			items = append(items, c)
		}

		entries := Build(items).Flatten()
		require.Len(t, entries, n)
		seen := map[int64]bool{}
		for _, e := range entries {
			assert.False(t, seen[e.Item.id], "node %d visited twice", e.Item.id)
			seen[e.Item.id] = true
		}
	}
}

func TestFlattenInvariantUnderInputPermutation(t *testing.T) {
	base := sample()
	want := sortedPairs(pairs(Build(base).Flatten()))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]cat(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, sortedPairs(pairs(Build(shuffled).Flatten())))
	}
}

func TestCycleTerminates(t *testing.T) {
	// 1 <-> 2 form a cycle, 3 is a normal root
	items := []cat{{id: 1, parent: ptr(2)}, {id: 2, parent: ptr(1)}, {id: 3}}
	f := Build(items)

	assert.Equal(t, []pair{{3, 0}}, pairs(f.Flatten()))
	assert.Len(t, f.Ancestors(1), 2)
}

func TestDescendantsAndAncestors(t *testing.T) {
	f := Build(sample())

	assert.Equal(t, []int64{1, 2, 4, 3}, f.Descendants(1))
	assert.Equal(t, []int64{4}, f.Descendants(4))
	assert.Nil(t, f.Descendants(404))

	assert.Equal(t, []int64{2, 1}, f.Ancestors(4))
	assert.Empty(t, f.Ancestors(1))
	assert.True(t, f.Contains(6))
	assert.False(t, f.Contains(99))
}

func TestDuplicateIDsKeepFirst(t *testing.T) {
	f := Build([]cat{{id: 1}, {id: 1, parent: ptr(5)}})
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, []pair{{1, 0}}, pairs(f.Flatten()))
}

func sortedPairs(in []pair) []pair {
	out := append([]pair(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].id != out[j].id {
			return out[i].id < out[j].id
		}
		return out[i].depth < out[j].depth
	})
	return out
}
