package scopetree

import (
	"cmp"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byCountDesc(a, b *Node[run]) int {
	return cmp.Compare(b.Counters().Count, a.Counters().Count)
}

// newestFailureFirst puts failures first, most recent first, then by name.
func newestFailureFirst(a, b run) int {
	if a.failed != b.failed {
		if a.failed {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.at, a.at); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

func wideTree(t *testing.T) *Tree[run] {
	t.Helper()
	var groups []group
	for i, n := range []int{2, 7, 4} {
		for j := 0; j < 3; j++ {
			groups = append(groups, group{
				path:  testPath(fmt.Sprintf("bt%d", i), "s", fmt.Sprintf("pkg%d", j), fmt.Sprintf("C%d", j)),
				items: runs(fmt.Sprintf("t%d%d-", i, j), n+j, 1),
			})
		}
	}
	return mustTree(t, groups)
}

func byID(nodes []*Node[run]) map[NodeID]*Node[run] {
	out := make(map[NodeID]*Node[run], len(nodes))
	for _, n := range nodes {
		out[n.ID()] = n
	}
	return out
}

func TestSlicedOrderedTree_KeepsOnlyTopChild(t *testing.T) {
	tree := wideTree(t)
	out := tree.SlicedOrderedTree(1, nil, byCountDesc)

	var bts []string
	for _, n := range out {
		if n.Scope().Type == "buildType" {
			bts = append(bts, n.Scope().Name)
		}
	}
	assert.Equal(t, []string{"bt1"}, bts, "only the highest-count build type survives")

	root := out[0]
	require.Len(t, root.Children(), 1)
	assert.False(t, root.Truncated(), "dropped children do not mark an inner node")
}

func TestSlicedOrderedTree_BreadthBounded(t *testing.T) {
	tree := wideTree(t)
	for _, k := range []int{0, 1, 2, 3, 10} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			out := tree.SlicedOrderedTree(k, newestFailureFirst, byCountDesc)
			require.NotEmpty(t, out)
			assert.Equal(t, tree.Root().ID(), out[0].ID())

			index := byID(out)
			for _, n := range out {
				assert.LessOrEqual(t, len(n.Children()), k)
				assert.LessOrEqual(t, len(n.Items()), k)
				for _, c := range n.Children() {
					assert.Contains(t, index, c, "emitted child ids must be emitted")
				}
			}
		})
	}
}

func TestSlicedOrderedTree_NarrowTreeEmitsWholeSpine(t *testing.T) {
	tree := mustTree(t, []group{{path: testPath("A", "s", "p", "C"), items: runs("a", 1, 0)}})
	out := tree.SlicedOrderedTree(1, nil, nil)
	assert.Len(t, out, tree.Len())
}

func TestSlicedOrderedTree_TerminalCappedByTieBreak(t *testing.T) {
	items := make([]run, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, run{name: fmt.Sprintf("f%d", i), failed: true, at: (i * 7) % 10})
	}
	tree := mustTree(t, []group{{path: testPath("A", "s", "p", "C"), items: items}})

	out := tree.SlicedOrderedTree(5, newestFailureFirst, nil)
	leaf := out[len(out)-1]
	require.True(t, leaf.IsTerminal())

	got := leaf.Items()
	require.Len(t, got, 5)
	for i, want := range []int{9, 8, 7, 6, 5} {
		assert.Equal(t, want, got[i].at)
	}
	assert.Equal(t, 10, leaf.TotalItems())
	assert.True(t, leaf.Truncated())
	assert.Equal(t, 10, leaf.Counters().Count, "counters keep the real totals")
}

func TestSlicedOrderedTree_SmallTerminalKeepsOrder(t *testing.T) {
	tree := mustTree(t, []group{{path: testPath("A", "s", "p", "C"), items: runs("a", 3, 0)}})
	out := tree.SlicedOrderedTree(5, newestFailureFirst, nil)
	leaf := out[len(out)-1]
	assert.Equal(t, []string{"a00", "a01", "a02"}, []string{leaf.Items()[0].name, leaf.Items()[1].name, leaf.Items()[2].name})
	assert.False(t, leaf.Truncated())
}

func TestSlicedOrderedTree_DoesNotModifyTree(t *testing.T) {
	tree := wideTree(t)
	before := tree.SlicedOrderedTree(100, nil, nil)

	_ = tree.SlicedOrderedTree(1, newestFailureFirst, byCountDesc)
	_ = tree.SlicedOrderedTree(0, newestFailureFirst, byCountDesc)

	after := tree.SlicedOrderedTree(100, nil, nil)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Children(), after[i].Children())
		assert.Equal(t, len(before[i].Items()), len(after[i].Items()), "node %d", before[i].ID())
	}
}

func TestSlicedOrderedTree_NegativeCapIsZero(t *testing.T) {
	tree := wideTree(t)
	out := tree.SlicedOrderedTree(-3, nil, nil)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Children())
}

func TestSubtreeFrom_AncestorChain(t *testing.T) {
	tree := wideTree(t)
	full := tree.SlicedOrderedTree(100, nil, nil)

	var target *Node[run]
	for _, n := range full {
		if n.Scope().Type == "package" && n.Scope().Name == "pkg2" {
			if p, _ := n.Parent(); p != NoNode {
				target = n
			}
		}
	}
	require.NotNil(t, target)

	var want []NodeID
	for id := target.ID(); ; {
		n, ok := tree.Node(id)
		require.True(t, ok)
		want = append([]NodeID{id}, want...)
		p, ok := n.Parent()
		if !ok {
			break
		}
		id = p
	}

	out, err := tree.SubtreeFrom(target.ID(), 1, newestFailureFirst, byCountDesc)
	require.NoError(t, err)

	ancestors := len(want) - 1
	require.Greater(t, len(out), ancestors)
	for i := 0; i < ancestors; i++ {
		assert.Equal(t, want[i], out[i].ID())
		assert.Equal(t, []NodeID{want[i+1]}, out[i].Children(), "ancestor lists only the edge toward the target")
		orig, _ := tree.Node(want[i])
		assert.Equal(t, orig.Counters(), out[i].Counters(), "ancestors keep uncapped counters")
	}
	assert.Equal(t, target.ID(), out[ancestors].ID())

	rest := out[ancestors+1:]
	require.Len(t, rest, 1, "pkg2 has one class")
	assert.LessOrEqual(t, len(rest[0].Items()), 1)
}

func TestSubtreeFrom_Root(t *testing.T) {
	tree := wideTree(t)
	out, err := tree.SubtreeFrom(tree.Root().ID(), 2, nil, byCountDesc)
	require.NoError(t, err)
	assert.Equal(t, tree.SlicedOrderedTree(2, nil, byCountDesc)[0].Children(), out[0].Children())
}

func TestSubtreeFrom_NotFound(t *testing.T) {
	tree := wideTree(t)
	_, err := tree.SubtreeFrom(NodeID(9999), 5, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = tree.SubtreeFrom(NoNode, 5, nil, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}
