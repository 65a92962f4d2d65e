package rollup

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/ordering"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

func loadSample(t *testing.T) *hostmodel.Model {
	t.Helper()
	f, err := os.Open("../hostmodel/testdata/sample.yaml")
	require.NoError(t, err)
	defer f.Close()
	m, err := hostmodel.Load(f)
	require.NoError(t, err)
	return m
}

// childNames lists the names of n's children in tree order.
func childNames[T any](tree *scopetree.Tree[T], n *scopetree.Node[T]) []string {
	var out []string
	for _, id := range n.Children() {
		c, _ := tree.Node(id)
		out = append(out, c.Scope().Name)
	}
	return out
}

// walk follows names from the root.
func walk[T any](t *testing.T, tree *scopetree.Tree[T], names ...string) *scopetree.Node[T] {
	t.Helper()
	cur := tree.Root()
	for _, name := range names {
		var next *scopetree.Node[T]
		for _, id := range cur.Children() {
			c, _ := tree.Node(id)
			if c.Scope().Name == name {
				next = c
			}
		}
		require.NotNil(t, next, "no %q under %q (have %v)", name, cur.Scope().Name, childNames(tree, cur))
		cur = next
	}
	return cur
}

func TestBuildTestTree(t *testing.T) {
	m := loadSample(t)
	tree, rep, err := BuildTestTree(m, m.Tests(), Options{}, nil)
	require.NoError(t, err)

	root := tree.Root()
	assert.Equal(t, "Root project", root.Scope().Name)
	c := root.Counters()
	assert.Equal(t, 5, c.Count)
	assert.Equal(t, counters.Known(2), c.Passed)
	assert.Equal(t, counters.Known(2), c.Failed)
	assert.Equal(t, counters.Known(1), c.Ignored)
	assert.Equal(t, counters.Known(1), c.Muted)
	assert.Equal(t, counters.Known(1), c.NewFailed)
	assert.Equal(t, counters.Known(2475*time.Millisecond), c.Duration)

	api := walk(t, tree, "Web", "API")
	assert.Equal(t, []string{"Tests (part 1)", "Tests (part 2)", "Compile"}, childNames(tree, api))

	cls := walk(t, tree, "Web", "API", "Tests (part 1)", "unit", "com.acme.api", "UserServiceTest")
	assert.True(t, cls.IsTerminal())
	assert.Len(t, cls.Items(), 2)

	assert.Equal(t, Report{Records: 5, Groups: 3, Remap: rep.Remap}, rep)
}

func TestBuildTestTree_GroupParallel(t *testing.T) {
	m := loadSample(t)
	tree, rep, err := BuildTestTree(m, m.Tests(), Options{GroupParallel: true, Head: m.Head()}, nil)
	require.NoError(t, err)

	api := walk(t, tree, "Web", "API")
	assert.Equal(t, []string{"Tests", "Compile"}, childNames(tree, api))

	pkg := walk(t, tree, "Web", "API", "Tests", "unit", "com.acme.api")
	assert.Equal(t, []string{"UserServiceTest", "OrderServiceTest"}, childNames(tree, pkg))
	assert.Equal(t, 2, rep.Remapped)
	assert.Equal(t, 2, rep.Remap.FastPath)
	assert.Equal(t, 5, tree.Root().Counters().Count)
}

func TestBuildTestTree_SplitByBuild(t *testing.T) {
	m := loadSample(t)
	tree, _, err := BuildTestTree(m, m.Tests(), Options{SplitByBuild: true}, nil)
	require.NoError(t, err)
	compile := walk(t, tree, "Web", "API", "Compile")
	assert.Equal(t, []string{"#118"}, childNames(tree, compile))
}

func TestBuildTestTree_UnknownBuildDropped(t *testing.T) {
	m := loadSample(t)
	runs := append([]hostmodel.TestRun{{
		Build:    999,
		Name:     "a.B.c",
		TestName: hostmodel.ParseTestName("a.B.c"),
		Status:   hostmodel.StatusFailed,
	}}, m.Tests()...)

	tree, rep, err := BuildTestTree(m, runs, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 6, rep.Records)
	assert.Equal(t, 5, tree.Root().Counters().Count, "dropped runs do not count")
}

func TestBuildTestTree_Empty(t *testing.T) {
	m := loadSample(t)
	tree, rep, err := BuildTestTree(m, nil, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, counters.Zero(), tree.Root().Counters())
	assert.Zero(t, rep.Groups)
}

func TestBuildProblemTree(t *testing.T) {
	m := loadSample(t)
	tree, rep, err := BuildProblemTree(m, m.Problems(), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Groups)

	c := tree.Root().Counters()
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, counters.Known(2), c.Failed)
	assert.Equal(t, counters.Known(1), c.NewFailed)
	assert.False(t, c.Passed.IsKnown())
	assert.False(t, c.Duration.IsKnown())

	leaf := walk(t, tree, "Web", "API", "Compile", "#118", "TC_COMPILATION_ERROR")
	require.True(t, leaf.IsTerminal())
	assert.Equal(t, "api-compile-1", leaf.Items()[0].Identity)
}

func TestTestCounters_PartialFlags(t *testing.T) {
	yes := true
	d := time.Second
	c := testCounters([]hostmodel.TestRun{
		{Status: hostmodel.StatusFailed, NewFailure: &yes, Muted: &yes, Duration: &d},
		{Status: hostmodel.StatusPassed},
	})
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, counters.Known(1), c.Failed)
	assert.False(t, c.Muted.IsKnown())
	assert.False(t, c.NewFailed.IsKnown())
	assert.False(t, c.Duration.IsKnown())
}

func TestSliceTests(t *testing.T) {
	m := loadSample(t)
	tree, _, err := BuildTestTree(m, m.Tests(), Options{}, nil)
	require.NoError(t, err)

	nodes, err := SliceTests(tree, View{MaxChildren: 1})
	require.NoError(t, err)
	api := walk(t, tree, "Web", "API")
	for _, n := range nodes {
		if n.ID() == api.ID() {
			require.Len(t, n.Children(), 1)
			top, _ := tree.Node(n.Children()[0])
			assert.Contains(t, []string{"Tests (part 1)", "Tests (part 2)"}, top.Scope().Name, "a failing configuration comes first")
		}
	}

	focus, err := SliceTests(tree, View{MaxChildren: 5, Focus: api.ID()})
	require.NoError(t, err)
	assert.Equal(t, tree.Root().ID(), focus[0].ID())

	_, err = SliceTests(tree, View{Focus: 12345})
	assert.True(t, errors.Is(err, scopetree.ErrNotFound))

	_, err = SliceTests(tree, View{OrderBy: "bogus"})
	assert.True(t, errors.Is(err, ordering.ErrUnknownOrder))

	_, err = SliceProblems(nil, View{TieBreak: "bogus"})
	assert.True(t, errors.Is(err, ordering.ErrUnknownOrder))
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("problems")
	require.NoError(t, err)
	assert.Equal(t, Problems, d)
	_, err = ParseDomain("builds")
	assert.Error(t, err)
}
