package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/scope"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

func ms(n int) *time.Duration {
	d := time.Duration(n) * time.Millisecond
	return &d
}

func stats(count, failed int) counters.Counters {
	c := counters.Zero()
	c.Count = count
	c.Passed = counters.Known(count - failed)
	c.Failed = counters.Known(failed)
	c.Duration = counters.Known(1500 * time.Millisecond)
	return c
}

// sampleDoc is root -> build type -> class, with one hidden sibling and one
// hidden item.
func sampleDoc() Document {
	unknown := stats(3, 1)
	unknown.Muted = counters.Unknown[int]()
	return Document{
		Domain: "tests",
		Title:  "acme",
		Nodes: []Node{
			{ID: 1, Scope: scope.NewRoot("Root project"), Counters: unknown, Children: []int{2}},
			{ID: 2, ParentID: 1, Depth: 1, Scope: scope.New(scope.BuildType, "Unit Tests", false, "bt"), Counters: stats(3, 1), Children: []int{3}, HiddenChildren: 1},
			{
				ID: 3, ParentID: 2, Depth: 2,
				Scope:    scope.New(scope.Class, "UserServiceTest", true, "bt", "c"),
				Counters: stats(3, 1),
				Items: []Item{
					{Name: "testDelete", Status: StatusFailed, New: true, Duration: ms(340)},
					{Name: "testCreate", Status: StatusPassed, Duration: ms(12)},
				},
				TotalItems: 3,
			},
		},
	}
}

func TestLLM_Render(t *testing.T) {
	out := NewLLM().Render(sampleDoc())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "SCOPE: acme · tests · 3 tests · 1 failed · ? muted · 1.5s", lines[0])
	assert.Equal(t, `root "Root project" #1 count=3 passed=2 failed=1 muted=? ignored=0 new=0 duration=1.5s`, lines[1])
	assert.Equal(t, `  buildType "Unit Tests" #2 count=3 passed=2 failed=1 muted=0 ignored=0 new=0 duration=1.5s`, lines[2])
	assert.Equal(t, "    ... (1 more child)", lines[3])
	assert.Contains(t, out, "      FAILED testDelete (340ms) new\n")
	assert.Contains(t, out, "      PASSED testCreate (12ms)\n")
	assert.Contains(t, out, "      ... (1 more items)\n")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes")
}

func TestLLM_RenderEmpty(t *testing.T) {
	assert.Equal(t, "SCOPE: tests · empty\n", NewLLM().Render(Document{Domain: "tests"}))
}

func TestTerminal_Render(t *testing.T) {
	out := NewTerminal(MonoTheme(), 100).Render(sampleDoc())
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "x Root Root project")
	assert.Contains(t, out, "  x Build Type Unit Tests")
	assert.Contains(t, out, "- 1 more")
	assert.Contains(t, out, "testDelete")
	assert.Contains(t, out, "340ms")

	rootAt := strings.Index(out, "Root project")
	classAt := strings.Index(out, "UserServiceTest")
	assert.Less(t, rootAt, classAt, "depth-first order")
}

func TestTerminal_TruncatesLongNames(t *testing.T) {
	doc := sampleDoc()
	doc.Nodes[1].Scope.Name = strings.Repeat("very-long-name-", 20)
	out := NewTerminal(MonoTheme(), 80).Render(doc)
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, doc.Nodes[1].Scope.Name)
}

func TestJSON_Render(t *testing.T) {
	out := NewJSON().Render(sampleDoc())

	var decoded struct {
		Version string `json:"version"`
		Domain  string `json:"domain"`
		Nodes   []struct {
			ID             int              `json:"id"`
			ParentID       int              `json:"parentId"`
			Children       []int            `json:"children"`
			HiddenChildren int              `json:"hiddenChildren"`
			Counters       map[string]any   `json:"counters"`
			Items          []map[string]any `json:"items"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, JSONVersion, decoded.Version)
	assert.Equal(t, "tests", decoded.Domain)
	require.Len(t, decoded.Nodes, 3)
	assert.Nil(t, decoded.Nodes[0].Counters["muted"], "unknown encodes as null")
	assert.Equal(t, 1, decoded.Nodes[1].HiddenChildren)
	assert.Equal(t, 2, decoded.Nodes[2].ParentID)
	assert.Len(t, decoded.Nodes[2].Items, 2)
}

func TestJSON_RenderEmpty(t *testing.T) {
	assert.JSONEq(t, `{"version":"1","domain":"problems","nodes":[]}`, NewJSON().Render(Document{Domain: "problems"}))
}

func TestByFormat(t *testing.T) {
	assert.IsType(t, &Terminal{}, ByFormat(FormatTerminal, ThemeByName("default"), 0))
	assert.IsType(t, &LLM{}, ByFormat(FormatLLM, ThemeByName("default"), 0))
	assert.IsType(t, &JSON{}, ByFormat(FormatJSON, ThemeByName("default"), 0))
	assert.Nil(t, ByFormat("xml", ThemeByName("default"), 0))
}

type leafGroup struct {
	path []scope.Scope
	runs []hostmodel.TestRun
}

func (g leafGroup) Counters() counters.Counters { return stats(len(g.runs), 1) }
func (g leafGroup) Path() []scope.Scope         { return g.path }
func (g leafGroup) Items() []hostmodel.TestRun  { return g.runs }

func TestFromNodes(t *testing.T) {
	api := scope.New(scope.Project, "API", false, "api")
	var groups []leafGroup
	for _, bt := range []string{"unit", "lint", "e2e"} {
		groups = append(groups, leafGroup{
			path: []scope.Scope{
				api,
				scope.New(scope.BuildType, bt, false, "api", bt),
				scope.New(scope.Class, "UserServiceTest", true, "api", bt, "c"),
			},
			runs: []hostmodel.TestRun{
				{Name: "a", Status: hostmodel.StatusFailed},
				{Name: "b", Status: hostmodel.StatusPassed, Duration: ms(5)},
			},
		})
	}
	tree, err := scopetree.New[hostmodel.TestRun](scope.NewRoot("acme"), stats(6, 3), groups)
	require.NoError(t, err)
	nodes := tree.SlicedOrderedTree(1, nil, nil)

	doc := FromNodes("tests", "acme", tree, nodes, TestItem)
	require.Len(t, doc.Nodes, 4)
	assert.Equal(t, 0, doc.Nodes[0].Depth)

	got := doc.Nodes[1]
	assert.Equal(t, "API", got.Scope.Name)
	assert.Equal(t, 1, got.Depth)
	assert.Equal(t, doc.Nodes[0].ID, got.ParentID)
	assert.Equal(t, 2, got.HiddenChildren, "three configurations, one shown")

	last := doc.Nodes[3]
	assert.Equal(t, 3, last.Depth)
	require.Len(t, last.Items, 1)
	assert.Equal(t, Item{Name: "a", Status: StatusFailed}, last.Items[0])
	assert.Equal(t, 2, last.TotalItems)
	assert.True(t, doc.HasFailures())
}

func TestProblemItem(t *testing.T) {
	yes := true
	it := ProblemItem(hostmodel.Problem{Identity: "id", Details: "boom\nmore", New: &yes})
	assert.Equal(t, Item{Name: "id", Status: StatusProblem, New: true, Details: "boom\nmore"}, it)
	assert.Equal(t, "PROBLEM id new: boom", itemLine(it))
}
