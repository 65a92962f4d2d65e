package render

import (
	"fmt"
	"time"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/scope"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// Document is a sliced tree flattened for display. Nodes keep the
// breadth-first order they were sliced in; renderers walk Children.
type Document struct {
	Domain string `json:"domain"`
	// Title is a one-line description of what was queried.
	Title string `json:"title,omitempty"`
	Nodes []Node `json:"nodes"`
}

// Node is one emitted scope.
type Node struct {
	ID       int               `json:"id"`
	ParentID int               `json:"parentId,omitempty"`
	Depth    int               `json:"-"`
	Scope    scope.Scope       `json:"scope"`
	Counters counters.Counters `json:"counters"`
	Children []int             `json:"children,omitempty"`
	// HiddenChildren counts children left out by the breadth cap.
	HiddenChildren int    `json:"hiddenChildren,omitempty"`
	Items          []Item `json:"items,omitempty"`
	TotalItems     int    `json:"totalItems,omitempty"`
}

// Item is a leaf record shown under a terminal node.
type Item struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	New      bool           `json:"new,omitempty"`
	Muted    bool           `json:"muted,omitempty"`
	Duration *time.Duration `json:"duration,omitempty"`
	Details  string         `json:"details,omitempty"`
}

// Item statuses.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusIgnored = "ignored"
	StatusProblem = "problem"
)

// Root returns the first node, which is the top of the document.
func (d Document) Root() (Node, bool) {
	if len(d.Nodes) == 0 {
		return Node{}, false
	}
	return d.Nodes[0], true
}

// HasFailures reports whether the top node has known failures.
func (d Document) HasFailures() bool {
	r, ok := d.Root()
	return ok && r.Counters.HasFailures()
}

// index maps ids to positions.
func (d Document) index() map[int]int {
	idx := make(map[int]int, len(d.Nodes))
	for i, n := range d.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Walk visits nodes depth-first following Children, starting at the top.
func (d Document) Walk(fn func(n Node)) {
	root, ok := d.Root()
	if !ok {
		return
	}
	idx := d.index()
	stack := []int{root.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pos, ok := idx[id]
		if !ok {
			continue
		}
		n := d.Nodes[pos]
		fn(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// FromNodes builds a document from sliced views. tree is the canonical
// tree the views came from; it is only read to count hidden children.
func FromNodes[T any](domain, title string, tree *scopetree.Tree[T], nodes []*scopetree.Node[T], item func(T) Item) Document {
	doc := Document{Domain: domain, Title: title, Nodes: make([]Node, 0, len(nodes))}
	depth := make(map[scopetree.NodeID]int, len(nodes))

	for _, v := range nodes {
		n := Node{
			ID:         int(v.ID()),
			Scope:      v.Scope(),
			Counters:   v.Counters(),
			TotalItems: v.TotalItems(),
		}
		if p, ok := v.Parent(); ok {
			n.ParentID = int(p)
			if d, seen := depth[p]; seen {
				n.Depth = d + 1
			}
		}
		depth[v.ID()] = n.Depth

		for _, c := range v.Children() {
			n.Children = append(n.Children, int(c))
		}
		if full, ok := tree.Node(v.ID()); ok {
			n.HiddenChildren = len(full.Children()) - len(n.Children)
		}
		for _, it := range v.Items() {
			n.Items = append(n.Items, item(it))
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc
}

// TestItem describes a test run.
func TestItem(r hostmodel.TestRun) Item {
	it := Item{
		Name:     r.Method,
		Status:   string(r.Status),
		New:      r.NewFailure != nil && *r.NewFailure,
		Muted:    r.Muted != nil && *r.Muted,
		Duration: r.Duration,
	}
	if it.Name == "" {
		it.Name = r.Name
	}
	return it
}

// ProblemItem describes a build problem.
func ProblemItem(p hostmodel.Problem) Item {
	return Item{
		Name:    p.Identity,
		Status:  StatusProblem,
		New:     p.New != nil && *p.New,
		Muted:   p.Muted != nil && *p.Muted,
		Details: p.Details,
	}
}

// formatDuration renders d the way go test does for short runs.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// summary is the counter line shared by the text renderers. Unknown values
// print as "?".
func summary(c counters.Counters, noun string) string {
	s := fmt.Sprintf("%d %s", c.Count, noun)
	s += " · " + c.Failed.String() + " failed"
	if v, ok := c.NewFailed.Get(); !ok || v > 0 {
		s += " · " + c.NewFailed.String() + " new"
	}
	if v, ok := c.Muted.Get(); !ok || v > 0 {
		s += " · " + c.Muted.String() + " muted"
	}
	if v, ok := c.Ignored.Get(); ok && v > 0 {
		s += " · " + c.Ignored.String() + " ignored"
	}
	if d, ok := c.Duration.Get(); ok {
		s += " · " + formatDuration(d)
	}
	return s
}

func noun(domain string) string {
	if domain == "problems" {
		return "problems"
	}
	return "tests"
}
