package rollup

import (
	"github.com/dkoosis/rollup/pkg/ordering"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// View selects what part of a tree to show and how to order it.
type View struct {
	MaxChildren int
	OrderBy     string
	TieBreak    string
	// Focus, when set, shows the subtree of that node with its ancestors.
	Focus scopetree.NodeID
}

// SliceTests applies v to a test tree. An empty TieBreak uses
// newest-failure-first.
func SliceTests(t *TestTree, v View) ([]*TestNode, error) {
	name := v.TieBreak
	if name == "" {
		name = ordering.NewestFailureFirst
	}
	tie, err := ordering.TestTieBreak(name)
	if err != nil {
		return nil, err
	}
	return slice(t, v, tie)
}

// SliceProblems applies v to a problem tree. An empty TieBreak uses
// newest-first.
func SliceProblems(t *ProblemTree, v View) ([]*ProblemNode, error) {
	name := v.TieBreak
	if name == "" {
		name = ordering.NewestFirst
	}
	tie, err := ordering.ProblemTieBreak(name)
	if err != nil {
		return nil, err
	}
	return slice(t, v, tie)
}

func slice[T any](t *scopetree.Tree[T], v View, tie scopetree.ItemOrder[T]) ([]*scopetree.Node[T], error) {
	expr := v.OrderBy
	if expr == "" {
		expr = ordering.DefaultNodeOrder
	}
	order, err := ordering.ParseNodeOrderFunc[T](expr)
	if err != nil {
		return nil, err
	}
	if v.Focus == scopetree.NoNode {
		return t.SlicedOrderedTree(v.MaxChildren, tie, order), nil
	}
	return t.SubtreeFrom(v.Focus, v.MaxChildren, tie, order)
}
