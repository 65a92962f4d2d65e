package scopetree

import (
	"fmt"
	"slices"
)

// ItemOrder compares two leaf items, cmp-style.
type ItemOrder[T any] func(a, b T) int

// NodeOrder compares two sibling nodes, cmp-style.
type NodeOrder[T any] func(a, b *Node[T]) int

// SlicedOrderedTree walks the tree breadth-first from the root and returns
// views of the visited nodes in visit order.
//
// At every node at most maxChildren children are kept, after ordering them
// with nodeOrder (nil keeps insertion order). A terminal node holding more
// than maxChildren items is emitted with only the first maxChildren items
// by leafTieBreak (nil keeps insertion order). Depth is not bounded.
//
// The returned nodes are copies: their Children list only the emitted
// children, and the tree itself is left untouched.
func (t *Tree[T]) SlicedOrderedTree(maxChildren int, leafTieBreak ItemOrder[T], nodeOrder NodeOrder[T]) []*Node[T] {
	return t.slice(t.root, maxChildren, leafTieBreak, nodeOrder)
}

// SubtreeFrom returns the chain of ancestors of id, root first, followed by
// SlicedOrderedTree rooted at id. Each ancestor keeps its real counters and
// lists only the child leading towards id.
func (t *Tree[T]) SubtreeFrom(id NodeID, maxChildren int, leafTieBreak ItemOrder[T], nodeOrder NodeOrder[T]) ([]*Node[T], error) {
	target, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	var chain []*Node[T]
	for cur := target; cur.parent != NoNode; {
		parent := t.nodes[cur.parent]
		v := parent.view()
		v.children = []NodeID{cur.id}
		chain = append(chain, v)
		cur = parent
	}
	slices.Reverse(chain)

	return append(chain, t.slice(id, maxChildren, leafTieBreak, nodeOrder)...), nil
}

func (t *Tree[T]) slice(start NodeID, maxChildren int, leafTieBreak ItemOrder[T], nodeOrder NodeOrder[T]) []*Node[T] {
	if maxChildren < 0 {
		maxChildren = 0
	}

	var out []*Node[T]
	queue := []NodeID{start}
	for len(queue) > 0 {
		n := t.nodes[queue[0]]
		queue = queue[1:]

		v := n.view()
		if n.terminal {
			v.items = topItems(n.items, maxChildren, leafTieBreak)
			out = append(out, v)
			continue
		}

		kids := t.orderedChildren(n, nodeOrder)
		if len(kids) > maxChildren {
			kids = kids[:maxChildren]
		}
		v.children = make([]NodeID, 0, len(kids))
		for _, k := range kids {
			v.children = append(v.children, k.id)
		}
		out = append(out, v)
		queue = append(queue, v.children...)
	}
	return out
}

func (t *Tree[T]) orderedChildren(n *Node[T], order NodeOrder[T]) []*Node[T] {
	kids := make([]*Node[T], 0, len(n.children))
	for _, id := range n.children {
		kids = append(kids, t.nodes[id])
	}
	if order != nil {
		slices.SortStableFunc(kids, order)
	}
	return kids
}

// topItems returns a copy of items, capped at limit. The tie-break only
// applies when something has to be dropped.
func topItems[T any](items []T, limit int, tieBreak ItemOrder[T]) []T {
	if len(items) <= limit {
		return slices.Clone(items)
	}
	ranked := slices.Clone(items)
	if tieBreak != nil {
		slices.SortStableFunc(ranked, tieBreak)
	}
	return slices.Clip(ranked[:limit])
}
