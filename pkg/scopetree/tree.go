// Package scopetree aggregates leaf groups into a tree of named scopes.
//
// # Ownership Model
//
// A Tree owns every node in an arena keyed by NodeID. Nodes refer to their
// parent and children by id only, so there are no pointer cycles. Ids are
// assigned sequentially from 1 and are only meaningful for the Tree that
// issued them.
//
// # Thread Safety
//
// A Tree is built once, synchronously, by New and is read-only afterwards.
// Slicing and subtree lookup return fresh views and never modify the
// arena. A Tree must not be shared with code that mutates it.
package scopetree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/scope"
)

var (
	// ErrNotFound is returned when a node id is unknown to the tree.
	ErrNotFound = errors.New("scope node not found")

	// ErrPathOrder is returned when a resolved path breaks the scope-type
	// order. It signals a resolver defect, not bad user input.
	ErrPathOrder = errors.New("scope path violates type order")
)

// NodeID identifies a node within one Tree.
type NodeID int

// NoNode is the zero NodeID; the root's parent.
const NoNode NodeID = 0

// LeafGroup is a set of raw records already grouped under one terminal scope.
type LeafGroup[T any] interface {
	Counters() counters.Counters
	// Path runs from the root-most ancestor to the terminal scope.
	// An empty path means the group could not be placed.
	Path() []scope.Scope
	Items() []T
}

// Node is one scope in the tree. A node either has children or holds
// items, never both.
type Node[T any] struct {
	id       NodeID
	scope    scope.Scope
	counters counters.Counters
	parent   NodeID
	terminal bool

	children []NodeID
	index    map[scope.Key]NodeID

	items []T
	total int
}

// ID returns the node id.
func (n *Node[T]) ID() NodeID { return n.id }

// Scope returns the scope this node represents.
func (n *Node[T]) Scope() scope.Scope { return n.scope }

// Counters returns the rollup of every group below this node.
func (n *Node[T]) Counters() counters.Counters { return n.counters }

// Parent returns the parent id; false for the root.
func (n *Node[T]) Parent() (NodeID, bool) { return n.parent, n.parent != NoNode }

// IsTerminal reports whether the node holds items rather than children.
func (n *Node[T]) IsTerminal() bool { return n.terminal }

// Children returns child ids in order.
func (n *Node[T]) Children() []NodeID { return slices.Clone(n.children) }

// Items returns the items held by a terminal node.
func (n *Node[T]) Items() []T { return slices.Clone(n.items) }

// TotalItems is the number of items the terminal node held before any cap.
func (n *Node[T]) TotalItems() int { return n.total }

// Truncated reports whether a view of a terminal node dropped items.
// Inner nodes report false even when the view dropped children.
func (n *Node[T]) Truncated() bool { return n.terminal && len(n.items) < n.total }

// view copies the node without its children or items.
func (n *Node[T]) view() *Node[T] {
	return &Node[T]{
		id:       n.id,
		scope:    n.scope,
		counters: n.counters,
		parent:   n.parent,
		terminal: n.terminal,
		total:    n.total,
	}
}

// Tree is the arena of scope nodes built from a list of leaf groups.
type Tree[T any] struct {
	nodes   map[NodeID]*Node[T]
	root    NodeID
	nextID  NodeID
	skipped int
}

// New builds a tree under root from groups. Each group's counters are
// merged into every node on its path, root included. Groups with an empty
// path are skipped. Groups landing on the same terminal scope are merged:
// their items are concatenated and their counters combined.
//
// New returns an error wrapping ErrPathOrder if any path is malformed.
func New[T any, G LeafGroup[T]](root scope.Scope, rootCounters counters.Counters, groups []G) (*Tree[T], error) {
	t := &Tree[T]{nodes: make(map[NodeID]*Node[T])}
	r := t.add(NoNode, root, rootCounters, false)
	t.root = r.id

	for i, g := range groups {
		path := g.Path()
		if len(path) == 0 {
			t.skipped++
			continue
		}
		if err := validatePath(root.Type, path); err != nil {
			return nil, fmt.Errorf("leaf group %d: %w", i, err)
		}
		if err := t.insert(path, g.Counters(), g.Items()); err != nil {
			return nil, fmt.Errorf("leaf group %d: %w", i, err)
		}
	}
	return t, nil
}

func (t *Tree[T]) insert(path []scope.Scope, c counters.Counters, items []T) error {
	cur := t.nodes[t.root]
	cur.counters = counters.Merge(cur.counters, c)

	for i, s := range path {
		last := i == len(path)-1
		childID, found := cur.index[s.Key()]
		var child *Node[T]
		if found {
			child = t.nodes[childID]
			if child.terminal != last {
				return fmt.Errorf("%w: scope %s %q is both terminal and inner", ErrPathOrder, s.Type, s.Name)
			}
			child.counters = counters.Merge(child.counters, c)
		} else {
			child = t.add(cur.id, s, c, last)
		}
		if last {
			child.items = append(child.items, items...)
			child.total = len(child.items)
		}
		cur = child
	}
	return nil
}

// add allocates a node and links it under parent.
func (t *Tree[T]) add(parent NodeID, s scope.Scope, c counters.Counters, terminal bool) *Node[T] {
	t.nextID++
	n := &Node[T]{
		id:       t.nextID,
		scope:    s,
		counters: c,
		parent:   parent,
		terminal: terminal,
	}
	if !terminal {
		n.index = make(map[scope.Key]NodeID)
	}
	t.nodes[n.id] = n
	if p, ok := t.nodes[parent]; ok {
		p.children = append(p.children, n.id)
		p.index[s.Key()] = n.id
	}
	return n
}

// validatePath checks that every segment sits below the root, that types
// never move up the hierarchy, that only projects repeat a level, and that
// exactly the final segment is a leaf.
func validatePath(rootType scope.Type, path []scope.Scope) error {
	prev := rootType
	for i, s := range path {
		if !s.Type.Valid() {
			return fmt.Errorf("%w: unknown scope type %q at position %d", ErrPathOrder, s.Type, i)
		}
		if s.Type.Rank() <= rootType.Rank() {
			return fmt.Errorf("%w: %s %q does not sit below the root", ErrPathOrder, s.Type, s.Name)
		}
		if i > 0 {
			if s.Type.Less(prev) {
				return fmt.Errorf("%w: %s %q follows %s", ErrPathOrder, s.Type, s.Name, prev)
			}
			if s.Type.Rank() == prev.Rank() && !(s.Type == scope.Project && prev == scope.Project) {
				return fmt.Errorf("%w: %s %q repeats level of %s", ErrPathOrder, s.Type, s.Name, prev)
			}
		}
		if last := i == len(path)-1; s.Leaf != last {
			return fmt.Errorf("%w: %s %q leaf=%t at position %d of %d", ErrPathOrder, s.Type, s.Name, s.Leaf, i+1, len(path))
		}
		prev = s.Type
	}
	return nil
}

// Root returns the root node.
func (t *Tree[T]) Root() *Node[T] { return t.nodes[t.root] }

// Node returns the node with the given id.
func (t *Tree[T]) Node(id NodeID) (*Node[T], bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes, root included.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// Skipped returns how many groups were dropped for having an empty path.
func (t *Tree[T]) Skipped() int { return t.skipped }
