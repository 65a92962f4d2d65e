// Package ordering turns user-facing order names into the comparators the
// scope tree slices with.
//
// A node order is a comma-separated list of keys, each optionally suffixed
// with ":asc" or ":desc", for example "failed,duration:asc". Counter keys
// default to descending and "name" to ascending. Nodes whose counter is
// unknown sort after every known value whatever the direction. Remaining
// ties fall back to scope name and then node id, so every order is total.
package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// ErrUnknownOrder is returned for an order or tie-break name that does not
// exist.
var ErrUnknownOrder = errors.New("unknown order")

// KeyName orders nodes by scope name.
const KeyName = "name"

// DefaultNodeOrder puts the most failing scopes first.
const DefaultNodeOrder = "failed"

// Criterion is one key of a node order.
type Criterion struct {
	Key        string
	Descending bool
}

func (c Criterion) String() string {
	if c.Descending {
		return c.Key + ":desc"
	}
	return c.Key + ":asc"
}

// NodeKeys lists the accepted node order keys.
func NodeKeys() []string {
	keys := make([]string, 0, len(counters.Fields)+1)
	for _, f := range counters.Fields {
		keys = append(keys, string(f))
	}
	return append(keys, KeyName)
}

// ParseNodeOrder parses a node order expression.
func ParseNodeOrder(expr string) ([]Criterion, error) {
	var out []Criterion
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, dir, hasDir := strings.Cut(part, ":")
		if !isKey(key) {
			return nil, fmt.Errorf("%w: node order key %q (want one of %s)", ErrUnknownOrder, key, strings.Join(NodeKeys(), ", "))
		}
		c := Criterion{Key: key, Descending: key != KeyName}
		if hasDir {
			switch strings.ToLower(dir) {
			case "asc":
				c.Descending = false
			case "desc":
				c.Descending = true
			default:
				return nil, fmt.Errorf("%w: direction %q in %q", ErrUnknownOrder, dir, part)
			}
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty node order", ErrUnknownOrder)
	}
	return out, nil
}

func isKey(key string) bool {
	if key == KeyName {
		return true
	}
	for _, f := range counters.Fields {
		if string(f) == key {
			return true
		}
	}
	return false
}

// NodeOrder builds a comparator from parsed criteria.
func NodeOrder[T any](criteria []Criterion) scopetree.NodeOrder[T] {
	return func(a, b *scopetree.Node[T]) int {
		for _, c := range criteria {
			if r := compareKey(a, b, c); r != 0 {
				return r
			}
		}
		if r := cmp.Compare(a.Scope().Name, b.Scope().Name); r != 0 {
			return r
		}
		return cmp.Compare(a.ID(), b.ID())
	}
}

// ParseNodeOrderFunc parses expr and returns its comparator.
func ParseNodeOrderFunc[T any](expr string) (scopetree.NodeOrder[T], error) {
	criteria, err := ParseNodeOrder(expr)
	if err != nil {
		return nil, err
	}
	return NodeOrder[T](criteria), nil
}

func compareKey[T any](a, b *scopetree.Node[T], c Criterion) int {
	if c.Key == KeyName {
		r := cmp.Compare(a.Scope().Name, b.Scope().Name)
		if c.Descending {
			return -r
		}
		return r
	}

	f := counters.Field(c.Key)
	av, aok := a.Counters().Value(f)
	bv, bok := b.Counters().Value(f)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	r := cmp.Compare(av, bv)
	if c.Descending {
		return -r
	}
	return r
}
