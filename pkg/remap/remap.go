// Package remap redirects results recorded on virtual (parallel-split)
// builds to the real build that aggregates them.
//
// A parallelized build configuration fans out into several virtual builds,
// each running a share of the work, plus one aggregating build that depends
// on all of them. When grouping is enabled, leaf groups found on a virtual
// build are attributed to that aggregating build instead.
package remap

import (
	"github.com/RoaringBitmap/roaring/roaring64"
)

// Promotion is a build in the dependency graph.
type Promotion interface {
	PromotionID() int64
	BuildTypeID() string
	Virtual() bool
	// Dependents are the builds that depend on this one.
	Dependents() []Promotion
	// Dependencies are the builds this one depends on.
	Dependencies() []Promotion
}

// LeafGroup is anything attributed to a single build.
type LeafGroup interface {
	Promotion() Promotion
}

// Stats counts how Resolve answered. Useful for debug logging.
type Stats struct {
	MemoHits  int
	FastPath  int
	Searches  int
	Fallbacks int
	Unchanged int
	Remapped  int
}

// Remapper resolves virtual builds for one request. It memoizes per build
// configuration and must not be shared across goroutines.
type Remapper struct {
	enabled bool
	head    Promotion
	memo    map[string]Promotion
	stats   Stats
}

// New returns a Remapper. head may be nil when the request has no head
// build; grouping then only succeeds through the single-dependent path.
func New(groupParallel bool, head Promotion) *Remapper {
	return &Remapper{
		enabled: groupParallel,
		head:    head,
		memo:    make(map[string]Promotion),
	}
}

// Resolve returns the promotion g should be attributed to. It never fails:
// when no aggregating build can be identified g's own promotion is returned.
func (r *Remapper) Resolve(g LeafGroup) Promotion {
	p := g.Promotion()
	if p == nil || !r.enabled || !p.Virtual() {
		r.stats.Unchanged++
		return p
	}

	key := p.BuildTypeID()
	if hit, ok := r.memo[key]; ok {
		r.stats.MemoHits++
		return r.orSelf(hit, p)
	}

	found := r.lookup(p)
	r.memo[key] = found
	return r.orSelf(found, p)
}

// Stats returns the counters collected so far.
func (r *Remapper) Stats() Stats { return r.stats }

func (r *Remapper) orSelf(found, p Promotion) Promotion {
	if found == nil {
		r.stats.Unchanged++
		return p
	}
	r.stats.Remapped++
	return found
}

func (r *Remapper) lookup(p Promotion) Promotion {
	deps := p.Dependents()
	if len(deps) == 1 {
		r.stats.FastPath++
		return deps[0]
	}
	if len(deps) == 0 || r.head == nil {
		r.stats.Fallbacks++
		return nil
	}

	r.stats.Searches++
	if found := search(r.head, p.PromotionID()); found != nil {
		return found
	}
	r.stats.Fallbacks++
	return nil
}

// search walks the dependency graph breadth-first from head and returns the
// first build that directly depends on target.
func search(head Promotion, target int64) Promotion {
	visited := roaring64.New()
	visited.Add(uint64(head.PromotionID()))
	queue := []Promotion{head}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		deps := cur.Dependencies()
		for _, d := range deps {
			if d.PromotionID() == target {
				return cur
			}
		}
		for _, d := range deps {
			if visited.CheckedAdd(uint64(d.PromotionID())) {
				queue = append(queue, d)
			}
		}
	}
	return nil
}
