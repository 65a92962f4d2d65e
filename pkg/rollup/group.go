package rollup

import (
	"log/slog"
	"time"

	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/remap"
	"github.com/dkoosis/rollup/pkg/scope"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// group is a set of records sharing a build and a terminal scope.
type group[T any] struct {
	promo    remap.Promotion
	path     []scope.Scope
	items    []T
	counters counters.Counters
}

func (g *group[T]) Promotion() remap.Promotion  { return g.promo }
func (g *group[T]) Path() []scope.Scope         { return g.path }
func (g *group[T]) Items() []T                  { return g.items }
func (g *group[T]) Counters() counters.Counters { return g.counters }

type groupKey[K comparable] struct {
	build int64
	key   K
}

// builder groups records twice: first by the build they were recorded on,
// then by the build they are attributed to after remapping. Both passes
// keep first-seen order so that trees are deterministic.
type builder[T any, K comparable] struct {
	m       *hostmodel.Model
	remap   *remap.Remapper
	records int

	raw      map[groupKey[K]]*rawGroup[T, K]
	rawOrder []*rawGroup[T, K]
	report   Report
}

type rawGroup[T any, K comparable] struct {
	promo remap.Promotion
	build int64
	key   K
	items []T
}

func (g *rawGroup[T, K]) Promotion() remap.Promotion { return g.promo }

func newBuilder[T any, K comparable](m *hostmodel.Model, opts Options) *builder[T, K] {
	var head remap.Promotion
	if opts.Head != 0 {
		if p, ok := m.Promotion(opts.Head); ok {
			head = p
		}
	}
	return &builder[T, K]{
		m:     m,
		remap: remap.New(opts.GroupParallel, head),
		raw:   make(map[groupKey[K]]*rawGroup[T, K]),
	}
}

func (b *builder[T, K]) add(build int64, key K, item T) {
	b.records++
	gk := groupKey[K]{build: build, key: key}
	g, ok := b.raw[gk]
	if !ok {
		g = &rawGroup[T, K]{build: build, key: key}
		if p, found := b.m.Promotion(build); found {
			g.promo = p
		}
		b.raw[gk] = g
		b.rawOrder = append(b.rawOrder, g)
	}
	g.items = append(g.items, item)
}

// finish remaps raw groups, merges those that land on the same build and
// resolves their paths. Groups whose build is unknown keep an empty path.
func (b *builder[T, K]) finish(
	logger *slog.Logger,
	pathFor func(hostmodel.Build, K) []scope.Scope,
	count func([]T) counters.Counters,
) []*group[T] {
	merged := make(map[groupKey[K]]*group[T])
	var out []*group[T]

	for _, raw := range b.rawOrder {
		target := raw.build
		if raw.promo != nil {
			p := b.remap.Resolve(raw)
			if p.PromotionID() != raw.build {
				b.report.Remapped++
				logger.Debug("remapped leaf group", "from", raw.build, "to", p.PromotionID())
			}
			target = p.PromotionID()
		}

		gk := groupKey[K]{build: target, key: raw.key}
		g, ok := merged[gk]
		if !ok {
			g = &group[T]{}
			if build, found := b.m.Build(target); found {
				g.promo, _ = b.m.Promotion(target)
				g.path = pathFor(build, raw.key)
			}
			if len(g.path) == 0 {
				logger.Debug("leaf group has no scope path", "build", target, "key", raw.key)
			}
			merged[gk] = g
			out = append(out, g)
		}
		g.items = append(g.items, raw.items...)
	}

	for _, g := range out {
		g.counters = count(g.items)
	}
	b.report.Groups = len(out)
	b.report.Records = b.records
	b.report.Remap = b.remap.Stats()
	return out
}

func (b *builder[T, K]) done(tree *scopetree.Tree[T], err error, d Domain, logger *slog.Logger) (*scopetree.Tree[T], Report, error) {
	if err != nil {
		return nil, b.report, err
	}
	b.report.Dropped = tree.Skipped()
	logger.Debug("built scope tree", "domain", d, "nodes", tree.Len(), "report", b.report)
	return tree, b.report, nil
}

// testCounters derives the statistics of a group of runs. Flags and
// durations are only known when every run reports them.
func testCounters(runs []hostmodel.TestRun) counters.Counters {
	var passed, failed, ignored, muted, newFailed int
	mutedKnown, newKnown, durKnown := true, true, true
	var total time.Duration

	for _, r := range runs {
		switch r.Status {
		case hostmodel.StatusPassed:
			passed++
		case hostmodel.StatusFailed:
			failed++
		case hostmodel.StatusIgnored:
			ignored++
		}
		if r.Muted == nil {
			mutedKnown = false
		} else if *r.Muted {
			muted++
		}
		if r.NewFailure == nil {
			newKnown = false
		} else if *r.NewFailure {
			newFailed++
		}
		if r.Duration == nil {
			durKnown = false
		} else {
			total += *r.Duration
		}
	}

	c := counters.Counters{
		Count:   len(runs),
		Passed:  counters.Known(passed),
		Failed:  counters.Known(failed),
		Ignored: counters.Known(ignored),
	}
	if mutedKnown {
		c.Muted = counters.Known(muted)
	}
	if newKnown {
		c.NewFailed = counters.Known(newFailed)
	}
	if durKnown {
		c.Duration = counters.Known(total)
	}
	return c
}

// problemCounters treats every problem as a failure. Pass, ignore and
// duration do not apply to problems and stay unknown.
func problemCounters(problems []hostmodel.Problem) counters.Counters {
	var muted, fresh int
	mutedKnown, newKnown := true, true
	for _, p := range problems {
		if p.Muted == nil {
			mutedKnown = false
		} else if *p.Muted {
			muted++
		}
		if p.New == nil {
			newKnown = false
		} else if *p.New {
			fresh++
		}
	}

	c := counters.Counters{
		Count:  len(problems),
		Failed: counters.Known(len(problems)),
	}
	if mutedKnown {
		c.Muted = counters.Known(muted)
	}
	if newKnown {
		c.NewFailed = counters.Known(fresh)
	}
	return c
}
