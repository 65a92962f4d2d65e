// Package rollup assembles scope trees from host model records. It groups
// raw test runs and build problems into leaf groups, reattributes virtual
// builds, resolves scope paths and hands the result to scopetree.
package rollup

import (
	"fmt"
	"log/slog"

	"github.com/dkoosis/rollup/internal/logging"
	"github.com/dkoosis/rollup/pkg/counters"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/pathresolve"
	"github.com/dkoosis/rollup/pkg/remap"
	"github.com/dkoosis/rollup/pkg/scope"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// Domain names the kind of leaf record a tree aggregates.
type Domain string

const (
	Tests    Domain = "tests"
	Problems Domain = "problems"
)

// ParseDomain accepts "tests" or "problems".
func ParseDomain(s string) (Domain, error) {
	switch d := Domain(s); d {
	case Tests, Problems:
		return d, nil
	}
	return "", fmt.Errorf("unknown domain %q (want tests or problems)", s)
}

type (
	TestTree    = scopetree.Tree[hostmodel.TestRun]
	ProblemTree = scopetree.Tree[hostmodel.Problem]
	TestNode    = scopetree.Node[hostmodel.TestRun]
	ProblemNode = scopetree.Node[hostmodel.Problem]
)

// Options control how records are grouped before the tree is built.
type Options struct {
	// SplitByBuild adds a build level to test trees.
	SplitByBuild bool
	// GroupParallel attributes records of virtual builds to the build that
	// aggregates them.
	GroupParallel bool
	// Head is the build the request is about; 0 means none.
	Head int64
}

// Report describes what happened to the input records.
type Report struct {
	Records  int
	Groups   int
	Dropped  int
	Remapped int
	Remap    remap.Stats
}

// LogValue lets a Report be logged as a group.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("records", r.Records),
		slog.Int("groups", r.Groups),
		slog.Int("dropped", r.Dropped),
		slog.Int("remapped", r.Remapped),
		slog.Int("remap_memo_hits", r.Remap.MemoHits),
		slog.Int("remap_searches", r.Remap.Searches),
	)
}

// BuildTestTree builds the test tree for runs.
func BuildTestTree(m *hostmodel.Model, runs []hostmodel.TestRun, opts Options, logger *slog.Logger) (*TestTree, Report, error) {
	logger = orDiscard(logger)
	res := pathresolve.Resolver{Host: m, SplitByBuild: opts.SplitByBuild}

	b := newBuilder[hostmodel.TestRun, testKey](m, opts)
	for _, r := range runs {
		b.add(r.Build, testKey{TestName: normalized(r.TestName)}, r)
	}
	groups := b.finish(logger, func(build hostmodel.Build, k testKey) []scope.Scope {
		return res.TestPath(build, k.TestName)
	}, testCounters)

	tree, err := scopetree.New[hostmodel.TestRun](rootScope(m), counters.Zero(), groups)
	return b.done(tree, err, Tests, logger)
}

// BuildProblemTree builds the problem tree for problems. Problem paths
// always include the build.
func BuildProblemTree(m *hostmodel.Model, problems []hostmodel.Problem, opts Options, logger *slog.Logger) (*ProblemTree, Report, error) {
	logger = orDiscard(logger)
	res := pathresolve.Resolver{Host: m}

	b := newBuilder[hostmodel.Problem, problemKey](m, opts)
	for _, p := range problems {
		b.add(p.Build, problemKey{Type: p.Type}, p)
	}
	groups := b.finish(logger, func(build hostmodel.Build, k problemKey) []scope.Scope {
		return res.ProblemPath(build, k.Type)
	}, problemCounters)

	tree, err := scopetree.New[hostmodel.Problem](rootScope(m), counters.Zero(), groups)
	return b.done(tree, err, Problems, logger)
}

type testKey struct{ hostmodel.TestName }

// normalized drops the method so runs of one class share a group.
func normalized(tn hostmodel.TestName) hostmodel.TestName {
	tn.Method = ""
	return tn
}

type problemKey struct{ Type string }

func rootScope(m *hostmodel.Model) scope.Scope {
	return scope.NewRoot(m.RootProject().Name)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}
