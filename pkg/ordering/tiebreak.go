package ordering

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

// Test tie-break names.
const (
	NewestFailureFirst = "newest-failure-first"
	SlowestFirst       = "slowest-first"
	ByName             = "name"
)

// Problem tie-break names.
const (
	NewestFirst = "newest-first"
	ByIdentity  = "identity"
)

var testTieBreaks = map[string]scopetree.ItemOrder[hostmodel.TestRun]{
	NewestFailureFirst: newestFailureFirst,
	SlowestFirst:       slowestFirst,
	ByName:             byTestName,
}

var problemTieBreaks = map[string]scopetree.ItemOrder[hostmodel.Problem]{
	NewestFirst: newestProblemFirst,
	ByIdentity:  byIdentity,
}

// TestTieBreaks lists the accepted test tie-break names.
func TestTieBreaks() []string { return sortedKeys(testTieBreaks) }

// ProblemTieBreaks lists the accepted problem tie-break names.
func ProblemTieBreaks() []string { return sortedKeys(problemTieBreaks) }

// TestTieBreak returns the named test run comparator.
func TestTieBreak(name string) (scopetree.ItemOrder[hostmodel.TestRun], error) {
	if f, ok := testTieBreaks[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: test tie-break %q (want one of %s)", ErrUnknownOrder, name, strings.Join(TestTieBreaks(), ", "))
}

// ProblemTieBreak returns the named problem comparator.
func ProblemTieBreak(name string) (scopetree.ItemOrder[hostmodel.Problem], error) {
	if f, ok := problemTieBreaks[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: problem tie-break %q (want one of %s)", ErrUnknownOrder, name, strings.Join(ProblemTieBreaks(), ", "))
}

// newestFailureFirst: failures first, new failures before known ones, most
// recent first, then by name.
func newestFailureFirst(a, b hostmodel.TestRun) int {
	if r := firstTrue(a.Failed(), b.Failed()); r != 0 {
		return r
	}
	if r := firstTrue(isSet(a.NewFailure), isSet(b.NewFailure)); r != 0 {
		return r
	}
	if r := b.FinishedAt.Compare(a.FinishedAt); r != 0 {
		return r
	}
	return byTestName(a, b)
}

// slowestFirst puts runs without a duration last.
func slowestFirst(a, b hostmodel.TestRun) int {
	switch {
	case a.Duration == nil && b.Duration == nil:
	case a.Duration == nil:
		return 1
	case b.Duration == nil:
		return -1
	default:
		if r := cmp.Compare(*b.Duration, *a.Duration); r != 0 {
			return r
		}
	}
	return byTestName(a, b)
}

func byTestName(a, b hostmodel.TestRun) int {
	return cmp.Compare(a.Name, b.Name)
}

func newestProblemFirst(a, b hostmodel.Problem) int {
	if r := firstTrue(isSet(a.New), isSet(b.New)); r != 0 {
		return r
	}
	return byIdentity(a, b)
}

func byIdentity(a, b hostmodel.Problem) int {
	if r := cmp.Compare(a.Identity, b.Identity); r != 0 {
		return r
	}
	return cmp.Compare(a.Details, b.Details)
}

// firstTrue orders true before false.
func firstTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

func isSet(p *bool) bool { return p != nil && *p }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
