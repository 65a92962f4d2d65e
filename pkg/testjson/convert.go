package testjson

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkoosis/rollup/pkg/hostmodel"
)

// Suite is the suite name given to every converted test run.
const Suite = "go test"

// Problem types raised for packages that did not produce test results.
const (
	ProblemBuildError = "GO_BUILD_ERROR"
	ProblemPanic      = "GO_TEST_PANIC"
)

// ToTestRuns converts package results into test runs attributed to build.
// The package import path becomes the package scope, the top-level test
// the class and the subtest path the method. Parent tests that have
// subtests are left out so each assertion counts once. Tests that never
// finished count as failures when their package panicked and are dropped
// otherwise.
func ToTestRuns(results []TestPackageResult, build int64) []hostmodel.TestRun {
	var runs []hostmodel.TestRun
	for _, pkg := range results {
		parents := parentTests(pkg.Tests)
		for _, tr := range pkg.Tests {
			if parents[tr.Name] {
				continue
			}
			status, ok := runStatus(tr.Status, pkg.Panicked)
			if !ok {
				continue
			}
			class, method, _ := strings.Cut(tr.Name, "/")
			if method == "" {
				method = class
			}
			d := tr.Duration
			at := tr.FinishedAt
			if at.IsZero() {
				at = pkg.FinishedAt
			}
			runs = append(runs, hostmodel.TestRun{
				Build: build,
				Name:  pkg.Name + "." + tr.Name,
				TestName: hostmodel.TestName{
					Suite:   Suite,
					Package: pkg.Name,
					Class:   class,
					Method:  method,
				},
				Status:     status,
				Duration:   &d,
				FinishedAt: at,
			})
		}
	}
	return runs
}

// ToProblems reports build errors and panics as build problems.
func ToProblems(results []TestPackageResult, build int64) []hostmodel.Problem {
	var problems []hostmodel.Problem
	for _, pkg := range results {
		if pkg.BuildError != "" {
			problems = append(problems, hostmodel.Problem{
				Build:    build,
				Type:     ProblemBuildError,
				Identity: pkg.Name,
				Details:  firstLine(pkg.BuildError),
			})
		}
		if pkg.Panicked {
			problems = append(problems, hostmodel.Problem{
				Build:    build,
				Type:     ProblemPanic,
				Identity: pkg.Name,
				Details:  firstLine(strings.Join(pkg.PanicOutput, "\n")),
			})
		}
	}
	return problems
}

func runStatus(s string, panicked bool) (hostmodel.Status, bool) {
	switch s {
	case StatusPass:
		return hostmodel.StatusPassed, true
	case StatusFail:
		return hostmodel.StatusFailed, true
	case StatusSkip:
		return hostmodel.StatusIgnored, true
	case "":
		return hostmodel.StatusFailed, panicked
	}
	return "", false
}

// parentTests marks every test that is a prefix of another test's path.
func parentTests(tests []TestResult) map[string]bool {
	parents := make(map[string]bool)
	for _, tr := range tests {
		for i := strings.LastIndex(tr.Name, "/"); i > 0; i = strings.LastIndex(tr.Name[:i], "/") {
			parents[tr.Name[:i]] = true
		}
	}
	return parents
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// SyntheticBuild is the build id SyntheticModel assigns to the run.
const SyntheticBuild int64 = 1

// SyntheticModel wraps a single go test run in a host model: one root
// project, one build configuration and one build finished at finishedAt.
func SyntheticModel(project, buildType string, finishedAt time.Time) (*hostmodel.Model, error) {
	var at string
	if !finishedAt.IsZero() {
		at = finishedAt.UTC().Format(time.RFC3339)
	}
	ds := &hostmodel.Dataset{
		RootProject: "_Root",
		Head:        SyntheticBuild,
		Projects:    []hostmodel.ProjectSpec{{ID: "_Root", Name: project}},
		BuildTypes:  []hostmodel.BuildTypeSpec{{ID: "go_test", Name: buildType, Project: "_Root"}},
		Builds: []hostmodel.BuildSpec{{
			ID:         SyntheticBuild,
			BuildType:  "go_test",
			Number:     "1",
			FinishedAt: at,
		}},
	}
	m, err := ds.Index()
	if err != nil {
		return nil, fmt.Errorf("synthetic model: %w", err)
	}
	return m, nil
}

// LatestFinish returns the latest package finish time, or the zero time.
func LatestFinish(results []TestPackageResult) time.Time {
	var latest time.Time
	for _, r := range results {
		if r.FinishedAt.After(latest) {
			latest = r.FinishedAt
		}
	}
	return latest
}
