// Package testjson parses go test -json NDJSON streams and converts them
// into host model records, so a plain test run can be rolled up like a CI
// build.
package testjson

import "time"

// Actions emitted by go test -json that the collector reacts to.
const (
	ActionRun         = "run"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// Per-test status as recorded by the collector. A test that started but
// never reported an outcome has an empty status.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

// TestEvent is one line of go test -json output. ImportPath and
// FailedBuild are set by Go 1.24+ for build failures.
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	ImportPath  string    `json:"ImportPath"`
	Test        string    `json:"Test"`
	Elapsed     float64   `json:"Elapsed"`
	Output      string    `json:"Output"`
	FailedBuild string    `json:"FailedBuild"`
}

// ProcessFunc receives events from Stream.
type ProcessFunc func(TestEvent)

// TestResult is one test or subtest of a package, in the order it started.
type TestResult struct {
	Name       string
	Status     string
	Duration   time.Duration
	FinishedAt time.Time
	// Output holds the test's own output lines when it failed.
	Output []string
}

// TestPackageResult is everything a package reported.
type TestPackageResult struct {
	Name       string
	Passed     int
	Failed     int
	Skipped    int
	Duration   time.Duration
	FinishedAt time.Time
	Tests      []TestResult
	// BuildError is non-empty if the package failed to build.
	BuildError  string
	Panicked    bool
	PanicOutput []string
}

// TotalTests returns the number of tests that reported an outcome.
func (r *TestPackageResult) TotalTests() int {
	return r.Passed + r.Failed + r.Skipped
}

// Status returns "pass", "fail", or "skip" for the package.
func (r *TestPackageResult) Status() string {
	if r.BuildError != "" || r.Panicked || r.Failed > 0 {
		return "fail"
	}
	if r.Passed == 0 && r.Skipped > 0 {
		return "skip"
	}
	return "pass"
}
