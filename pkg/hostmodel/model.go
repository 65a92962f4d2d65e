// Package hostmodel holds the CI host objects a rollup is built from:
// projects, build configurations, builds with their dependency graph, test
// runs and build problems.
//
// A Model is loaded once from a Dataset and is read-only afterwards, so it
// can be shared between requests.
package hostmodel

import (
	"time"

	"github.com/dkoosis/rollup/pkg/remap"
)

// Project is a node of the project hierarchy. The root project has an
// empty ParentID.
type Project struct {
	ID       string
	Name     string
	ParentID string
}

// BuildType is a build configuration.
type BuildType struct {
	ID        string
	Name      string
	ProjectID string
	// Virtual build types are the parallel shards of a split configuration.
	Virtual bool
}

// Build is one finished build instance, also called a promotion.
type Build struct {
	ID           int64
	BuildTypeID  string
	Number       string
	Dependencies []int64
	FinishedAt   time.Time
}

// Status is the outcome of a test run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusIgnored Status = "ignored"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusIgnored:
		return true
	}
	return false
}

// TestRun is one execution of a test in a build.
type TestRun struct {
	Build int64
	Name  string
	TestName
	Status Status
	// Optional flags; nil means the host did not report them.
	NewFailure *bool
	Muted      *bool
	Duration   *time.Duration
	FinishedAt time.Time
}

// Failed reports whether the run failed.
func (r TestRun) Failed() bool { return r.Status == StatusFailed }

// Problem is a build problem occurrence.
type Problem struct {
	Build    int64
	Type     string
	Identity string
	Details  string
	New      *bool
	Muted    *bool
}

// Model is an indexed, read-only view of a Dataset.
type Model struct {
	root       Project
	projects   map[string]Project
	buildTypes map[string]BuildType
	builds     map[int64]*promotion
	numbers    map[string]int
	head       int64
	tests      []TestRun
	problems   []Problem
}

// RootProject returns the project every other project descends from.
func (m *Model) RootProject() Project { return m.root }

// Project looks up a project by id.
func (m *Model) Project(id string) (Project, bool) {
	p, ok := m.projects[id]
	return p, ok
}

// ProjectChain returns the ancestors of id, root-most first and ending with
// id itself. The root project is not part of the chain. It returns false
// when the chain is broken by an unknown parent or a cycle.
func (m *Model) ProjectChain(id string) ([]Project, bool) {
	var chain []Project
	seen := make(map[string]bool)
	for cur := id; cur != m.root.ID; {
		p, ok := m.projects[cur]
		if !ok || seen[cur] || p.ParentID == "" {
			return nil, false
		}
		seen[cur] = true
		chain = append(chain, p)
		cur = p.ParentID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}

// BuildType looks up a build configuration by id.
func (m *Model) BuildType(id string) (BuildType, bool) {
	bt, ok := m.buildTypes[id]
	return bt, ok
}

// Build looks up a build by id.
func (m *Model) Build(id int64) (Build, bool) {
	p, ok := m.builds[id]
	if !ok {
		return Build{}, false
	}
	return p.build, true
}

// SharedBuildNumber reports whether another build of b's configuration
// carries the same number.
func (m *Model) SharedBuildNumber(b Build) bool {
	return m.numbers[numberKey(b.BuildTypeID, b.Number)] > 1
}

func numberKey(buildType, number string) string { return buildType + "\x00" + number }

// Promotion returns the build as a node of the dependency graph.
func (m *Model) Promotion(id int64) (remap.Promotion, bool) {
	p, ok := m.builds[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// Head returns the build the dataset was captured for, or 0.
func (m *Model) Head() int64 { return m.head }

// Tests returns the test runs in dataset order.
func (m *Model) Tests() []TestRun { return m.tests }

// Problems returns the build problems in dataset order.
func (m *Model) Problems() []Problem { return m.problems }

// WithRecords returns a model sharing m's projects, configurations and
// builds but holding tests and problems instead of m's records.
func (m *Model) WithRecords(tests []TestRun, problems []Problem) *Model {
	cp := *m
	cp.tests = tests
	cp.problems = problems
	return &cp
}
