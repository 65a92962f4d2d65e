package hostmodel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDataset is returned when a dataset cannot be indexed.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is the on-disk snapshot format. It is YAML; JSON documents decode
// through the same path.
type Dataset struct {
	RootProject string          `yaml:"rootProject" json:"rootProject"`
	Head        int64           `yaml:"head,omitempty" json:"head,omitempty"`
	Projects    []ProjectSpec   `yaml:"projects" json:"projects"`
	BuildTypes  []BuildTypeSpec `yaml:"buildTypes" json:"buildTypes"`
	Builds      []BuildSpec     `yaml:"builds" json:"builds"`
	Tests       []TestSpec      `yaml:"tests,omitempty" json:"tests,omitempty"`
	Problems    []ProblemSpec   `yaml:"problems,omitempty" json:"problems,omitempty"`
}

type ProjectSpec struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

type BuildTypeSpec struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Project string `yaml:"project" json:"project"`
	Virtual bool   `yaml:"virtual,omitempty" json:"virtual,omitempty"`
}

type BuildSpec struct {
	ID           int64   `yaml:"id" json:"id"`
	BuildType    string  `yaml:"buildType" json:"buildType"`
	Number       string  `yaml:"number,omitempty" json:"number,omitempty"`
	Dependencies []int64 `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	FinishedAt   string  `yaml:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

// TestSpec carries either a full Name or the explicit scope parts; explicit
// parts win. Duration uses Go duration syntax ("1.5s").
type TestSpec struct {
	Build      int64  `yaml:"build" json:"build"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	Suite      string `yaml:"suite,omitempty" json:"suite,omitempty"`
	Package    string `yaml:"package,omitempty" json:"package,omitempty"`
	Class      string `yaml:"class,omitempty" json:"class,omitempty"`
	Method     string `yaml:"method,omitempty" json:"method,omitempty"`
	Status     string `yaml:"status" json:"status"`
	NewFailure *bool  `yaml:"newFailure,omitempty" json:"newFailure,omitempty"`
	Muted      *bool  `yaml:"muted,omitempty" json:"muted,omitempty"`
	Duration   string `yaml:"duration,omitempty" json:"duration,omitempty"`
	FinishedAt string `yaml:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

type ProblemSpec struct {
	Build    int64  `yaml:"build" json:"build"`
	Type     string `yaml:"type" json:"type"`
	Identity string `yaml:"identity" json:"identity"`
	Details  string `yaml:"details,omitempty" json:"details,omitempty"`
	New      *bool  `yaml:"new,omitempty" json:"new,omitempty"`
	Muted    *bool  `yaml:"muted,omitempty" json:"muted,omitempty"`
}

// Decode reads a dataset document from r.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return &ds, nil
}

// Load decodes and indexes a dataset in one step.
func Load(r io.Reader) (*Model, error) {
	ds, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return ds.Index()
}

// Index validates the dataset and builds a Model. Dangling references
// between objects are kept; they surface later as records that cannot be
// placed in a tree. Malformed values are errors.
func (ds *Dataset) Index() (*Model, error) {
	m := &Model{
		projects:   make(map[string]Project, len(ds.Projects)),
		buildTypes: make(map[string]BuildType, len(ds.BuildTypes)),
		builds:     make(map[int64]*promotion, len(ds.Builds)),
		numbers:    make(map[string]int, len(ds.Builds)),
		head:       ds.Head,
	}

	for _, p := range ds.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: project %q has no id", ErrInvalidDataset, p.Name)
		}
		if _, dup := m.projects[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate project %q", ErrInvalidDataset, p.ID)
		}
		m.projects[p.ID] = Project{ID: p.ID, Name: p.Name, ParentID: p.Parent}
	}
	root, ok := m.projects[ds.RootProject]
	if !ok {
		return nil, fmt.Errorf("%w: root project %q not declared", ErrInvalidDataset, ds.RootProject)
	}
	m.root = root

	for _, bt := range ds.BuildTypes {
		if _, dup := m.buildTypes[bt.ID]; dup || bt.ID == "" {
			return nil, fmt.Errorf("%w: build type id %q missing or duplicated", ErrInvalidDataset, bt.ID)
		}
		m.buildTypes[bt.ID] = BuildType{ID: bt.ID, Name: bt.Name, ProjectID: bt.Project, Virtual: bt.Virtual}
	}

	for _, b := range ds.Builds {
		if _, dup := m.builds[b.ID]; dup || b.ID == 0 {
			return nil, fmt.Errorf("%w: build id %d missing or duplicated", ErrInvalidDataset, b.ID)
		}
		at, err := parseTime(b.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: build %d: %v", ErrInvalidDataset, b.ID, err)
		}
		number := b.Number
		if number == "" {
			number = fmt.Sprint(b.ID)
		}
		m.builds[b.ID] = &promotion{m: m, build: Build{
			ID:           b.ID,
			BuildTypeID:  b.BuildType,
			Number:       number,
			Dependencies: b.Dependencies,
			FinishedAt:   at,
		}}
		m.numbers[numberKey(b.BuildType, number)]++
	}
	// Dependents are the inverted dependency edges, in declaration order.
	for _, b := range ds.Builds {
		for _, dep := range b.Dependencies {
			if d, ok := m.builds[dep]; ok {
				d.dependents = append(d.dependents, b.ID)
			}
		}
	}

	m.tests = make([]TestRun, 0, len(ds.Tests))
	for i, ts := range ds.Tests {
		run, err := ts.toRun()
		if err != nil {
			return nil, fmt.Errorf("%w: test %d: %v", ErrInvalidDataset, i, err)
		}
		m.tests = append(m.tests, run)
	}

	m.problems = make([]Problem, 0, len(ds.Problems))
	for i, ps := range ds.Problems {
		if ps.Type == "" {
			return nil, fmt.Errorf("%w: problem %d has no type", ErrInvalidDataset, i)
		}
		m.problems = append(m.problems, Problem{
			Build:    ps.Build,
			Type:     ps.Type,
			Identity: ps.Identity,
			Details:  ps.Details,
			New:      ps.New,
			Muted:    ps.Muted,
		})
	}
	return m, nil
}

func (ts TestSpec) toRun() (TestRun, error) {
	status := Status(ts.Status)
	if !status.Valid() {
		return TestRun{}, fmt.Errorf("unknown status %q", ts.Status)
	}
	at, err := parseTime(ts.FinishedAt)
	if err != nil {
		return TestRun{}, err
	}
	run := TestRun{
		Build:      ts.Build,
		Name:       ts.Name,
		Status:     status,
		NewFailure: ts.NewFailure,
		Muted:      ts.Muted,
		FinishedAt: at,
	}
	if ts.Duration != "" {
		d, err := time.ParseDuration(ts.Duration)
		if err != nil {
			return TestRun{}, fmt.Errorf("duration: %w", err)
		}
		run.Duration = &d
	}

	run.TestName = ParseTestName(ts.Name)
	if ts.Package != "" || ts.Class != "" || ts.Method != "" {
		run.TestName = TestName{Suite: ts.Suite, Package: ts.Package, Class: ts.Class, Method: ts.Method}
		if run.Package == "" {
			run.Package = DefaultName
		}
		if run.Class == "" {
			run.Class = DefaultName
		}
	} else if ts.Suite != "" {
		run.Suite = ts.Suite
	}
	if run.Name == "" {
		run.Name = run.TestName.String()
	}
	if run.Method == "" {
		return TestRun{}, errors.New("test has neither name nor method")
	}
	return run, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("finishedAt: %w", err)
	}
	return t, nil
}
