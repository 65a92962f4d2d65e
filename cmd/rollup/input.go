package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dkoosis/rollup/internal/detect"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/rollup"
	"github.com/dkoosis/rollup/pkg/scopetree"
	"github.com/dkoosis/rollup/pkg/testjson"
)

// readInput reads the whole input named by --input.
func (a *app) readInput() ([]byte, error) {
	var r io.Reader = a.stdin
	if a.input != "-" {
		f, err := os.Open(a.input)
		if err != nil {
			return nil, usageError{err: err}
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, usagef("reading input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, usagef("no input (pipe a snapshot or go test -json, or pass --input)")
	}
	return data, nil
}

// loadModel reads the input and turns it into a host model, whatever its
// format.
func (a *app) loadModel(ctx context.Context) (*hostmodel.Model, error) {
	data, err := a.readInput()
	if err != nil {
		return nil, err
	}

	format := detect.Sniff(data)
	a.logger.Debug("input detected", "format", format, "bytes", len(data))
	switch format {
	case detect.Dataset:
		m, err := hostmodel.Load(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		return m, nil
	case detect.GoTestJSON:
		return a.loadGoTest(ctx, data)
	default:
		return nil, usagef("unrecognized input (expected a snapshot with rootProject, or go test -json)")
	}
}

func (a *app) loadGoTest(ctx context.Context, data []byte) (*hostmodel.Model, error) {
	results, malformed, err := testjson.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, usagef("parsing go test -json: %w", err)
	}
	if malformed > 0 {
		a.logger.Warn("malformed lines skipped", "count", malformed)
	}
	a.logger.Debug("go test results", "packages", len(results))

	m, err := testjson.SyntheticModel(a.project, "go test", testjson.LatestFinish(results))
	if err != nil {
		return nil, err
	}
	return m.WithRecords(
		testjson.ToTestRuns(results, testjson.SyntheticBuild),
		testjson.ToProblems(results, testjson.SyntheticBuild),
	), nil
}

// build loads the input and builds the tree for --domain.
func (a *app) build(ctx context.Context) (*rollup.Built, error) {
	m, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	head := a.head
	if head == 0 {
		head = m.Head()
	}
	built, err := rollup.Build(m, rollup.Domain(a.domain), rollup.Options{
		SplitByBuild:  a.cfg.SplitByBuild,
		GroupParallel: a.cfg.GroupParallel,
		Head:          head,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("tree built", "domain", a.domain, "nodes", built.Len(), "report", built.Report)
	return built, nil
}

// view is the slice requested by configuration, rooted at focus.
func (a *app) view(focus int) rollup.View {
	tie := a.cfg.TestTieBreak
	if rollup.Domain(a.domain) == rollup.Problems {
		tie = a.cfg.ProblemTieBreak
	}
	return rollup.View{
		MaxChildren: a.cfg.MaxChildren,
		OrderBy:     a.cfg.OrderBy,
		TieBreak:    tie,
		Focus:       scopetree.NodeID(focus),
	}
}
