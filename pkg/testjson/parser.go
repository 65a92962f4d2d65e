package testjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const maxLine = 1024 * 1024

// Parse reads a whole go test -json stream and returns one result per
// package that ran tests, failed to build or panicked, in the order the
// packages first appeared. It also returns the number of lines that were
// not JSON. A cancelled ctx stops reading and returns what was collected so
// far together with ctx.Err().
func Parse(ctx context.Context, r io.Reader) ([]TestPackageResult, int, error) {
	c := newCollector()
	malformed, err := Stream(ctx, r, c.add)
	if err != nil {
		err = fmt.Errorf("reading test events: %w", err)
	}
	return c.results(), malformed, err
}

type line struct {
	data []byte
	err  error
}

// Stream decodes events line by line and calls fn for each one, until EOF
// or ctx is done. Lines that are not JSON are counted and skipped.
//
// The reader is scanned on its own goroutine. When ctx is done Stream closes
// r if it is an io.Closer so that goroutine can exit; otherwise the caller
// owns unblocking it.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (int, error) {
	lines := make(chan line)
	go scan(ctx, r, lines)

	var malformed int
	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return malformed, nil
			}
			if l.err != nil {
				return malformed, l.err
			}
			var e TestEvent
			if err := json.Unmarshal(l.data, &e); err != nil {
				malformed++
				continue
			}
			fn(e)
		}
	}
}

func scan(ctx context.Context, r io.Reader, out chan<- line) {
	defer close(out)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	for s.Scan() {
		if len(s.Bytes()) == 0 {
			continue
		}
		select {
		case out <- line{data: append([]byte(nil), s.Bytes()...)}:
		case <-ctx.Done():
			return
		}
	}
	if err := s.Err(); err != nil {
		select {
		case out <- line{err: err}:
		case <-ctx.Done():
		}
	}
}

// collector folds events into per-package results.
type collector struct {
	packages map[string]*pkgState
	order    []string
	// build output by import path, for Go 1.24+ build failures
	buildOutput map[string][]string
}

type pkgState struct {
	result TestPackageResult
	tests  map[string]int
	// output lines per test; "" holds package-level output
	output map[string][]string
}

func newCollector() *collector {
	return &collector{
		packages:    make(map[string]*pkgState),
		buildOutput: make(map[string][]string),
	}
}

func (c *collector) pkg(name string) *pkgState {
	if p, ok := c.packages[name]; ok {
		return p
	}
	p := &pkgState{
		result: TestPackageResult{Name: name},
		tests:  make(map[string]int),
		output: make(map[string][]string),
	}
	c.packages[name] = p
	c.order = append(c.order, name)
	return p
}

func (c *collector) add(e TestEvent) {
	switch e.Action {
	case ActionBuildOutput:
		if out := strings.TrimRight(e.Output, "\n"); out != "" {
			c.buildOutput[e.ImportPath] = append(c.buildOutput[e.ImportPath], out)
		}
		return
	case ActionBuildFail:
		return
	}
	if e.Package == "" {
		return
	}

	p := c.pkg(e.Package)
	elapsed := time.Duration(e.Elapsed * float64(time.Second))
	switch e.Action {
	case ActionRun:
		p.test(e.Test)
	case ActionPass, ActionFail, ActionSkip:
		if e.Test == "" {
			c.finishPackage(p, e, elapsed)
			return
		}
		p.finishTest(e, elapsed)
	case ActionOutput:
		p.addOutput(e)
	}
}

func (c *collector) finishPackage(p *pkgState, e TestEvent, elapsed time.Duration) {
	p.result.Duration = elapsed
	p.result.FinishedAt = e.Time
	if e.Action != ActionFail || p.result.TotalTests() > 0 {
		return
	}
	switch {
	case e.FailedBuild != "":
		out := c.buildOutput[e.FailedBuild]
		if len(out) == 0 {
			out = []string{"build failed: " + e.FailedBuild}
		}
		p.result.BuildError = strings.Join(out, "\n")
	case !p.result.Panicked:
		// Before Go 1.24 the compiler output arrives as package output.
		p.result.BuildError = strings.Join(p.output[""], "\n")
	}
}

// test returns the index of name in Tests, adding it on first sight.
func (p *pkgState) test(name string) int {
	if i, ok := p.tests[name]; ok {
		return i
	}
	p.tests[name] = len(p.result.Tests)
	p.result.Tests = append(p.result.Tests, TestResult{Name: name})
	return p.tests[name]
}

func (p *pkgState) finishTest(e TestEvent, elapsed time.Duration) {
	tr := &p.result.Tests[p.test(e.Test)]
	tr.Duration = elapsed
	tr.FinishedAt = e.Time
	switch e.Action {
	case ActionPass:
		tr.Status = StatusPass
		p.result.Passed++
	case ActionFail:
		tr.Status = StatusFail
		tr.Output = p.output[e.Test]
		p.result.Failed++
	case ActionSkip:
		tr.Status = StatusSkip
		p.result.Skipped++
	}
}

func (p *pkgState) addOutput(e TestEvent) {
	out := strings.TrimRight(e.Output, "\n")
	if out == "" {
		return
	}
	p.output[e.Test] = append(p.output[e.Test], out)
	if strings.HasPrefix(out, "panic:") || (p.result.Panicked && strings.HasPrefix(out, "goroutine ")) {
		p.result.Panicked = true
		p.result.PanicOutput = append(p.result.PanicOutput, out)
	}
}

func (c *collector) results() []TestPackageResult {
	out := make([]TestPackageResult, 0, len(c.order))
	for _, name := range c.order {
		r := c.packages[name].result
		if len(r.Tests) == 0 && r.BuildError == "" && !r.Panicked {
			continue
		}
		out = append(out, r)
	}
	return out
}
