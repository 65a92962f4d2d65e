package rollup

import (
	"fmt"
	"log/slog"

	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/render"
)

// Built holds the canonical tree of one domain so that it can be sliced
// repeatedly with different views.
type Built struct {
	Domain Domain
	Title  string
	Report Report

	tests    *TestTree
	problems *ProblemTree
}

// Build builds the tree of domain from every record in m.
func Build(m *hostmodel.Model, domain Domain, opts Options, logger *slog.Logger) (*Built, error) {
	b := &Built{Domain: domain, Title: m.RootProject().Name}
	var err error
	switch domain {
	case Tests:
		b.tests, b.Report, err = BuildTestTree(m, m.Tests(), opts, logger)
	case Problems:
		b.problems, b.Report, err = BuildProblemTree(m, m.Problems(), opts, logger)
	default:
		_, err = ParseDomain(string(domain))
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Len is the number of nodes in the canonical tree.
func (b *Built) Len() int {
	if b.tests != nil {
		return b.tests.Len()
	}
	return b.problems.Len()
}

// Document slices the tree with v and flattens the result for rendering.
// A Focus unknown to the tree returns an error wrapping
// scopetree.ErrNotFound.
func (b *Built) Document(v View) (render.Document, error) {
	switch b.Domain {
	case Tests:
		nodes, err := SliceTests(b.tests, v)
		if err != nil {
			return render.Document{}, err
		}
		return render.FromNodes(string(b.Domain), b.Title, b.tests, nodes, render.TestItem), nil
	case Problems:
		nodes, err := SliceProblems(b.problems, v)
		if err != nil {
			return render.Document{}, err
		}
		return render.FromNodes(string(b.Domain), b.Title, b.problems, nodes, render.ProblemItem), nil
	}
	return render.Document{}, fmt.Errorf("unknown domain %q", b.Domain)
}
