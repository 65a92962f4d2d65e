package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkoosis/rollup/pkg/ordering"
	"github.com/dkoosis/rollup/pkg/render"
	"github.com/dkoosis/rollup/pkg/rollup"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleTree handles GET /api/v1/:domain/tree and
// GET /api/v1/:domain/tree/:node.
//
//	200 OK: TreeResponse; with :node, the ancestors of node come first
//	400 Bad Request: invalid query parameters
//	404 Not Found: unknown domain, or node is not in the tree built for this query
func (s *Server) handleTree(c *gin.Context) {
	var uri treeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		s.fail(c, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	var q treeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	}
	domain := rollup.Domain(uri.Domain)

	start := time.Now()
	built, err := rollup.Build(s.model, domain, s.options(q), s.logger)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "BUILD_FAILED", err)
		return
	}
	s.metrics.ObserveBuild(uri.Domain, time.Since(start), built.Report.Dropped)

	doc, err := built.Document(s.view(domain, q, uri.Node))
	switch {
	case errors.Is(err, scopetree.ErrNotFound):
		s.fail(c, http.StatusNotFound, "NODE_NOT_FOUND", err)
		return
	case errors.Is(err, ordering.ErrUnknownOrder):
		s.fail(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	case err != nil:
		s.fail(c, http.StatusInternalServerError, "SLICE_FAILED", err)
		return
	}

	if q.Format == render.FormatLLM {
		c.String(http.StatusOK, render.NewLLM().Render(doc))
		return
	}
	c.JSON(http.StatusOK, TreeResponse{
		Version:  render.JSONVersion,
		Document: doc,
		Report:   reportBody(built.Report),
	})
}

func (s *Server) options(q treeQuery) rollup.Options {
	opts := rollup.Options{
		SplitByBuild:  s.defaults.SplitByBuild,
		GroupParallel: s.defaults.GroupParallel,
		Head:          s.model.Head(),
	}
	if q.SplitByBuild != nil {
		opts.SplitByBuild = *q.SplitByBuild
	}
	if q.GroupParallel != nil {
		opts.GroupParallel = *q.GroupParallel
	}
	if q.Head != nil {
		opts.Head = *q.Head
	}
	return opts
}

func (s *Server) view(domain rollup.Domain, q treeQuery, node int) rollup.View {
	v := rollup.View{
		MaxChildren: s.defaults.MaxChildren,
		OrderBy:     s.defaults.OrderBy,
		TieBreak:    q.TieBreak,
		Focus:       scopetree.NodeID(node),
	}
	if q.MaxChildren != nil {
		v.MaxChildren = *q.MaxChildren
	}
	if q.OrderBy != "" {
		v.OrderBy = q.OrderBy
	}
	if v.TieBreak == "" {
		v.TieBreak = s.defaults.TestTieBreak
		if domain == rollup.Problems {
			v.TieBreak = s.defaults.ProblemTieBreak
		}
	}
	return v
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", c.Request.URL.Path, "code", code, "err", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
