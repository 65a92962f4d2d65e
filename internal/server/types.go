package server

import (
	"github.com/dkoosis/rollup/pkg/render"
	"github.com/dkoosis/rollup/pkg/rollup"
)

// treeQuery is bound from the query string. Pointers distinguish absent
// parameters from zero values.
type treeQuery struct {
	MaxChildren   *int   `form:"maxChildren" binding:"omitempty,min=0,max=1000"`
	OrderBy       string `form:"orderBy" binding:"omitempty,nodeorder"`
	TieBreak      string `form:"tieBreak"`
	SplitByBuild  *bool  `form:"splitByBuild"`
	GroupParallel *bool  `form:"groupParallel"`
	Head          *int64 `form:"head" binding:"omitempty,min=1"`
	Format        string `form:"format" binding:"omitempty,oneof=json llm"`
}

// treeURI is bound from the path.
type treeURI struct {
	Domain string `uri:"domain" binding:"required,oneof=tests problems"`
	Node   int    `uri:"node" binding:"omitempty,min=1"`
}

// TreeResponse is the JSON body of both tree endpoints.
type TreeResponse struct {
	Version string `json:"version"`
	render.Document
	Report ReportBody `json:"report"`
}

// ReportBody summarizes what happened to the input records.
type ReportBody struct {
	Records  int `json:"records"`
	Groups   int `json:"groups"`
	Dropped  int `json:"dropped"`
	Remapped int `json:"remapped"`
}

func reportBody(r rollup.Report) ReportBody {
	return ReportBody{Records: r.Records, Groups: r.Groups, Dropped: r.Dropped, Remapped: r.Remapped}
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
