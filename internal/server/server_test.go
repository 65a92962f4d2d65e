package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/scope"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	f, err := os.Open("../../pkg/hostmodel/testdata/sample.yaml")
	require.NoError(t, err)
	defer f.Close()
	m, err := hostmodel.Load(f)
	require.NoError(t, err)
	return New(m, Defaults{
		MaxChildren:     5,
		OrderBy:         "failed",
		TestTieBreak:    "newest-failure-first",
		ProblemTieBreak: "newest-first",
		SplitByBuild:    true,
	}, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeTree(t *testing.T, rec *httptest.ResponseRecorder) TreeResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TreeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTree_Tests(t *testing.T) {
	resp := decodeTree(t, get(t, newTestServer(t), "/api/v1/tests/tree"))

	assert.Equal(t, "1", resp.Version)
	assert.Equal(t, "tests", resp.Domain)
	require.NotEmpty(t, resp.Nodes)
	root := resp.Nodes[0]
	assert.Equal(t, scope.Root, root.Scope.Type)
	assert.Equal(t, 5, root.Counters.Count)
	assert.Equal(t, 5, resp.Report.Records)
}

func TestTree_MaxChildrenCaps(t *testing.T) {
	resp := decodeTree(t, get(t, newTestServer(t), "/api/v1/tests/tree?maxChildren=1"))
	for _, n := range resp.Nodes {
		assert.LessOrEqual(t, len(n.Children), 1)
		assert.LessOrEqual(t, len(n.Items), 1)
	}
}

func TestTree_GroupParallel(t *testing.T) {
	resp := decodeTree(t, get(t, newTestServer(t), "/api/v1/tests/tree?groupParallel=true&splitByBuild=false"))
	var bts []string
	for _, n := range resp.Nodes {
		if n.Scope.Type == scope.BuildType {
			bts = append(bts, n.Scope.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Tests", "Compile"}, bts)
	assert.Equal(t, 2, resp.Report.Remapped)
}

func TestTree_Problems(t *testing.T) {
	resp := decodeTree(t, get(t, newTestServer(t), "/api/v1/problems/tree"))
	assert.Equal(t, "problems", resp.Domain)
	assert.Equal(t, 2, resp.Nodes[0].Counters.Count)
}

func TestTree_LLMFormat(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/tests/tree?format=llm")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "SCOPE:"))
	assert.NotContains(t, rec.Body.String(), "\x1b[")
}

func TestSubtree(t *testing.T) {
	s := newTestServer(t)
	full := decodeTree(t, get(t, s, "/api/v1/tests/tree"))

	var target int
	for _, n := range full.Nodes {
		if n.Scope.Type == scope.Package {
			target = n.ID
			break
		}
	}
	require.NotZero(t, target)

	sub := decodeTree(t, get(t, s, "/api/v1/tests/tree/"+strconv.Itoa(target)))
	assert.Equal(t, full.Nodes[0].ID, sub.Nodes[0].ID, "breadcrumb starts at the root")

	var found bool
	for _, n := range sub.Nodes {
		if n.ID == target {
			found = true
		}
		if n.Scope.Type == scope.Project || n.Scope.Type == scope.Root {
			assert.Len(t, n.Children, 1, "ancestors list only the edge towards the target")
		}
	}
	assert.True(t, found)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown node", "/api/v1/tests/tree/9999", http.StatusNotFound, "NODE_NOT_FOUND"},
		{"unknown domain", "/api/v1/builds/tree", http.StatusNotFound, "NOT_FOUND"},
		{"cap too large", "/api/v1/tests/tree?maxChildren=5000", http.StatusBadRequest, "INVALID_QUERY"},
		{"negative cap", "/api/v1/tests/tree?maxChildren=-1", http.StatusBadRequest, "INVALID_QUERY"},
		{"bad order", "/api/v1/tests/tree?orderBy=colour", http.StatusBadRequest, "INVALID_QUERY"},
		{"bad tie-break", "/api/v1/problems/tree?tieBreak=random", http.StatusBadRequest, "INVALID_QUERY"},
		{"bad format", "/api/v1/tests/tree?format=xml", http.StatusBadRequest, "INVALID_QUERY"},
		{"bad bool", "/api/v1/tests/tree?groupParallel=maybe", http.StatusBadRequest, "INVALID_QUERY"},
	}
	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/api/v1/tests/tree")
	get(t, s, "/api/v1/tests/tree")
	get(t, s, "/api/v1/problems/tree")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `rollup_trees_built_total{domain="tests"} 2`)
	assert.Contains(t, body, `rollup_trees_built_total{domain="problems"} 1`)
	assert.Contains(t, body, "rollup_tree_build_seconds_bucket")
}
