package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBuild("tests", 3*time.Millisecond, 0)
	m.ObserveBuild("tests", time.Millisecond, 2)
	m.ObserveBuild("problems", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TreesBuilt.WithLabelValues("tests")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TreesBuilt.WithLabelValues("problems")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupsDropped.WithLabelValues("tests")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BuildSeconds))
}

func TestNew_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveBuild("problems", time.Millisecond, 1)

	want := `
# HELP rollup_leaf_groups_dropped_total Leaf groups dropped because no scope path could be resolved, by domain.
# TYPE rollup_leaf_groups_dropped_total counter
rollup_leaf_groups_dropped_total{domain="problems"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "rollup_leaf_groups_dropped_total"))
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
