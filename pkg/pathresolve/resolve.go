// Package pathresolve maps a leaf group onto its scope path: the list of
// scopes from the top-most project down to the terminal scope.
package pathresolve

import (
	"strconv"

	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/scope"
)

// Host answers the project and build configuration lookups a path needs.
// *hostmodel.Model implements it.
type Host interface {
	ProjectChain(id string) ([]hostmodel.Project, bool)
	BuildType(id string) (hostmodel.BuildType, bool)
	SharedBuildNumber(b hostmodel.Build) bool
}

// Resolver builds scope paths. The zero value is not usable; Host is
// required.
type Resolver struct {
	Host Host
	// SplitByBuild adds a build scope under the build configuration in
	// test paths. Problem paths always carry it.
	SplitByBuild bool
}

// TestPath returns project chain, build configuration, optional build,
// suite (when named), package and class. The class is the leaf. An
// unresolvable build yields nil.
func (r Resolver) TestPath(b hostmodel.Build, tn hostmodel.TestName) []scope.Scope {
	path, key, ok := r.prefix(b, r.SplitByBuild)
	if !ok {
		return nil
	}
	if tn.Suite != "" {
		key = append(key, tn.Suite)
		path = append(path, scope.New(scope.Suite, tn.Suite, false, key...))
	}
	key = append(key, tn.Package)
	path = append(path, scope.New(scope.Package, tn.Package, false, key...))
	key = append(key, tn.Class)
	return append(path, scope.New(scope.Class, tn.Class, true, key...))
}

// ProblemPath returns project chain, build configuration, build and the
// problem type as leaf. An unresolvable build yields nil.
func (r Resolver) ProblemPath(b hostmodel.Build, problemType string) []scope.Scope {
	path, key, ok := r.prefix(b, true)
	if !ok {
		return nil
	}
	key = append(key, problemType)
	return append(path, scope.New(scope.ProblemType, problemType, true, key...))
}

// prefix resolves the part shared by both domains. key is the
// ancestor-qualified key of the last scope in path.
func (r Resolver) prefix(b hostmodel.Build, withBuild bool) (path []scope.Scope, key []string, ok bool) {
	bt, ok := r.Host.BuildType(b.BuildTypeID)
	if !ok {
		return nil, nil, false
	}
	chain, ok := r.Host.ProjectChain(bt.ProjectID)
	if !ok {
		return nil, nil, false
	}

	path = make([]scope.Scope, 0, len(chain)+6)
	key = make([]string, 0, len(chain)+6)
	for _, p := range chain {
		key = append(key, p.ID)
		path = append(path, scope.New(scope.Project, p.Name, false, key...))
	}
	key = append(key, bt.ID)
	path = append(path, scope.New(scope.BuildType, bt.Name, false, key...))
	if withBuild {
		key = append(key, strconv.FormatInt(b.ID, 10))
		path = append(path, scope.New(scope.Build, r.buildName(b), false, key...))
	}
	return path, key, true
}

// buildName is "#number". Builds of one configuration that share a number
// would merge in the tree by name, so they also carry the build id.
func (r Resolver) buildName(b hostmodel.Build) string {
	name := "#" + b.Number
	if r.Host.SharedBuildNumber(b) {
		name += " (id " + strconv.FormatInt(b.ID, 10) + ")"
	}
	return name
}
