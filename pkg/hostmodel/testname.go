package hostmodel

import "strings"

// DefaultName stands in for a missing package or class.
const DefaultName = "<default>"

// TestName is a fully qualified test name split into its scope parts.
// Suite may be empty.
type TestName struct {
	Suite   string
	Package string
	Class   string
	Method  string
}

// ParseTestName splits names of the form "suite: pkg.sub.Class.method".
// The suite prefix is optional. A name with a single dot has no package,
// and a name without dots has neither package nor class. A parameter list
// starting at the first "(" stays on the method untouched.
func ParseTestName(full string) TestName {
	var tn TestName
	head, params := strings.TrimSpace(full), ""
	if i := strings.IndexByte(head, '('); i >= 0 {
		head, params = head[:i], head[i:]
	}
	if suite, after, ok := strings.Cut(head, ": "); ok {
		tn.Suite = strings.TrimSpace(suite)
		head = strings.TrimLeft(after, " ")
	}

	parts := strings.Split(head, ".")
	n := len(parts)
	switch n {
	case 1:
		tn.Package, tn.Class = DefaultName, DefaultName
	case 2:
		tn.Package, tn.Class = DefaultName, parts[0]
	default:
		tn.Package = strings.Join(parts[:n-2], ".")
		tn.Class = parts[n-2]
	}
	tn.Method = parts[n-1] + params
	if tn.Package == "" {
		tn.Package = DefaultName
	}
	if tn.Class == "" {
		tn.Class = DefaultName
	}
	return tn
}

// String renders the name back in the parsed form.
func (tn TestName) String() string {
	var b strings.Builder
	if tn.Suite != "" {
		b.WriteString(tn.Suite)
		b.WriteString(": ")
	}
	if tn.Package != DefaultName {
		b.WriteString(tn.Package)
		b.WriteByte('.')
	}
	if tn.Class != DefaultName {
		b.WriteString(tn.Class)
		b.WriteByte('.')
	}
	b.WriteString(tn.Method)
	return b.String()
}
