// Package scope describes the named levels a leaf record is grouped under.
package scope

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Type is a hierarchy level. Ordering is by Rank, never by constant value.
type Type string

const (
	Root        Type = "root"
	Project     Type = "project"
	BuildType   Type = "buildType"
	Build       Type = "build"
	Suite       Type = "suite"
	ProblemType Type = "problemType"
	Package     Type = "package"
	Class       Type = "class"
)

// ranks is the declared total order. Suite and ProblemType occupy the same
// level in the test and problem domains respectively.
var ranks = map[Type]int{
	Root:        0,
	Project:     10,
	BuildType:   20,
	Build:       30,
	Suite:       40,
	ProblemType: 40,
	Package:     50,
	Class:       60,
}

// Rank returns the position of t in the hierarchy, or -1 for an unknown type.
func (t Type) Rank() int {
	if r, ok := ranks[t]; ok {
		return r
	}
	return -1
}

// Less reports whether t sits above other in the hierarchy.
func (t Type) Less(other Type) bool {
	return t.Rank() < other.Rank()
}

// Valid reports whether t is a declared type.
func (t Type) Valid() bool {
	return t.Rank() >= 0
}

func (t Type) String() string {
	return string(t)
}

// Scope is one resolved level of a leaf group's path.
type Scope struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Type   `json:"type"`
	Leaf bool   `json:"leaf"`
}

// New builds a scope whose ID digests its type and the full
// ancestor-qualified key, so same-named scopes in different branches differ.
func New(typ Type, name string, leaf bool, key ...string) Scope {
	parts := make([]string, 0, len(key)+1)
	parts = append(parts, string(typ))
	parts = append(parts, key...)
	return Scope{
		ID:   Digest(parts...),
		Name: name,
		Type: typ,
		Leaf: leaf,
	}
}

// NewRoot builds the root scope of a tree.
func NewRoot(name string) Scope {
	return New(Root, name, false, name)
}

// Key is the in-memory identity used when merging independently resolved
// groups into one tree.
type Key struct {
	Name string
	Type Type
}

// Key returns the (name, type) pair of s.
func (s Scope) Key() Key {
	return Key{Name: s.Name, Type: s.Type}
}

// Digest hashes parts with BLAKE2b-256 and returns the first 16 bytes as hex.
// Parts are NUL-separated so ("ab","c") and ("a","bc") never collide.
func Digest(parts ...string) string {
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}
