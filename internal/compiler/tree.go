package compiler

import (
	"strings"

	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
)

// NestedPaths reports whether a dotted path names an array of nested
// objects, whose elements must be matched one at a time.
type NestedPaths interface {
	IsNested(path string) bool
}

// AllNested treats every dotted prefix as a nested scope.
type AllNested struct{}

// IsNested always returns true.
func (AllNested) IsNested(string) bool { return true }

// NestedSet is a fixed set of nested paths.
type NestedSet map[string]struct{}

// NewNestedSet builds a set from paths.
func NewNestedSet(paths ...string) NestedSet {
	s := make(NestedSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// IsNested reports membership.
func (s NestedSet) IsNested(path string) bool {
	_, ok := s[path]
	return ok
}

// group is one nested scope: the predicates that live directly in it and the
// deeper scopes below it. The root group has an empty prefix.
type group struct {
	prefix   string
	leaves   []attribute.Query
	children []*group
	byPrefix map[string]*group
}

func newGroup(prefix string) *group {
	return &group{prefix: prefix, byPrefix: map[string]*group{}}
}

func (g *group) child(prefix string) *group {
	if c, ok := g.byPrefix[prefix]; ok {
		return c
	}
	c := newGroup(prefix)
	g.byPrefix[prefix] = c
	g.children = append(g.children, c)
	return c
}

// scopes lists the nested prefixes of name from outermost to innermost.
// "one.two.first" under AllNested yields ["one", "one.two"].
func scopes(name string, nested NestedPaths) []string {
	segs := strings.Split(name, ".")
	var out []string
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], ".")
		if nested.IsNested(prefix) {
			out = append(out, prefix)
		}
	}
	return out
}

// groupQueries places each predicate in the innermost scope of its path so
// predicates sharing a scope are compiled into one nested clause.
func groupQueries(qs attribute.QuerySet, nested NestedPaths) *group {
	root := newGroup("")
	for _, q := range qs {
		g := root
		for _, prefix := range scopes(q.Attribute().Name(), nested) {
			g = g.child(prefix)
		}
		g.leaves = append(g.leaves, q)
	}
	return root
}
