// Package query is the structured query language understood by the document
// stores. Trees serialize to an Elasticsearch-style JSON DSL.
package query

import (
	"encoding/json"
	"time"
)

// Node is a clause in a query tree.
type Node interface {
	json.Marshaler
	node()
}

// Bool combines clauses. Every Must and Filter clause must match; when Should
// is non-empty at least one of its clauses must match.
type Bool struct {
	Must   []Node
	Should []Node
	Filter []Node
}

// Nested scopes Query to the elements of the object array at Path. A
// document matches when one element satisfies the whole inner query.
type Nested struct {
	Path  string
	Query Node
}

// Term matches a field equal to Value.
type Term struct {
	Field string
	Value any
}

// Terms matches a field equal to any of Values.
type Terms struct {
	Field  string
	Values []any
}

// Range bounds a numeric or timestamp field. Nil bounds are open.
type Range struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

// Prefix matches string fields beginning with Value.
type Prefix struct {
	Field string
	Value string
}

// MatchAll matches every document.
type MatchAll struct{}

func (Bool) node()     {}
func (Nested) node()   {}
func (Term) node()     {}
func (Terms) node()    {}
func (Range) node()    {}
func (Prefix) node()   {}
func (MatchAll) node() {}

// And joins clauses into one conjunction, collapsing trivial cases.
func And(nodes ...Node) Node {
	switch len(nodes) {
	case 0:
		return MatchAll{}
	case 1:
		return nodes[0]
	default:
		return Bool{Must: nodes}
	}
}

// Or joins clauses into one disjunction, collapsing the single-clause case.
func Or(nodes ...Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return Bool{Should: nodes}
}

// MarshalJSON renders {"bool": {...}}.
func (b Bool) MarshalJSON() ([]byte, error) {
	body := map[string][]Node{}
	if len(b.Must) > 0 {
		body["must"] = b.Must
	}
	if len(b.Should) > 0 {
		body["should"] = b.Should
	}
	if len(b.Filter) > 0 {
		body["filter"] = b.Filter
	}
	return json.Marshal(map[string]any{"bool": body})
}

// MarshalJSON renders {"nested": {"path": ..., "query": ...}}.
func (n Nested) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"nested": map[string]any{"path": n.Path, "query": n.Query},
	})
}

// MarshalJSON renders {"term": {field: value}}.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"term": map[string]any{t.Field: literal(t.Value)}})
}

// MarshalJSON renders {"terms": {field: [values]}}.
func (t Terms) MarshalJSON() ([]byte, error) {
	vals := make([]any, len(t.Values))
	for i, v := range t.Values {
		vals[i] = literal(v)
	}
	return json.Marshal(map[string]any{"terms": map[string]any{t.Field: vals}})
}

// MarshalJSON renders {"range": {field: {"gt": ...}}}.
func (r Range) MarshalJSON() ([]byte, error) {
	bounds := map[string]any{}
	if r.GT != nil {
		bounds["gt"] = literal(r.GT)
	}
	if r.GTE != nil {
		bounds["gte"] = literal(r.GTE)
	}
	if r.LT != nil {
		bounds["lt"] = literal(r.LT)
	}
	if r.LTE != nil {
		bounds["lte"] = literal(r.LTE)
	}
	return json.Marshal(map[string]any{"range": map[string]any{r.Field: bounds}})
}

// MarshalJSON renders {"prefix": {field: value}}.
func (p Prefix) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"prefix": map[string]any{p.Field: p.Value}})
}

// MarshalJSON renders {"match_all": {}}.
func (MatchAll) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

func literal(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

// Walk visits n and every descendant depth-first. scope is the innermost
// nested path enclosing each node.
func Walk(n Node, fn func(scope string, n Node)) {
	walk("", n, fn)
}

func walk(scope string, n Node, fn func(string, Node)) {
	fn(scope, n)
	switch v := n.(type) {
	case Bool:
		for _, c := range v.Must {
			walk(scope, c, fn)
		}
		for _, c := range v.Should {
			walk(scope, c, fn)
		}
		for _, c := range v.Filter {
			walk(scope, c, fn)
		}
	case Nested:
		walk(v.Path, v.Query, fn)
	}
}
