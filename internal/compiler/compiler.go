// Package compiler turns attribute query sets into structured store queries.
package compiler

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// Compiler compiles predicates over a fixed attribute catalogue.
type Compiler struct {
	catalogue *attribute.Catalogue
	nested    NestedPaths
}

// New creates a compiler. A nil catalogue accepts any attribute; a nil
// nested policy treats every dotted prefix as nested.
func New(catalogue *attribute.Catalogue, nested NestedPaths) *Compiler {
	if nested == nil {
		nested = AllNested{}
	}
	return &Compiler{catalogue: catalogue, nested: nested}
}

// Compile builds one query equivalent to the conjunction of qs. Predicates
// under the same nested scope are joined inside a single nested clause, so
// they must all hold for the same embedded element.
func (c *Compiler) Compile(qs attribute.QuerySet) (query.Node, error) {
	for _, q := range qs {
		if c.catalogue != nil && !c.catalogue.Contains(q.Attribute()) {
			return nil, domain.NewCompilationError(q.Attribute().Name(), "unknown attribute")
		}
	}
	return c.compileGroup(groupQueries(qs, c.nested))
}

func (c *Compiler) compileGroup(g *group) (query.Node, error) {
	clauses := make([]query.Node, 0, len(g.leaves)+len(g.children))
	for _, q := range g.leaves {
		n, err := compilePredicate(q)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, n)
	}
	for _, child := range g.children {
		n, err := c.compileGroup(child)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, query.Nested{Path: child.prefix, Query: n})
	}
	return query.And(clauses...), nil
}

func compilePredicate(q attribute.Query) (query.Node, error) {
	attr := q.Attribute()
	if len(q.Values()) == 0 {
		return nil, domain.NewCompilationError(attr.Name(), "no operands")
	}
	if !supported(attr.ValueType(), q.Operator()) {
		return nil, domain.NewCompilationError(attr.Name(),
			fmt.Sprintf("operator %s not supported for %s values", q.Operator(), attr.ValueType()))
	}

	values := make([]any, len(q.Values()))
	for i, raw := range q.Values() {
		v, err := normalize(attr.ValueType(), raw)
		if err != nil {
			return nil, domain.NewCompilationError(attr.Name(), err.Error())
		}
		values[i] = v
	}

	field := attr.Name()
	if q.Operator() == attribute.Equals {
		if len(values) == 1 {
			return query.Term{Field: field, Value: values[0]}, nil
		}
		return query.Terms{Field: field, Values: values}, nil
	}

	alternatives := make([]query.Node, len(values))
	for i, v := range values {
		switch q.Operator() {
		case attribute.LessThan, attribute.Before:
			alternatives[i] = query.Range{Field: field, LT: v}
		case attribute.GreaterThan, attribute.After:
			alternatives[i] = query.Range{Field: field, GT: v}
		case attribute.Beginning:
			alternatives[i] = query.Prefix{Field: field, Value: v.(string)}
		}
	}
	return query.Or(alternatives...), nil
}

func supported(vt attribute.ValueType, op attribute.Operator) bool {
	switch op {
	case attribute.Equals:
		return true
	case attribute.LessThan, attribute.GreaterThan:
		return vt == attribute.Integer || vt == attribute.Float
	case attribute.Before, attribute.After:
		return vt == attribute.Timestamp
	case attribute.Beginning:
		return vt == attribute.String
	default:
		return false
	}
}

type keyed interface{ Key() string }

// normalize converts an operand to the literal stored in documents.
func normalize(vt attribute.ValueType, v any) (any, error) {
	switch vt {
	case attribute.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case attribute.Enum:
		switch e := v.(type) {
		case string:
			return e, nil
		case keyed:
			return e.Key(), nil
		case fmt.Stringer:
			return e.String(), nil
		}
	case attribute.Integer:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case attribute.Float:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case attribute.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case attribute.Timestamp:
		if t, ok := v.(time.Time); ok {
			return t.UTC(), nil
		}
	case attribute.Identifier:
		switch id := v.(type) {
		case content.ID:
			return int64(id), nil
		case int64:
			return id, nil
		}
	}
	return nil, fmt.Errorf("operand %v of type %T is not a %s value", v, v, vt)
}
