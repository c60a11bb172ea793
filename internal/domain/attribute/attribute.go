// Package attribute describes queryable fields as typed dotted paths and the
// predicates callers build over them.
package attribute

import (
	"fmt"
	"strings"
)

// ValueType is the declared type of an attribute's values.
type ValueType string

// Value type constants.
const (
	String     ValueType = "string"
	Integer    ValueType = "integer"
	Float      ValueType = "float"
	Boolean    ValueType = "boolean"
	Enum       ValueType = "enum"
	Timestamp  ValueType = "timestamp"
	Identifier ValueType = "identifier"
)

// EntityType names the entity an attribute belongs to.
type EntityType string

// Entity type constants.
const (
	EntityContent EntityType = "content"
	EntityTopic   EntityType = "topic"
)

// Attribute is an immutable description of one queryable field.
type Attribute struct {
	name        string
	valueType   ValueType
	multiValued bool
	owner       EntityType
}

// New creates an attribute. Panics on an empty name since attributes are
// declared statically.
func New(name string, vt ValueType, owner EntityType, multiValued bool) Attribute {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		panic(fmt.Sprintf("attribute: invalid name %q", name))
	}
	return Attribute{name: name, valueType: vt, multiValued: multiValued, owner: owner}
}

// Name returns the dotted path.
func (a Attribute) Name() string { return a.name }

// ValueType returns the declared value type.
func (a Attribute) ValueType() ValueType { return a.valueType }

// MultiValued reports whether a document may carry several values.
func (a Attribute) MultiValued() bool { return a.multiValued }

// Owner returns the owning entity type.
func (a Attribute) Owner() EntityType { return a.owner }

// Segments splits the dotted path.
func (a Attribute) Segments() []string { return strings.Split(a.name, ".") }

// Query builds a predicate over this attribute.
func (a Attribute) Query(op Operator, values ...any) Query {
	return Query{attribute: a, operator: op, values: values}
}

// Equals is shorthand for Query(Equals, values...).
func (a Attribute) Equals(values ...any) Query { return a.Query(Equals, values...) }

// Operator is a comparison applied by a predicate.
type Operator string

// Operator constants.
const (
	Equals      Operator = "equals"
	LessThan    Operator = "less_than"
	GreaterThan Operator = "greater_than"
	Before      Operator = "before"
	After       Operator = "after"
	Beginning   Operator = "beginning"
)

// ParseOperator validates an operator name.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case Equals, LessThan, GreaterThan, Before, After, Beginning:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operator %q", s)
	}
}

// Query is a single predicate: attribute, operator, and OR-ed operands.
type Query struct {
	attribute Attribute
	operator  Operator
	values    []any
}

// Attribute returns the queried attribute.
func (q Query) Attribute() Attribute { return q.attribute }

// Operator returns the comparison operator.
func (q Query) Operator() Operator { return q.operator }

// Values returns the operands. Any one of them may satisfy the predicate.
func (q Query) Values() []any { return q.values }

// QuerySet is an unordered conjunction of predicates.
// The empty set matches everything.
type QuerySet []Query

// NewQuerySet builds a set from predicates.
func NewQuerySet(queries ...Query) QuerySet { return QuerySet(queries) }
