package compiler

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mediadex/internal/db/match"
	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
)

var (
	title     = attribute.New("title", attribute.String, attribute.EntityContent, false)
	score     = attribute.New("score", attribute.Integer, attribute.EntityContent, false)
	minusOne  = attribute.New("minusone", attribute.Float, attribute.EntityContent, false)
	zero      = attribute.New("zero", attribute.Boolean, attribute.EntityContent, false)
	when      = attribute.New("when", attribute.Timestamp, attribute.EntityContent, false)
	oneFirst  = attribute.New("one.first", attribute.String, attribute.EntityContent, true)
	oneSecond = attribute.New("one.second", attribute.Integer, attribute.EntityContent, true)
	twoFirst  = attribute.New("one.two.first", attribute.String, attribute.EntityContent, true)
	threeVal  = attribute.New("one.two.three.value", attribute.Integer, attribute.EntityContent, true)
)

const fixture = `{
	"title": "eastenders",
	"score": 3,
	"minusone": -1.0,
	"zero": false,
	"when": "2024-03-01T10:00:00Z",
	"one": [
		{"first": "a", "second": 1, "two": [{"first": "x", "three": [{"value": 5}]}]},
		{"first": "b", "second": 2, "two": [{"first": "y", "three": [{"value": 6}]}]}
	]
}`

func fixtureDoc(t *testing.T) map[string]any {
	t.Helper()
	doc, err := match.Decode([]byte(fixture))
	require.NoError(t, err)
	return doc
}

// satisfied holds predicates that all hold for the fixture, with element 0
// of "one" satisfying every nested one at once.
func satisfied() []attribute.Query {
	return []attribute.Query{
		title.Query(attribute.Beginning, "east"),
		score.Query(attribute.GreaterThan, 2),
		minusOne.Query(attribute.LessThan, 0.0),
		zero.Equals(false),
		when.Query(attribute.After, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		oneFirst.Equals("a"),
		oneSecond.Query(attribute.LessThan, 2),
		twoFirst.Equals("x"),
		threeVal.Equals(int64(5)),
	}
}

func TestCompile_PowersetMatches(t *testing.T) {
	doc := fixtureDoc(t)
	c := New(nil, nil)
	preds := satisfied()

	for mask := 1; mask < 1<<len(preds); mask++ {
		var qs attribute.QuerySet
		for i, p := range preds {
			if mask&(1<<i) != 0 {
				qs = append(qs, p)
			}
		}
		node, err := c.Compile(qs)
		require.NoError(t, err)
		if !match.Matches(node, doc) {
			raw, _ := json.Marshal(node)
			t.Fatalf("subset %b did not match: %s", mask, raw)
		}
	}
}

func TestCompile_PermutationsAgree(t *testing.T) {
	docs := []map[string]any{fixtureDoc(t)}
	other, err := match.Decode([]byte(`{"title":"eastenders","score":3,"one":[{"first":"a","second":9}]}`))
	require.NoError(t, err)
	docs = append(docs, other)

	c := New(nil, nil)
	preds := []attribute.Query{
		title.Query(attribute.Beginning, "east"),
		oneFirst.Equals("a"),
		oneSecond.Query(attribute.LessThan, 2),
		score.Equals(3),
	}
	base, err := c.Compile(attribute.NewQuerySet(preds...))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		shuffled := append([]attribute.Query(nil), preds...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		node, err := c.Compile(attribute.NewQuerySet(shuffled...))
		require.NoError(t, err)
		for i, d := range docs {
			assert.Equal(t, match.Matches(base, d), match.Matches(node, d), "doc %d", i)
		}
	}
	assert.True(t, match.Matches(base, docs[0]))
	assert.False(t, match.Matches(base, docs[1]))
}

func TestCompile_JoinsWithinElement(t *testing.T) {
	doc := fixtureDoc(t)
	c := New(nil, nil)

	// "a" lives on element 0 and second=2 on element 1.
	node, err := c.Compile(attribute.NewQuerySet(oneFirst.Equals("a"), oneSecond.Equals(2)))
	require.NoError(t, err)
	assert.False(t, match.Matches(node, doc))

	// Same split across the third level.
	node, err = c.Compile(attribute.NewQuerySet(twoFirst.Equals("x"), threeVal.Equals(6)))
	require.NoError(t, err)
	assert.False(t, match.Matches(node, doc))

	node, err = c.Compile(attribute.NewQuerySet(twoFirst.Equals("y"), threeVal.Equals(6)))
	require.NoError(t, err)
	assert.True(t, match.Matches(node, doc))
}

func TestCompile_OrWithinPredicate(t *testing.T) {
	doc := fixtureDoc(t)
	c := New(nil, nil)

	tests := []struct {
		name string
		q    attribute.Query
		want bool
	}{
		{"equals any", oneFirst.Equals("zzz", "b"), true},
		{"equals none", oneFirst.Equals("zzz", "yyy"), false},
		{"prefix any", title.Query(attribute.Beginning, "west", "east"), true},
		{"greater than any", score.Query(attribute.GreaterThan, 10, 1), true},
		{"greater than none", score.Query(attribute.GreaterThan, 10, 3), false},
		{"before any", when.Query(attribute.Before,
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := c.Compile(attribute.NewQuerySet(tt.q))
			require.NoError(t, err)
			assert.Equal(t, tt.want, match.Matches(node, doc))
		})
	}
}

func TestCompile_RangesAreExclusive(t *testing.T) {
	doc := fixtureDoc(t)
	c := New(nil, nil)
	instant := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, q := range []attribute.Query{
		score.Query(attribute.GreaterThan, 3),
		score.Query(attribute.LessThan, 3),
		when.Query(attribute.After, instant),
		when.Query(attribute.Before, instant),
	} {
		node, err := c.Compile(attribute.NewQuerySet(q))
		require.NoError(t, err)
		assert.False(t, match.Matches(node, doc), "%s %s", q.Attribute().Name(), q.Operator())
	}
}

func TestCompile_Structure(t *testing.T) {
	c := New(nil, nil)

	node, err := c.Compile(attribute.NewQuerySet(
		score.Equals(3),
		oneFirst.Equals("a", "b"),
		threeVal.Query(attribute.LessThan, 7),
	))
	require.NoError(t, err)

	want := query.Bool{Must: []query.Node{
		query.Term{Field: "score", Value: int64(3)},
		query.Nested{Path: "one", Query: query.Bool{Must: []query.Node{
			query.Terms{Field: "one.first", Values: []any{"a", "b"}},
			query.Nested{Path: "one.two", Query: query.Nested{Path: "one.two.three",
				Query: query.Range{Field: "one.two.three.value", LT: int64(7)}}},
		}}},
	}}
	assert.Equal(t, want, node)
}

func TestCompile_EmptySetMatchesAll(t *testing.T) {
	node, err := New(nil, nil).Compile(nil)
	require.NoError(t, err)
	assert.Equal(t, query.MatchAll{}, node)
}

func TestCompile_NestedPolicy(t *testing.T) {
	c := New(nil, NewNestedSet("one"))
	node, err := c.Compile(attribute.NewQuerySet(twoFirst.Equals("x"), oneFirst.Equals("a")))
	require.NoError(t, err)

	want := query.Nested{Path: "one", Query: query.Bool{Must: []query.Node{
		query.Term{Field: "one.two.first", Value: "x"},
		query.Term{Field: "one.first", Value: "a"},
	}}}
	assert.Equal(t, want, node)
}

func TestCompile_NormalizesOperands(t *testing.T) {
	c := New(attribute.Content, NewNestedSet("broadcasts", "locations", "topics"))
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	node, err := c.Compile(attribute.NewQuerySet(
		attribute.ContentID.Equals(content.ID(42)),
		attribute.ContentPublisher.Equals(content.Publisher("bbc.co.uk")),
		attribute.BroadcastTransmissionTime.Query(attribute.After, at),
	))
	require.NoError(t, err)

	var terms []any
	query.Walk(node, func(_ string, n query.Node) {
		switch v := n.(type) {
		case query.Term:
			terms = append(terms, v.Value)
		case query.Range:
			terms = append(terms, v.GT)
		}
	})
	assert.Equal(t, []any{int64(42), "bbc.co.uk", at.UTC()}, terms)
}

func TestCompile_Errors(t *testing.T) {
	unknown := attribute.New("broadcasts.unknown", attribute.String, attribute.EntityContent, false)

	tests := []struct {
		name   string
		cat    *attribute.Catalogue
		q      attribute.Query
		reason string
	}{
		{"unknown attribute", attribute.Content, unknown.Equals("x"), "unknown attribute"},
		{"prefix on integer", nil, score.Query(attribute.Beginning, "1"), "not supported"},
		{"after on string", nil, title.Query(attribute.After, "x"), "not supported"},
		{"greater than on timestamp", nil, when.Query(attribute.GreaterThan, time.Now()), "not supported"},
		{"wrong operand type", nil, score.Equals("three"), "not a integer value"},
		{"no operands", nil, score.Equals(), "no operands"},
		{"unknown operator", nil, score.Query(attribute.Operator("near"), 1), "not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cat, nil).Compile(attribute.NewQuerySet(tt.q))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCompilation))

			var ce *domain.CompilationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.q.Attribute().Name(), ce.Attribute)
			assert.Contains(t, ce.Reason, tt.reason)
		})
	}
}

func TestCompile_ExplainJSON(t *testing.T) {
	node, err := New(nil, nil).Compile(attribute.NewQuerySet(oneFirst.Equals("a"), oneSecond.Query(attribute.GreaterThan, 1)))
	require.NoError(t, err)

	raw, err := json.Marshal(node)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nested":{"path":"one","query":{"bool":{"must":[
		{"term":{"one.first":"a"}},
		{"range":{"one.second":{"gt":1}}}
	]}}}}`, string(raw))
}
