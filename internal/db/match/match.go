// Package match evaluates structured queries against decoded JSON documents.
// Both store drivers use it so nested semantics are identical everywhere.
package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/mediadex/internal/query"
)

// Decode parses a JSON document, keeping numbers exact.
func Decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Matches reports whether doc satisfies n. A nil node matches everything.
func Matches(n query.Node, doc map[string]any) bool {
	if n == nil {
		return true
	}
	return eval(n, doc, "")
}

func eval(n query.Node, obj map[string]any, scope string) bool {
	switch v := n.(type) {
	case query.MatchAll:
		return true
	case query.Bool:
		for _, c := range v.Must {
			if !eval(c, obj, scope) {
				return false
			}
		}
		for _, c := range v.Filter {
			if !eval(c, obj, scope) {
				return false
			}
		}
		if len(v.Should) == 0 {
			return true
		}
		for _, c := range v.Should {
			if eval(c, obj, scope) {
				return true
			}
		}
		return false
	case query.Nested:
		for _, elem := range Objects(obj, relative(scope, v.Path)) {
			if eval(v.Query, elem, v.Path) {
				return true
			}
		}
		return false
	case query.Term:
		return anyValue(obj, scope, v.Field, func(val any) bool { return equal(val, v.Value) })
	case query.Terms:
		return anyValue(obj, scope, v.Field, func(val any) bool {
			for _, want := range v.Values {
				if equal(val, want) {
					return true
				}
			}
			return false
		})
	case query.Range:
		return anyValue(obj, scope, v.Field, func(val any) bool { return inRange(val, v) })
	case query.Prefix:
		return anyValue(obj, scope, v.Field, func(val any) bool {
			s, ok := val.(string)
			return ok && strings.HasPrefix(s, v.Value)
		})
	default:
		return false
	}
}

func anyValue(obj map[string]any, scope, field string, pred func(any) bool) bool {
	for _, val := range Values(obj, relative(scope, field)) {
		if pred(val) {
			return true
		}
	}
	return false
}

func inRange(val any, r query.Range) bool {
	check := func(bound any, ok func(int) bool) bool {
		if bound == nil {
			return true
		}
		c, comparable := Compare(val, bound)
		return comparable && ok(c)
	}
	return check(r.GT, func(c int) bool { return c > 0 }) &&
		check(r.GTE, func(c int) bool { return c >= 0 }) &&
		check(r.LT, func(c int) bool { return c < 0 }) &&
		check(r.LTE, func(c int) bool { return c <= 0 })
}

func equal(val, want any) bool {
	c, ok := Compare(val, want)
	return ok && c == 0
}

// relative strips the enclosing nested scope from a full field path.
func relative(scope, field string) string {
	if scope == "" {
		return field
	}
	if rest, ok := strings.CutPrefix(field, scope+"."); ok {
		return rest
	}
	return field
}

// Values collects every leaf value at a dotted path, descending through
// arrays at any level.
func Values(obj map[string]any, path string) []any {
	current := []any{obj}
	for _, seg := range strings.Split(path, ".") {
		var next []any
		for _, c := range current {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			v, ok := m[seg]
			if !ok || v == nil {
				continue
			}
			next = appendFlat(next, v)
		}
		current = next
	}
	return current
}

// Objects collects the objects found at a dotted path.
func Objects(obj map[string]any, path string) []map[string]any {
	var out []map[string]any
	for _, v := range Values(obj, path) {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func appendFlat(dst []any, v any) []any {
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			dst = appendFlat(dst, e)
		}
		return dst
	}
	return append(dst, v)
}
