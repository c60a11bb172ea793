package redis

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// prefilter renders an FT.SEARCH query selecting a superset of the documents
// the request matches. Clauses that cannot be expressed against the FT
// schema widen to "everything"; the exact query runs after retrieval.
func prefilter(def *db.IndexDefinition, req *db.SearchRequest) string {
	var parts []string
	if len(req.Types) > 0 {
		parts = append(parts, tagClause(typeAttr, toAny(req.Types)))
	}
	if def != nil {
		for _, n := range []query.Node{req.Query, req.PostFilter} {
			if p := translate(def, n); p != "" {
				parts = append(parts, p)
			}
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func translate(def *db.IndexDefinition, n query.Node) string {
	switch v := n.(type) {
	case query.Bool:
		var and []string
		for _, c := range append(append([]query.Node{}, v.Must...), v.Filter...) {
			if p := translate(def, c); p != "" {
				and = append(and, p)
			}
		}
		if len(v.Should) > 0 {
			or := make([]string, 0, len(v.Should))
			for _, c := range v.Should {
				p := translate(def, c)
				if p == "" {
					or = nil
					break
				}
				or = append(or, p)
			}
			if len(or) > 0 {
				and = append(and, "("+strings.Join(or, " | ")+")")
			}
		}
		switch len(and) {
		case 0:
			return ""
		case 1:
			return and[0]
		default:
			return "(" + strings.Join(and, " ") + ")"
		}
	case query.Nested:
		return translate(def, v.Query)
	case query.Term:
		return fieldClause(def, v.Field, []any{v.Value})
	case query.Terms:
		return fieldClause(def, v.Field, v.Values)
	case query.Range:
		return rangeClause(def, v)
	case query.Prefix:
		f, ok := def.Field(v.Field)
		if !ok || f.Type != db.IndexFieldKeyword || v.Value == "" {
			return ""
		}
		return "@" + db.FieldAlias(v.Field) + ":{" + tagEscaper.Replace(v.Value) + "*}"
	default:
		return ""
	}
}

func fieldClause(def *db.IndexDefinition, field string, values []any) string {
	f, ok := def.Field(field)
	if !ok || len(values) == 0 {
		return ""
	}
	alias := db.FieldAlias(field)
	switch f.Type {
	case db.IndexFieldKeyword:
		for _, v := range values {
			if _, isStr := v.(string); !isStr {
				return ""
			}
		}
		return tagClause(alias, values)
	case db.IndexFieldNumeric:
		parts := make([]string, 0, len(values))
		for _, v := range values {
			n, ok := numeric(v)
			if !ok {
				return ""
			}
			parts = append(parts, "@"+alias+":["+n+" "+n+"]")
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, " | ") + ")"
	default:
		return ""
	}
}

func rangeClause(def *db.IndexDefinition, r query.Range) string {
	f, ok := def.Field(r.Field)
	if !ok || f.Type != db.IndexFieldNumeric {
		return ""
	}
	lo, hi := "-inf", "+inf"
	if r.GT != nil {
		n, ok := numeric(r.GT)
		if !ok {
			return ""
		}
		lo = "(" + n
	} else if r.GTE != nil {
		n, ok := numeric(r.GTE)
		if !ok {
			return ""
		}
		lo = n
	}
	if r.LT != nil {
		n, ok := numeric(r.LT)
		if !ok {
			return ""
		}
		hi = "(" + n
	} else if r.LTE != nil {
		n, ok := numeric(r.LTE)
		if !ok {
			return ""
		}
		hi = n
	}
	return "@" + db.FieldAlias(r.Field) + ":[" + lo + " " + hi + "]"
}

func tagClause(attr string, values []any) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v.(string))
	}
	return "@" + attr + ":{" + strings.Join(escaped, " | ") + "}"
}

func numeric(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), true
	default:
		return "", false
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
