// Package filter builds inclusion filters applied after the main query.
// They restrict membership only and never affect ordering.
package filter

import (
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// SpecializationField is the document field holding the specialization key.
const SpecializationField = "specialization"

// ForPublishers restricts field to the keys of publishers. An empty set
// yields nil, which callers treat as "no filter".
func ForPublishers(field string, publishers []content.Publisher) query.Node {
	if len(publishers) == 0 {
		return nil
	}
	return terms(field, publishers, content.Publisher.Key)
}

// ForSpecializations restricts results to the given specializations.
func ForSpecializations(specializations []content.Specialization) query.Node {
	if len(specializations) == 0 {
		return nil
	}
	return terms(SpecializationField, specializations, content.Specialization.Key)
}

// All joins non-nil filters into one conjunction; nil when none remain.
func All(filters ...query.Node) query.Node {
	kept := make([]query.Node, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return query.And(kept...)
}

func terms[T any](field string, values []T, key func(T) string) query.Node {
	seen := make(map[string]bool, len(values))
	keys := make([]any, 0, len(values))
	for _, v := range values {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return query.Terms{Field: field, Values: keys}
}
