package match

import (
	"slices"
	"sort"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// Candidate is a stored document offered to Execute.
type Candidate struct {
	Hit db.Hit
	Doc map[string]any
}

// Execute runs a search request over candidates in memory: type restriction,
// query, aggregation, post filter, sort and pagination, in that order.
// Candidates must already be in a stable order; ties keep it.
func Execute(req *db.SearchRequest, candidates []Candidate) *db.SearchResult {
	matched := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(req.Types) > 0 && !slices.Contains(req.Types, c.Hit.Type) {
			continue
		}
		if !Matches(req.Query, c.Doc) {
			continue
		}
		matched = append(matched, c)
	}

	res := &db.SearchResult{}
	if req.Aggregation != nil {
		docs := make([]map[string]any, len(matched))
		for i, c := range matched {
			docs[i] = c.Doc
		}
		res.Buckets = Terms(docs, *req.Aggregation)
	}

	if req.PostFilter != nil {
		filtered := matched[:0]
		for _, c := range matched {
			if Matches(req.PostFilter, c.Doc) {
				filtered = append(filtered, c)
			}
		}
		matched = filtered
	}

	if len(req.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return CompareDocs(matched[i].Doc, matched[j].Doc, req.Sort) < 0
		})
	}

	res.Total = len(matched)
	from := max(req.From, 0)
	if from >= len(matched) || req.Size <= 0 {
		return res
	}
	to := min(from+req.Size, len(matched))
	res.Hits = make([]db.Hit, 0, to-from)
	for _, c := range matched[from:to] {
		res.Hits = append(res.Hits, c.Hit)
	}
	return res
}

// CompareDocs orders documents by a sort list. Missing keys sort last in
// either direction.
func CompareDocs(a, b map[string]any, sorts []query.Sort) int {
	for _, s := range sorts {
		va, okA := SortValue(a, s)
		vb, okB := SortValue(b, s)
		switch {
		case !okA && !okB:
			continue
		case !okA:
			return 1
		case !okB:
			return -1
		}
		c, ok := Compare(va, vb)
		if !ok || c == 0 {
			continue
		}
		if s.Order == query.Desc {
			return -c
		}
		return c
	}
	return 0
}

// SortValue picks the sort key of doc: the maximum value for descending
// sorts and the minimum for ascending ones.
func SortValue(doc map[string]any, s query.Sort) (any, bool) {
	var best any
	found := false
	for _, v := range Values(doc, s.Field) {
		if !found {
			best, found = v, true
			continue
		}
		c, ok := Compare(v, best)
		if !ok {
			continue
		}
		if (s.Order == query.Desc && c > 0) || (s.Order != query.Desc && c < 0) {
			best = v
		}
	}
	return best, found
}

// Terms counts documents per distinct value of the aggregation field,
// ordered by descending count then ascending key, truncated to Size.
func Terms(docs []map[string]any, agg query.TermsAggregation) []db.Bucket {
	counts := map[string]int{}
	for _, doc := range docs {
		seen := map[string]bool{}
		for _, v := range Values(doc, agg.Field) {
			k := Key(v)
			if seen[k] {
				continue
			}
			seen[k] = true
			counts[k]++
		}
	}

	buckets := make([]db.Bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, db.Bucket{Key: k, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	if agg.Size > 0 && len(buckets) > agg.Size {
		buckets = buckets[:agg.Size]
	}
	return buckets
}
