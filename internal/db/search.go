package db

import (
	"encoding/json"

	"github.com/kailas-cloud/mediadex/internal/query"
)

// SearchRequest is the input for a structured search.
type SearchRequest struct {
	Indexes []string
	// Types restricts hits to these document types; empty means all.
	Types []string
	Query query.Node
	// PostFilter restricts hits without affecting ordering or aggregations.
	PostFilter  query.Node
	Sort        []query.Sort
	From        int
	Size        int
	Aggregation *query.TermsAggregation
}

// SearchResult is the output of a search operation. Total counts every
// document that matched Query and PostFilter.
type SearchResult struct {
	Total   int
	Hits    []Hit
	Buckets []Bucket
}

// Hit is a single matching document.
type Hit struct {
	Index  string
	Type   string
	ID     string
	Parent string
	Source json.RawMessage
}

// Bucket is one term of a terms aggregation with its document count.
type Bucket struct {
	Key   string
	Count int
}
