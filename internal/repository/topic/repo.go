// Package topic stores topic documents.
package topic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	domtopic "github.com/kailas-cloud/mediadex/internal/domain/topic"
	"github.com/kailas-cloud/mediadex/internal/metrics"
	"github.com/kailas-cloud/mediadex/internal/query"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// store is the consumer interface for topic documents (ISP).
type store interface {
	Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error)
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the topic use case repository.
type Repo struct {
	store store
	index string
}

// New creates a topic repository over the named index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// EnsureIndex creates the topic index. created is false when it already
// existed.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	err = r.store.CreateIndex(ctx, schema.Topics(r.index))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexExists):
		return false, nil
	default:
		return false, fmt.Errorf("create index %s: %w", r.index, err)
	}
}

// Put writes one topic document, replacing any previous version.
func (r *Repo) Put(ctx context.Context, t domtopic.Topic) error {
	doc := document.FromTopic(t)
	res, err := r.store.Bulk(ctx, []db.BulkItem{{
		Index:  r.index,
		Type:   schema.KindTopic,
		ID:     doc.DocID(),
		Source: doc,
	}})
	if err != nil {
		return &domain.PersistenceError{EntityID: t.ID.String(), Err: err}
	}
	if res.HasFailures() {
		failures := make([]domain.DocumentFailure, len(res.Failures))
		for i, f := range res.Failures {
			failures[i] = domain.DocumentFailure{Index: f.Index, ID: f.ID, Reason: f.Err.Error()}
		}
		metrics.BulkFailuresTotal.Add(float64(len(failures)))
		return &domain.PersistenceError{EntityID: t.ID.String(), Failures: failures}
	}
	metrics.DocumentsIndexedTotal.WithLabelValues(schema.KindTopic).Inc()
	return nil
}

// Query returns the selected window of topics matching q and post,
// ordered by id ascending.
func (r *Repo) Query(ctx context.Context, q, post query.Node, sel domain.Selection) ([]domtopic.Topic, error) {
	res, err := r.store.Search(ctx, &db.SearchRequest{
		Indexes:    []string{r.index},
		Types:      []string{schema.KindTopic},
		Query:      q,
		PostFilter: post,
		Sort:       []query.Sort{{Field: schema.FieldID, Order: query.Asc}},
		From:       sel.Offset,
		Size:       sel.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}
	out := make([]domtopic.Topic, 0, len(res.Hits))
	for _, h := range res.Hits {
		var doc document.Topic
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode topic %s: %w", h.ID, err)
		}
		out = append(out, doc.ToTopic())
	}
	return out, nil
}
