// Package content stores content documents and schedule projections.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	domcontent "github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/metrics"
	"github.com/kailas-cloud/mediadex/internal/query"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// store is the consumer interface for content documents (ISP).
type store interface {
	Get(ctx context.Context, ref db.DocRef) (*db.Document, error)
	Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error)
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the content repositories of the indexing, search and
// topic use cases.
type Repo struct {
	store  store
	index  string
	logger *zap.Logger
}

// New creates a content repository over the named index.
func New(s store, index string, logger *zap.Logger) *Repo {
	return &Repo{store: s, index: index, logger: logger}
}

// Index returns the content index name.
func (r *Repo) Index() string { return r.index }

// EnsureIndex creates the content index. created is false when it already
// existed.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	err = r.store.CreateIndex(ctx, schema.Content(r.index))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexExists):
		return false, nil
	default:
		return false, fmt.Errorf("create index %s: %w", r.index, err)
	}
}

// ParentTitles reads the indexed titles of a container. Any failure counts
// as absent; transient ones are logged.
func (r *Repo) ParentTitles(ctx context.Context, id domcontent.ID) (document.ParentTitles, bool) {
	doc, ok := r.lookup(ctx, "parent", db.DocRef{Index: r.index, Type: schema.KindContainer, ID: id.String()})
	if !ok {
		return document.ParentTitles{}, false
	}
	return document.ParentTitles{Title: doc.Title, FlattenedTitle: doc.FlattenedTitle}, true
}

// Child reads the existing document of a container's child item.
func (r *Repo) Child(ctx context.Context, parent, child domcontent.ID) (document.Content, bool) {
	return r.lookup(ctx, "child", db.DocRef{
		Index: r.index, Type: schema.KindChildItem, ID: child.String(), Parent: parent.String(),
	})
}

func (r *Repo) lookup(ctx context.Context, target string, ref db.DocRef) (document.Content, bool) {
	raw, err := r.store.Get(ctx, ref)
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, db.ErrKeyNotFound) {
			reason = "not_found"
		} else {
			r.logger.Warn("lookup failed, treating as absent",
				zap.String("target", target), zap.String("id", ref.ID), zap.Error(err))
		}
		metrics.LookupMissesTotal.WithLabelValues(target, reason).Inc()
		return document.Content{}, false
	}

	var doc document.Content
	if err := json.Unmarshal(raw.Source, &doc); err != nil {
		r.logger.Warn("undecodable document, treating as absent",
			zap.String("target", target), zap.String("id", ref.ID), zap.Error(err))
		metrics.LookupMissesTotal.WithLabelValues(target, "corrupt").Inc()
		return document.Content{}, false
	}
	doc.Kind = raw.Type
	doc.Parent = raw.Parent
	return doc, true
}

// Write sends every document in one bulk request. Rejected documents are
// returned; err is set only when the request as a whole failed.
func (r *Repo) Write(ctx context.Context, writes []document.Write) ([]domain.DocumentFailure, error) {
	if len(writes) == 0 {
		return nil, nil
	}
	items := make([]db.BulkItem, len(writes))
	for i, w := range writes {
		index := w.Index
		if index == "" {
			index = r.index
		}
		items[i] = db.BulkItem{
			Index:  index,
			Type:   w.Doc.Kind,
			ID:     w.Doc.DocID(),
			Parent: w.Doc.Parent,
			Source: w.Doc,
		}
	}

	res, err := r.store.Bulk(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("bulk write: %w", err)
	}
	type key struct{ index, typ, id string }
	failed := make(map[key]bool, len(res.Failures))
	failures := make([]domain.DocumentFailure, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, domain.DocumentFailure{Index: f.Index, ID: f.ID, Reason: f.Err.Error()})
		failed[key{f.Index, f.Type, f.ID}] = true
	}
	metrics.BulkFailuresTotal.Add(float64(len(failures)))
	for _, it := range items {
		if !failed[key{it.Index, it.Type, it.ID}] {
			metrics.DocumentsIndexedTotal.WithLabelValues(it.Type).Inc()
		}
	}
	if len(failures) == 0 {
		return nil, nil
	}
	return failures, nil
}

// Query returns the ids of content documents of every kind matching q and
// post, in sort order, windowed by sel.
func (r *Repo) Query(
	ctx context.Context, q, post query.Node, sort []query.Sort, sel domain.Selection,
) ([]domcontent.ID, error) {
	res, err := r.store.Search(ctx, &db.SearchRequest{
		Indexes:    []string{r.index},
		Types:      schema.ContentKinds,
		Query:      q,
		PostFilter: post,
		Sort:       sort,
		From:       sel.Offset,
		Size:       sel.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}
	ids := make([]domcontent.ID, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := domcontent.ParseID(h.ID)
		if err != nil {
			return nil, fmt.Errorf("hit %s: %w", h.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TopTerms counts the distinct values of field across documents matching q
// and returns the size most frequent, most frequent first.
func (r *Repo) TopTerms(ctx context.Context, q query.Node, field string, size int) ([]domcontent.ID, error) {
	res, err := r.store.Search(ctx, &db.SearchRequest{
		Indexes:     []string{r.index},
		Types:       schema.ContentKinds,
		Query:       q,
		Aggregation: &query.TermsAggregation{Field: field, Size: size},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", field, err)
	}
	ids := make([]domcontent.ID, 0, len(res.Buckets))
	for _, b := range res.Buckets {
		n, err := strconv.ParseInt(b.Key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bucket %q: %w", b.Key, err)
		}
		ids = append(ids, domcontent.ID(n))
	}
	return ids, nil
}
