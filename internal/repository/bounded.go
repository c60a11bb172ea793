// Package repository holds store decorators shared by the repositories.
package repository

import (
	"context"
	"time"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/metrics"
)

// Bounded applies a per-call timeout to every store operation and records
// its duration. A call that runs past the timeout fails with
// *domain.TimeoutError and is not retried.
type Bounded struct {
	db.Store
	timeout time.Duration
}

var _ db.Store = (*Bounded)(nil)

// NewBounded wraps s. A non-positive timeout leaves calls unbounded.
func NewBounded(s db.Store, timeout time.Duration) *Bounded {
	return &Bounded{Store: s, timeout: timeout}
}

func (b *Bounded) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Bounded) done(op string, start time.Time, err error) error {
	metrics.ObserveStore(op, start)
	return domain.AsTimeout(err, op, b.timeout)
}

// Ping checks connectivity within the timeout.
func (b *Bounded) Ping(ctx context.Context) error {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	return b.done(db.OpPing, start, b.Store.Ping(ctx))
}

// Get reads one document within the timeout.
func (b *Bounded) Get(ctx context.Context, ref db.DocRef) (*db.Document, error) {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	doc, err := b.Store.Get(ctx, ref)
	return doc, b.done(db.OpJSONGet, start, err)
}

// Bulk writes items within the timeout.
func (b *Bounded) Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error) {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	res, err := b.Store.Bulk(ctx, items)
	return res, b.done(db.OpBulk, start, err)
}

// CreateIndex creates an index within the timeout.
func (b *Bounded) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	return b.done(db.OpCreateIndex, start, b.Store.CreateIndex(ctx, def))
}

// DropIndex drops an index within the timeout.
func (b *Bounded) DropIndex(ctx context.Context, name string) error {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	return b.done(db.OpDropIndex, start, b.Store.DropIndex(ctx, name))
}

// IndexExists probes an index within the timeout.
func (b *Bounded) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	ok, err := b.Store.IndexExists(ctx, name)
	return ok, b.done(db.OpIndexInfo, start, err)
}

// ListIndexes lists indexes within the timeout.
func (b *Bounded) ListIndexes(ctx context.Context) ([]string, error) {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	names, err := b.Store.ListIndexes(ctx)
	return names, b.done(db.OpListIndexes, start, err)
}

// Search runs a query within the timeout.
func (b *Bounded) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	ctx, cancel := b.begin(ctx)
	defer cancel()
	start := time.Now()
	res, err := b.Store.Search(ctx, req)
	return res, b.done(db.OpSearch, start, err)
}
