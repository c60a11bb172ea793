package db

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocRef addresses one document. Parent is required for child documents
// and must match the parent the document was written with.
type DocRef struct {
	Index  string
	Type   string
	ID     string
	Parent string
}

// Document is a stored document with its raw JSON source.
type Document struct {
	Index  string
	Type   string
	ID     string
	Parent string
	Source json.RawMessage
}

// BulkItem is a single whole-document write. Source is marshaled to JSON.
type BulkItem struct {
	Index  string
	Type   string
	ID     string
	Parent string
	Source any
}

// BulkFailure is one rejected item of a bulk request.
type BulkFailure struct {
	Index string
	Type  string
	ID    string
	Err   error
}

// BulkResult reports per-item outcomes. Items that are not listed in
// Failures were written.
type BulkResult struct {
	Items    int
	Failures []BulkFailure
}

// HasFailures reports whether any item was rejected.
func (r *BulkResult) HasFailures() bool { return r != nil && len(r.Failures) > 0 }

// DocumentStore provides point reads and bulk writes.
type DocumentStore interface {
	// Get returns ErrKeyNotFound when the document does not exist.
	Get(ctx context.Context, ref DocRef) (*Document, error)
	// Bulk writes every item independently. A non-nil error means the
	// request as a whole failed; per-item rejections land in the result.
	Bulk(ctx context.Context, items []BulkItem) (*BulkResult, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	// CreateIndex returns ErrIndexExists when the index is already defined.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	ListIndexes(ctx context.Context) ([]string, error)
}

// Searcher executes structured queries.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}
