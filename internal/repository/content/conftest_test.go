package content

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/db/memory"
)

// mockStore implements the consumer interface for tests. Unset functions
// fall through to an in-memory store.
type mockStore struct {
	*memory.Store
	getFn  func(ctx context.Context, ref db.DocRef) (*db.Document, error)
	bulkFn func(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error)
}

func (m *mockStore) Get(ctx context.Context, ref db.DocRef) (*db.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ref)
	}
	return m.Store.Get(ctx, ref)
}

func (m *mockStore) Bulk(ctx context.Context, items []db.BulkItem) (*db.BulkResult, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, items)
	}
	return m.Store.Bulk(ctx, items)
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{Store: memory.NewStore()}
	repo := New(ms, "content", zap.NewNop())
	if _, err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	return repo, ms
}
