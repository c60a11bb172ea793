package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	domcontent "github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

func TestEnsureIndex_Idempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	created, err := repo.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestWriteAndLookup(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	failures, err := repo.Write(ctx, []document.Write{
		{Doc: document.Content{Kind: schema.KindContainer, ID: 1, Title: "Top Gear", FlattenedTitle: "topgear"}},
		{Doc: document.Content{Kind: schema.KindChildItem, Parent: "1", ID: 2, Title: "Episode"}},
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	titles, ok := repo.ParentTitles(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, document.ParentTitles{Title: "Top Gear", FlattenedTitle: "topgear"}, titles)

	child, ok := repo.Child(ctx, 1, 2)
	require.True(t, ok)
	assert.Equal(t, "Episode", child.Title)
	assert.Equal(t, schema.KindChildItem, child.Kind)
	assert.Equal(t, "1", child.Parent)

	_, ok = repo.Child(ctx, 7, 2)
	assert.False(t, ok, "child looked up under the wrong parent")

	_, ok = repo.ParentTitles(ctx, 99)
	assert.False(t, ok)
}

func TestLookup_TransientFailureIsAbsent(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(context.Context, db.DocRef) (*db.Document, error) {
		return nil, &db.Error{Op: db.OpJSONGet, Err: errors.New("connection reset")}
	}

	_, ok := repo.ParentTitles(context.Background(), 1)
	assert.False(t, ok)
	_, ok = repo.Child(context.Background(), 1, 2)
	assert.False(t, ok)
}

func TestWrite_ReportsFailures(t *testing.T) {
	repo, _ := newTestRepo(t)

	failures, err := repo.Write(context.Background(), []document.Write{
		{Doc: document.Content{Kind: schema.KindTopItem, ID: 1}},
		{Index: "schedule-2024", Doc: document.Content{Kind: schema.KindTopItem, ID: 1}},
	})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "schedule-2024", failures[0].Index)
	assert.Equal(t, "1", failures[0].ID)
}

func TestWrite_RequestFailure(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.bulkFn = func(context.Context, []db.BulkItem) (*db.BulkResult, error) {
		return nil, &domain.TimeoutError{Op: db.OpBulk}
	}

	_, err := repo.Write(context.Background(), []document.Write{{Doc: document.Content{Kind: schema.KindTopItem, ID: 1}}})
	assert.True(t, errors.Is(err, domain.ErrTimeout))
}

func TestQueryAndTopTerms(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Write(ctx, []document.Write{
		{Doc: document.Content{Kind: schema.KindTopItem, ID: 1, Publisher: "a",
			Topics: []document.TopicMapping{{ID: 10}, {ID: 11}}}},
		{Doc: document.Content{Kind: schema.KindContainer, ID: 2, Publisher: "b",
			Topics: []document.TopicMapping{{ID: 10}}}},
		{Doc: document.Content{Kind: schema.KindChildItem, Parent: "2", ID: 3, Publisher: "a"}},
	})
	require.NoError(t, err)

	ids, err := repo.Query(ctx,
		query.MatchAll{},
		query.Terms{Field: "publisher", Values: []any{"a"}},
		[]query.Sort{{Field: "id", Order: query.Desc}},
		domain.Selection{Limit: 10},
	)
	require.NoError(t, err)
	assert.Equal(t, []domcontent.ID{3, 1}, ids)

	top, err := repo.TopTerms(ctx, query.MatchAll{}, schema.FieldTopicID, 5)
	require.NoError(t, err)
	assert.Equal(t, []domcontent.ID{10, 11}, top)
}
