package topic

import (
	"context"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	domtopic "github.com/kailas-cloud/mediadex/internal/domain/topic"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// Repository defines the storage contract for topic documents.
type Repository interface {
	EnsureIndex(ctx context.Context) (created bool, err error)
	Put(ctx context.Context, t domtopic.Topic) error
	Query(ctx context.Context, q, post query.Node, sel domain.Selection) ([]domtopic.Topic, error)
}

// ContentAggregator counts topic associations across content documents.
type ContentAggregator interface {
	TopTerms(ctx context.Context, q query.Node, field string, size int) ([]content.ID, error)
}

// Compiler translates attribute query sets into structured queries.
type Compiler interface {
	Compile(qs attribute.QuerySet) (query.Node, error)
}
