package search

import (
	"context"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// Repository defines the storage contract for content queries.
type Repository interface {
	Query(ctx context.Context, q, post query.Node, sort []query.Sort, sel domain.Selection) ([]content.ID, error)
}

// Compiler translates attribute query sets into structured queries.
type Compiler interface {
	Compile(qs attribute.QuerySet) (query.Node, error)
}
