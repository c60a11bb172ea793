package indexing

import (
	"context"

	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
)

// ContentRepository defines the storage contract for content documents.
type ContentRepository interface {
	EnsureIndex(ctx context.Context) (created bool, err error)
	Child(ctx context.Context, parent, child content.ID) (document.Content, bool)
	Write(ctx context.Context, writes []document.Write) ([]domain.DocumentFailure, error)
}

// PartitionRegistry tracks the schedule partitions that exist.
type PartitionRegistry interface {
	Load(ctx context.Context) ([]string, error)
	Ensure(ctx context.Context, names []string) (created []string, err error)
}

// DocumentBuilder maps catalogue entities to documents.
type DocumentBuilder interface {
	BuildContainer(c content.Container) document.Content
	BuildItem(ctx context.Context, item content.Item) (document.Content, []document.Projection)
}
