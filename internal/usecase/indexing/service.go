package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
)

// Service writes containers and items into the content index and the
// schedule partitions.
type Service struct {
	repo       ContentRepository
	partitions PartitionRegistry
	builder    DocumentBuilder
	logger     *zap.Logger
}

// New creates an indexing service.
func New(repo ContentRepository, partitions PartitionRegistry, builder DocumentBuilder, logger *zap.Logger) *Service {
	return &Service{repo: repo, partitions: partitions, builder: builder, logger: logger}
}

// Start creates the content index if missing and seeds the partition
// registry with the partitions already present.
func (s *Service) Start(ctx context.Context) error {
	created, err := s.repo.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("ensure content index: %w", err)
	}
	found, err := s.partitions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load partitions: %w", err)
	}
	s.logger.Info("indexing started",
		zap.Bool("content_index_created", created),
		zap.Strings("partitions", found))
	return nil
}

// IndexContainer writes the container document, then copies its title onto
// every existing child document. The container write and the child writes
// are separate requests; a failed child write does not undo the container.
func (s *Service) IndexContainer(ctx context.Context, c content.Container) error {
	doc := s.builder.BuildContainer(c)
	if err := s.write(ctx, c.ID, []document.Write{{Doc: doc}}); err != nil {
		return err
	}
	if !c.HasChildren() || doc.Title == "" {
		return nil
	}

	var children []document.Write
	for _, ref := range c.Children {
		child, ok := s.repo.Child(ctx, c.ID, ref.ID)
		if !ok {
			continue
		}
		child.Inherit(doc.Title)
		children = append(children, document.Write{Doc: child})
	}
	if len(children) == 0 {
		return nil
	}
	s.logger.Debug("propagating container title",
		zap.Stringer("container", c.ID), zap.Int("children", len(children)))
	return s.write(ctx, c.ID, children)
}

// IndexItem writes the item document and its schedule projections in one
// bulk request, creating any partition it is the first to touch.
func (s *Service) IndexItem(ctx context.Context, item content.Item) error {
	doc, projections := s.builder.BuildItem(ctx, item)

	writes := make([]document.Write, 0, 1+len(projections))
	writes = append(writes, document.Write{Doc: doc})
	if len(projections) > 0 {
		names := make([]string, len(projections))
		for i, p := range projections {
			names[i] = p.Index
			writes = append(writes, document.Write{Index: p.Index, Doc: p.Doc})
		}
		created, err := s.partitions.Ensure(ctx, names)
		if err != nil {
			return fmt.Errorf("ensure partitions for item %s: %w", item.ID, err)
		}
		if len(created) > 0 {
			s.logger.Info("schedule partitions created", zap.Strings("partitions", created))
		}
	}
	return s.write(ctx, item.ID, writes)
}

func (s *Service) write(ctx context.Context, entity content.ID, writes []document.Write) error {
	failures, err := s.repo.Write(ctx, writes)
	if err != nil {
		return &domain.PersistenceError{EntityID: entity.String(), Err: err}
	}
	if len(failures) > 0 {
		s.logger.Warn("bulk write partially failed",
			zap.Stringer("entity", entity), zap.Int("failed", len(failures)), zap.Int("total", len(writes)))
		return &domain.PersistenceError{EntityID: entity.String(), Failures: failures}
	}
	return nil
}
