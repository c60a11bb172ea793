package topic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	domtopic "github.com/kailas-cloud/mediadex/internal/domain/topic"
	"github.com/kailas-cloud/mediadex/internal/filter"
	"github.com/kailas-cloud/mediadex/internal/query"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// Service indexes topics and answers topic queries.
type Service struct {
	repo         Repository
	content      ContentAggregator
	compiler     Compiler
	logger       *zap.Logger
	defaultLimit int
}

// New creates a topic service.
func New(repo Repository, agg ContentAggregator, compiler Compiler, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		content:      agg,
		compiler:     compiler,
		logger:       logger,
		defaultLimit: domain.DefaultLimit,
	}
}

// WithDefaultLimit sets the page size used when a selection has none.
func (s *Service) WithDefaultLimit(limit int) *Service {
	if limit > 0 {
		s.defaultLimit = limit
	}
	return s
}

// Start creates the topic index if missing.
func (s *Service) Start(ctx context.Context) error {
	created, err := s.repo.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("ensure topic index: %w", err)
	}
	s.logger.Info("topic index ready", zap.Bool("created", created))
	return nil
}

// Index writes a topic document.
func (s *Service) Index(ctx context.Context, t domtopic.Topic) error {
	if t.Source == "" {
		return fmt.Errorf("topic %s has no source: %w", t.ID, domain.ErrInvalidInput)
	}
	return s.repo.Put(ctx, t)
}

// Query returns topics matching qs from any of sources (every source when
// empty), ordered by id.
func (s *Service) Query(
	ctx context.Context, qs attribute.QuerySet, sources []content.Publisher, sel domain.Selection,
) ([]domtopic.Topic, error) {
	q, err := s.compiler.Compile(qs)
	if err != nil {
		return nil, err
	}
	topics, err := s.repo.Query(ctx, q, filter.ForPublishers(schema.FieldTopicSource, sources),
		sel.Normalize(s.defaultLimit))
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	return topics, nil
}

// PopularTopics ranks topics by how many documents with a broadcast
// overlapping interval reference them, most referenced first.
func (s *Service) PopularTopics(
	ctx context.Context, interval domain.Interval, sel domain.Selection,
) ([]content.ID, error) {
	sel = sel.Normalize(s.defaultLimit)

	// Both bounds must hold on the same broadcast. A broadcast stored
	// without an end counts when it starts inside the interval; one that
	// starts inside always overlaps, so that branch needs no end check.
	q := query.Nested{Path: schema.PathBroadcasts, Query: query.And(
		query.Range{Field: schema.FieldBroadcastTransmissionTime, LTE: interval.End},
		query.Or(
			query.Range{Field: schema.FieldBroadcastTransmissionEnd, GTE: interval.Start},
			query.Range{Field: schema.FieldBroadcastTransmissionTime, GTE: interval.Start},
		),
	)}
	ranked, err := s.content.TopTerms(ctx, q, schema.FieldTopicID, sel.End())
	if err != nil {
		return nil, fmt.Errorf("aggregate popular topics: %w", err)
	}
	if sel.Offset >= len(ranked) {
		return []content.ID{}, nil
	}
	return ranked[sel.Offset:min(sel.End(), len(ranked))], nil
}
