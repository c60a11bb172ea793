package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/filter"
	"github.com/kailas-cloud/mediadex/internal/logger"
	"github.com/kailas-cloud/mediadex/internal/query"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// relevance ranks supervised topic associations first, then by weighting.
var relevance = []query.Sort{
	{Field: schema.FieldTopicSupervised, Order: query.Desc},
	{Field: schema.FieldTopicWeighting, Order: query.Desc},
}

// Options narrow a query without affecting its order.
type Options struct {
	Publishers      []content.Publisher
	Specializations []content.Specialization
}

// Service answers attribute queries over indexed content.
type Service struct {
	repo         Repository
	compiler     Compiler
	defaultLimit int
}

// New creates a search service.
func New(repo Repository, compiler Compiler) *Service {
	return &Service{repo: repo, compiler: compiler, defaultLimit: domain.DefaultLimit}
}

// WithDefaultLimit sets the page size used when a selection has none.
func (s *Service) WithDefaultLimit(limit int) *Service {
	if limit > 0 {
		s.defaultLimit = limit
	}
	return s
}

// Query returns the ids of content matching every predicate in qs and
// published by one of publishers (any publisher when empty).
func (s *Service) Query(
	ctx context.Context, qs attribute.QuerySet, publishers []content.Publisher, sel domain.Selection,
) ([]content.ID, error) {
	return s.QueryWithOptions(ctx, qs, Options{Publishers: publishers}, sel)
}

// QueryWithOptions is Query with every post filter exposed.
func (s *Service) QueryWithOptions(
	ctx context.Context, qs attribute.QuerySet, opts Options, sel domain.Selection,
) ([]content.ID, error) {
	q, err := s.compiler.Compile(qs)
	if err != nil {
		return nil, err
	}
	post := filter.All(
		filter.ForPublishers(schema.FieldPublisher, opts.Publishers),
		filter.ForSpecializations(opts.Specializations),
	)
	sel = sel.Normalize(s.defaultLimit)

	logger.FromContext(ctx).Debug("content query",
		zap.Any("query", q), zap.Any("post_filter", post),
		zap.Int("offset", sel.Offset), zap.Int("limit", sel.Limit))

	ids, err := s.repo.Query(ctx, q, post, relevance, sel)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	return ids, nil
}

// Explain returns the structured query qs compiles to.
func (s *Service) Explain(qs attribute.QuerySet) (query.Node, error) {
	return s.compiler.Compile(qs)
}
