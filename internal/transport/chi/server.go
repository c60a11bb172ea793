package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	domtopic "github.com/kailas-cloud/mediadex/internal/domain/topic"
	"github.com/kailas-cloud/mediadex/internal/schema"
	healthuc "github.com/kailas-cloud/mediadex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/mediadex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/mediadex/internal/usecase/search"
	topicuc "github.com/kailas-cloud/mediadex/internal/usecase/topic"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the indexing, search and topic services over HTTP.
type Server struct {
	indexing      *indexinguc.Service
	search        *searchuc.Service
	topics        *topicuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	indexing *indexinguc.Service,
	search *searchuc.Service,
	topics *topicuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexing: indexing,
		search:   search,
		topics:   topics,
		health:   health,
		logger:   logger,
	}
	// Order matters: a timeout inside a persistence failure reports as a timeout.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout),
		compilationHandler,
		persistenceHandler,
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/content", s.IndexContent)
	r.Post("/content/search", s.SearchContent)
	r.Post("/content/explain", s.ExplainContent)
	r.Post("/topics", s.IndexTopic)
	r.Post("/topics/search", s.SearchTopics)
	r.Get("/topics/popular", s.PopularTopics)
}

// IndexContent handles POST /content.
func (s *Server) IndexContent(w http.ResponseWriter, r *http.Request) {
	var req IndexContentRequest
	if !s.decode(w, r, &req) {
		return
	}

	var (
		resp IndexedResponse
		err  error
	)
	switch {
	case req.Container != nil && req.Item != nil:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "exactly one of container or item is required")
		return
	case req.Container != nil:
		resp = IndexedResponse{ID: req.Container.ID, Kind: schema.KindContainer}
		err = s.indexing.IndexContainer(r.Context(), *req.Container)
	case req.Item != nil:
		kind := schema.KindTopItem
		if req.Item.Parent != nil {
			kind = schema.KindChildItem
		}
		resp = IndexedResponse{ID: req.Item.ID, Kind: kind}
		err = s.indexing.IndexItem(r.Context(), *req.Item)
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "exactly one of container or item is required")
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// IndexTopic handles POST /topics.
func (s *Server) IndexTopic(w http.ResponseWriter, r *http.Request) {
	var t domtopic.Topic
	if !s.decode(w, r, &t) {
		return
	}
	if err := s.topics.Index(r.Context(), t); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IndexedResponse{ID: t.ID, Kind: schema.KindTopic})
}

// SearchContent handles POST /content/search.
func (s *Server) SearchContent(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	qs, err := querySetFromRequest(attribute.Content, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ids, err := s.search.QueryWithOptions(r.Context(), qs, searchuc.Options{
		Publishers:      publishers(req.Publishers),
		Specializations: specializations(req.Specializations),
	}, domain.Selection{Offset: req.Offset, Limit: req.Limit})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDsResponse{IDs: ids})
}

// ExplainContent handles POST /content/explain.
func (s *Server) ExplainContent(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	qs, err := querySetFromRequest(attribute.Content, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	node, err := s.search.Explain(qs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExplainResponse{Query: node})
}

// SearchTopics handles POST /topics/search. Publishers filter by topic source.
func (s *Server) SearchTopics(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	qs, err := querySetFromRequest(attribute.Topics, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	topics, err := s.topics.Query(r.Context(), qs, publishers(req.Publishers),
		domain.Selection{Offset: req.Offset, Limit: req.Limit})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if topics == nil {
		topics = []domtopic.Topic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

// PopularTopics handles GET /topics/popular?from=&to=&offset=&limit=.
func (s *Server) PopularTopics(w http.ResponseWriter, r *http.Request) {
	params, err := bindPopularTopicsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	interval, err := domain.NewInterval(params.From, params.To)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	sel, err := params.selection()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ids, err := s.topics.PopularTopics(r.Context(), interval, sel)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDsResponse{IDs: ids})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTimeout,
		domain.ErrCompilation,
		domain.ErrPersistence,
		domain.ErrInvalidInput,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// compilationHandler reports the offending attribute, which is caller input.
func compilationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ce *domain.CompilationError
	if !errors.As(err, &ce) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeCompilationFailed, ce.Error())
	return true
}

// persistenceHandler lists the rejected documents.
func persistenceHandler(w http.ResponseWriter, err error, msg string) bool {
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) {
		return false
	}
	resp := ErrorResponse{Code: CodePersistenceFailed, Message: msg + ": entity " + pe.EntityID}
	for _, f := range pe.Failures {
		resp.Failures = append(resp.Failures, FailureResponse{Index: f.Index, ID: f.ID, Reason: f.Reason})
	}
	writeJSON(w, http.StatusBadGateway, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// querySetFromRequest resolves textual predicates against a catalogue.
// Unknown attributes and unparsable operands are compilation errors.
func querySetFromRequest(cat *attribute.Catalogue, preds []Predicate) (attribute.QuerySet, error) {
	qs := make(attribute.QuerySet, 0, len(preds))
	for _, p := range preds {
		a, ok := cat.Lookup(p.Attribute)
		if !ok {
			return nil, domain.NewCompilationError(p.Attribute, "unknown attribute")
		}
		op, err := attribute.ParseOperator(p.Operator)
		if err != nil {
			return nil, domain.NewCompilationError(p.Attribute, err.Error())
		}
		values := make([]any, len(p.Values))
		for i, raw := range p.Values {
			v, err := a.ParseValue(raw)
			if err != nil {
				return nil, domain.NewCompilationError(p.Attribute, err.Error())
			}
			values[i] = v
		}
		qs = append(qs, a.Query(op, values...))
	}
	return qs, nil
}

// bindPopularTopicsParams binds the form-style query parameters of
// GET /topics/popular. Timestamps are RFC 3339.
func bindPopularTopicsParams(r *http.Request) (PopularTopicsParams, error) {
	var params PopularTopicsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "from", q, &params.From); err != nil {
		return params, fmt.Errorf("invalid format for parameter from: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "to", q, &params.To); err != nil {
		return params, fmt.Errorf("invalid format for parameter to: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &params.Offset); err != nil {
		return params, fmt.Errorf("invalid format for parameter offset: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		return params, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return params, nil
}

func (p PopularTopicsParams) selection() (domain.Selection, error) {
	var sel domain.Selection
	if p.Offset != nil {
		if *p.Offset < 0 {
			return sel, errors.New("offset must be a non-negative integer")
		}
		sel.Offset = *p.Offset
	}
	if p.Limit != nil {
		if *p.Limit <= 0 {
			return sel, errors.New("limit must be a positive integer")
		}
		sel.Limit = *p.Limit
	}
	return sel, nil
}

func publishers(keys []string) []content.Publisher {
	out := make([]content.Publisher, len(keys))
	for i, k := range keys {
		out[i] = content.Publisher(k)
	}
	return out
}

func specializations(keys []string) []content.Specialization {
	out := make([]content.Specialization, len(keys))
	for i, k := range keys {
		out[i] = content.Specialization(k)
	}
	return out
}
