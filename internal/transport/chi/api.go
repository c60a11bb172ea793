package chi

import (
	"time"

	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/query"
)

// ErrorCode classifies an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeForbidden         ErrorCode = "forbidden"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeCompilationFailed ErrorCode = "compilation_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodePersistenceFailed ErrorCode = "persistence_failed"
	CodeTimeout           ErrorCode = "timeout"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code     ErrorCode         `json:"code"`
	Message  string            `json:"message"`
	Failures []FailureResponse `json:"failures,omitempty"`
}

// FailureResponse is one rejected document of a bulk write.
type FailureResponse struct {
	Index  string `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// IndexContentRequest carries exactly one of a container or an item.
type IndexContentRequest struct {
	Container *content.Container `json:"container,omitempty"`
	Item      *content.Item      `json:"item,omitempty"`
}

// IndexedResponse acknowledges an indexed entity.
type IndexedResponse struct {
	ID   content.ID `json:"id"`
	Kind string     `json:"kind"`
}

// Predicate is one attribute query in textual form.
type Predicate struct {
	Attribute string   `json:"attribute"`
	Operator  string   `json:"operator"`
	Values    []string `json:"values"`
}

// PopularTopicsParams defines parameters for GET /topics/popular.
type PopularTopicsParams struct {
	From   time.Time `form:"from" json:"from"`
	To     time.Time `form:"to" json:"to"`
	Offset *int      `form:"offset,omitempty" json:"offset,omitempty"`
	Limit  *int      `form:"limit,omitempty" json:"limit,omitempty"`
}

// SearchRequest is an attribute query with post filters and paging.
type SearchRequest struct {
	Query           []Predicate `json:"query"`
	Publishers      []string    `json:"publishers,omitempty"`
	Specializations []string    `json:"specializations,omitempty"`
	Offset          int         `json:"offset,omitempty"`
	Limit           int         `json:"limit,omitempty"`
}

// IDsResponse lists matching identifiers in rank order.
type IDsResponse struct {
	IDs []content.ID `json:"ids"`
}

// ExplainResponse carries the structured query a request compiles to.
type ExplainResponse struct {
	Query query.Node `json:"query"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
