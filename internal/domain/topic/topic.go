package topic

import "github.com/kailas-cloud/mediadex/internal/domain/content"

// Topic is a subject that content can be associated with.
type Topic struct {
	ID          content.ID        `json:"id"`
	Source      content.Publisher `json:"source"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Aliases     []Alias           `json:"aliases,omitempty"`
}

// Alias is an external identifier for a topic within a namespace.
type Alias struct {
	Namespace string `json:"namespace"`
	Value     string `json:"value"`
}
