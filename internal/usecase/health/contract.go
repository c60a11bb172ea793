package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether an index is defined.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
