package ports

import (
	"context"
	"time"

	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/events"
)

// ComparisonStore persists comparison results by generated identifier.
// This is a port in hexagonal architecture - the core never assumes a storage medium.
type ComparisonStore interface {
	// Put stores a result under id, replacing any previous record
	Put(ctx context.Context, id string, result *comparison.Result) error

	// Get retrieves a result; a missing id yields a NotFound error
	Get(ctx context.Context, id string) (*comparison.Result, error)

	// List returns summaries ordered newest first, plus the total count
	List(ctx context.Context, opts ListOptions) ([]comparison.Summary, int, error)

	// Delete removes a result; a missing id yields a NotFound error
	Delete(ctx context.Context, id string) error

	// Backend names the storage medium for logs and events
	Backend() string
}

// ListOptions controls comparison listing
type ListOptions struct {
	Offset int
	Limit  int
}

// Closer is implemented by stores holding resources
type Closer interface {
	Close() error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends domain events to interested subscribers
	Publish(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching query results
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SnapshotSource loads a graph snapshot from an external graph database
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context, query SnapshotQuery) (aggregates.Snapshot, error)
}

// SnapshotQuery selects the part of an external graph to import
type SnapshotQuery struct {
	// Labels restricts nodes to these labels; empty means all
	Labels []string
	Limit  int
}

// Metrics records operational measurements
type Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
}
