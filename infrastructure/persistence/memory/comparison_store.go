package memory

import (
	"context"
	"sync"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/infrastructure/persistence/abstractions"
	"graphdiff/infrastructure/persistence/schema"
	"graphdiff/pkg/errors"
)

// ComparisonStore keeps encoded comparison records in process memory.
// Records are copied in and out so callers never share state.
type ComparisonStore struct {
	mu        sync.RWMutex
	records   map[string][]byte
	summaries map[string]comparison.Summary
	codec     *schema.Codec
}

// NewComparisonStore creates a new in-memory comparison store
func NewComparisonStore() *ComparisonStore {
	return &ComparisonStore{
		records:   make(map[string][]byte),
		summaries: make(map[string]comparison.Summary),
		codec:     schema.NewCodec(false),
	}
}

// Put stores a result
func (s *ComparisonStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	data, err := s.codec.Encode(result)
	if err != nil {
		return errors.NewStoreError("put", err)
	}

	summary := result.Summarize()
	summary.ComparisonID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = data
	s.summaries[id] = summary
	return nil
}

// Get retrieves a result by id
func (s *ComparisonStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	s.mu.RLock()
	data, exists := s.records[id]
	s.mu.RUnlock()

	if !exists {
		return nil, errors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}

	result, err := s.codec.Decode(data)
	if err != nil {
		return nil, errors.NewStoreError("get", err)
	}
	return result, nil
}

// List returns stored summaries, newest first
func (s *ComparisonStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	s.mu.RLock()
	items := make([]comparison.Summary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		items = append(items, summary)
	}
	s.mu.RUnlock()

	page, total := abstractions.Page(items, opts)
	return page, total, nil
}

// Delete removes a result
func (s *ComparisonStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return errors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}

	delete(s.records, id)
	delete(s.summaries, id)
	return nil
}

// Backend implements ports.ComparisonStore
func (s *ComparisonStore) Backend() string {
	return "memory"
}
