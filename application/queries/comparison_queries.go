package queries

import (
	"github.com/google/uuid"

	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/merging"
	"graphdiff/pkg/errors"
)

// CompareGraphsQuery compares two snapshots without persisting anything
type CompareGraphsQuery struct {
	Graph1 aggregates.Snapshot
	Graph2 aggregates.Snapshot
	Name1  string
	Name2  string
}

// Validate validates the query
func (q CompareGraphsQuery) Validate() error {
	return nil
}

// MergeGraphsQuery merges two snapshots under a strategy
type MergeGraphsQuery struct {
	Graph1   aggregates.Snapshot
	Graph2   aggregates.Snapshot
	Strategy string
}

// Validate validates the query
func (q MergeGraphsQuery) Validate() error {
	_, err := merging.ParseStrategy(q.Strategy)
	return err
}

// TrackEvolutionQuery diffs an ordered sequence of snapshots
type TrackEvolutionQuery struct {
	Versions []aggregates.Snapshot
}

// Validate validates the query. The minimum version count is enforced by
// the tracker itself so the error carries its code.
func (q TrackEvolutionQuery) Validate() error {
	return nil
}

// GetComparisonQuery loads a persisted comparison
type GetComparisonQuery struct {
	ComparisonID string
}

// Validate validates the query
func (q GetComparisonQuery) Validate() error {
	return ValidateComparisonID(q.ComparisonID)
}

// CacheKey implements bus.Cacheable
func (q GetComparisonQuery) CacheKey() string {
	return ComparisonCacheKey(q.ComparisonID)
}

// ComparisonCacheKey is the cache key of a persisted comparison
func ComparisonCacheKey(id string) string {
	return "comparison:" + id
}

// ValidateComparisonID rejects identifiers that were not generated by the
// service. Stores key files and rows by this value.
func ValidateComparisonID(id string) error {
	if id == "" {
		return errors.NewValidationError("comparison id is required").WithCode("MISSING_COMPARISON_ID")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewValidationError("comparison id must be a UUID").
			WithCode("INVALID_COMPARISON_ID").
			WithDetail("comparisonId", id)
	}
	return nil
}

// ListComparisonsQuery pages through persisted comparisons, newest first
type ListComparisonsQuery struct {
	Page     int
	PageSize int
}

// Validate validates the query
func (q ListComparisonsQuery) Validate() error {
	if q.Page < 1 {
		return errors.NewValidationError("page must be at least 1")
	}
	if q.PageSize < 1 {
		return errors.NewValidationError("page size must be at least 1")
	}
	return nil
}

// ListComparisonsResult is one page of comparison summaries
type ListComparisonsResult struct {
	Items    []comparison.Summary
	Page     int
	PageSize int
	Total    int
}
