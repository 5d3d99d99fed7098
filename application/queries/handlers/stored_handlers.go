package handlers

import (
	"context"

	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/application/queries"
	"graphdiff/domain/comparison"
)

// GetComparisonHandler loads a persisted comparison
type GetComparisonHandler struct {
	store  ports.ComparisonStore
	logger *zap.Logger
}

// NewGetComparisonHandler creates a new get handler
func NewGetComparisonHandler(store ports.ComparisonStore, logger *zap.Logger) *GetComparisonHandler {
	return &GetComparisonHandler{
		store:  store,
		logger: logger,
	}
}

// Handle executes the get query
func (h *GetComparisonHandler) Handle(ctx context.Context, query queries.GetComparisonQuery) (*comparison.Result, error) {
	result, err := h.store.Get(ctx, query.ComparisonID)
	if err != nil {
		return nil, err
	}

	// Records written before ids were embedded carry none
	if result.ComparisonID == "" {
		result.ComparisonID = query.ComparisonID
	}
	return result, nil
}

// ListComparisonsHandler pages through stored comparisons
type ListComparisonsHandler struct {
	store  ports.ComparisonStore
	logger *zap.Logger
}

// NewListComparisonsHandler creates a new list handler
func NewListComparisonsHandler(store ports.ComparisonStore, logger *zap.Logger) *ListComparisonsHandler {
	return &ListComparisonsHandler{
		store:  store,
		logger: logger,
	}
}

// Handle executes the list query
func (h *ListComparisonsHandler) Handle(ctx context.Context, query queries.ListComparisonsQuery) (*queries.ListComparisonsResult, error) {
	items, total, err := h.store.List(ctx, ports.ListOptions{
		Offset: (query.Page - 1) * query.PageSize,
		Limit:  query.PageSize,
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []comparison.Summary{}
	}

	return &queries.ListComparisonsResult{
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    total,
	}, nil
}
