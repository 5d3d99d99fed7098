package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"graphdiff/application/queries"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/validators"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
)

// CompareGraphsHandler computes a comparison result in memory
type CompareGraphsHandler struct {
	validator *validators.SnapshotValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewCompareGraphsHandler creates a new compare handler
func NewCompareGraphsHandler(validator *validators.SnapshotValidator, logger *zap.Logger) *CompareGraphsHandler {
	return &CompareGraphsHandler{
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle executes the compare query
func (h *CompareGraphsHandler) Handle(ctx context.Context, query queries.CompareGraphsQuery) (*comparison.Result, error) {
	if err := h.validator.ValidatePair(query.Graph1, query.Graph2); err != nil {
		return nil, err
	}

	result, err := comparison.NewResult(query.Graph1, query.Graph2, query.Name1, query.Name2, h.now())
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Graphs compared",
		zap.Int("nodes1", query.Graph1.NodeCount()),
		zap.Int("nodes2", query.Graph2.NodeCount()),
		zap.Float64("similarity", result.Differences.SimilarityScore),
		zap.Int("totalChanges", result.Differences.TotalChanges),
	)

	return result, nil
}

// MergeGraphsHandler merges two snapshots
type MergeGraphsHandler struct {
	validator *validators.SnapshotValidator
	logger    *zap.Logger
}

// NewMergeGraphsHandler creates a new merge handler
func NewMergeGraphsHandler(validator *validators.SnapshotValidator, logger *zap.Logger) *MergeGraphsHandler {
	return &MergeGraphsHandler{
		validator: validator,
		logger:    logger,
	}
}

// Handle executes the merge query
func (h *MergeGraphsHandler) Handle(ctx context.Context, query queries.MergeGraphsQuery) (*merging.Result, error) {
	if err := h.validator.ValidatePair(query.Graph1, query.Graph2); err != nil {
		return nil, err
	}

	strategy, err := merging.ParseStrategy(query.Strategy)
	if err != nil {
		return nil, err
	}

	result, err := merging.Merge(query.Graph1, query.Graph2, strategy)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Graphs merged",
		zap.String("strategy", string(strategy)),
		zap.Int("totalNodes", result.Statistics.TotalNodes),
		zap.Int("totalLinks", result.Statistics.TotalLinks),
	)

	return result, nil
}

// TrackEvolutionHandler builds an evolution report
type TrackEvolutionHandler struct {
	validator *validators.SnapshotValidator
	tracker   *versioning.Tracker
	logger    *zap.Logger
}

// NewTrackEvolutionHandler creates a new evolution handler
func NewTrackEvolutionHandler(validator *validators.SnapshotValidator, tracker *versioning.Tracker, logger *zap.Logger) *TrackEvolutionHandler {
	return &TrackEvolutionHandler{
		validator: validator,
		tracker:   tracker,
		logger:    logger,
	}
}

// Handle executes the evolution query
func (h *TrackEvolutionHandler) Handle(ctx context.Context, query queries.TrackEvolutionQuery) (*versioning.Report, error) {
	if err := h.validator.ValidateSequence(query.Versions); err != nil {
		return nil, err
	}

	report, err := h.tracker.Track(ctx, query.Versions)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Evolution tracked",
		zap.Int("versions", report.TotalVersions),
		zap.Int("nodeAdditions", report.Summary.TotalNodeAdditions),
		zap.Int("nodeRemovals", report.Summary.TotalNodeRemovals),
	)

	return report, nil
}
