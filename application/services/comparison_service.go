package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"graphdiff/application/commands"
	commandbus "graphdiff/application/commands/bus"
	"graphdiff/application/queries"
	querybus "graphdiff/application/queries/bus"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
	"graphdiff/pkg/errors"
)

// QueryDispatcher is the read side of the application
type QueryDispatcher interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// CommandDispatcher is the write side of the application
type CommandDispatcher interface {
	Send(ctx context.Context, cmd commandbus.Command) error
}

// CompareRequest describes a comparison and whether to persist it
type CompareRequest struct {
	Graph1 aggregates.Snapshot
	Graph2 aggregates.Snapshot
	Name1  string
	Name2  string
	Save   bool
}

// CompareOutcome is a computed comparison plus any non-fatal persistence
// warnings. ComparisonID is set only when the save succeeded.
type CompareOutcome struct {
	*comparison.Result
	Warnings []string `json:"warnings,omitempty"`
}

// ComparisonService orchestrates the comparison use cases over the buses.
// Computation always completes before any store call is made.
type ComparisonService struct {
	queries      QueryDispatcher
	commands     CommandDispatcher
	storeTimeout time.Duration
	logger       *zap.Logger
	newID        func() string
}

// NewComparisonService creates a new comparison service
func NewComparisonService(
	queries QueryDispatcher,
	commands CommandDispatcher,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *ComparisonService {
	return &ComparisonService{
		queries:      queries,
		commands:     commands,
		storeTimeout: storeTimeout,
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// Compare computes a comparison and optionally saves it
func (s *ComparisonService) Compare(ctx context.Context, req CompareRequest) (*CompareOutcome, error) {
	raw, err := s.queries.Ask(ctx, queries.CompareGraphsQuery{
		Graph1: req.Graph1,
		Graph2: req.Graph2,
		Name1:  req.Name1,
		Name2:  req.Name2,
	})
	if err != nil {
		return nil, err
	}
	result, ok := raw.(*comparison.Result)
	if !ok {
		return nil, unexpected(raw)
	}

	outcome := &CompareOutcome{Result: result}
	if !req.Save {
		return outcome, nil
	}

	id := s.newID()
	if err := s.save(ctx, id, result); err != nil {
		s.logger.Warn("Comparison computed but not saved",
			zap.String("comparisonId", id),
			zap.Error(err),
		)
		outcome.Warnings = append(outcome.Warnings, saveWarning(err))
		return outcome, nil
	}

	result.ComparisonID = id
	return outcome, nil
}

func (s *ComparisonService) save(ctx context.Context, id string, result *comparison.Result) error {
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}
	return s.commands.Send(ctx, commands.SaveComparisonCommand{ComparisonID: id, Result: result})
}

func saveWarning(err error) string {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "comparison was not saved: store operation timed out"
	}
	if appErr := errors.GetAppError(err); appErr != nil {
		return "comparison was not saved: " + appErr.Message
	}
	return "comparison was not saved: store unavailable"
}

// Merge merges two snapshots
func (s *ComparisonService) Merge(ctx context.Context, graph1, graph2 aggregates.Snapshot, strategy string) (*merging.Result, error) {
	raw, err := s.queries.Ask(ctx, queries.MergeGraphsQuery{Graph1: graph1, Graph2: graph2, Strategy: strategy})
	if err != nil {
		return nil, err
	}
	result, ok := raw.(*merging.Result)
	if !ok {
		return nil, unexpected(raw)
	}
	return result, nil
}

// TrackEvolution diffs consecutive versions
func (s *ComparisonService) TrackEvolution(ctx context.Context, versions []aggregates.Snapshot) (*versioning.Report, error) {
	raw, err := s.queries.Ask(ctx, queries.TrackEvolutionQuery{Versions: versions})
	if err != nil {
		return nil, err
	}
	report, ok := raw.(*versioning.Report)
	if !ok {
		return nil, unexpected(raw)
	}
	return report, nil
}

// GetComparison loads a stored comparison
func (s *ComparisonService) GetComparison(ctx context.Context, id string) (*comparison.Result, error) {
	raw, err := s.queries.Ask(ctx, queries.GetComparisonQuery{ComparisonID: id})
	if err != nil {
		return nil, err
	}
	result, ok := raw.(*comparison.Result)
	if !ok {
		return nil, unexpected(raw)
	}
	return result, nil
}

// ListComparisons returns one page of stored comparison summaries
func (s *ComparisonService) ListComparisons(ctx context.Context, page, pageSize int) (*queries.ListComparisonsResult, error) {
	raw, err := s.queries.Ask(ctx, queries.ListComparisonsQuery{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	result, ok := raw.(*queries.ListComparisonsResult)
	if !ok {
		return nil, unexpected(raw)
	}
	return result, nil
}

// DeleteComparison removes a stored comparison
func (s *ComparisonService) DeleteComparison(ctx context.Context, id string) error {
	return s.commands.Send(ctx, commands.DeleteComparisonCommand{ComparisonID: id})
}

func unexpected(v interface{}) error {
	return errors.NewInternalError(fmt.Sprintf("unexpected query result %T", v))
}
