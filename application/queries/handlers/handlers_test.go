package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdiff/application/queries"
	"graphdiff/application/queries/bus"
	"graphdiff/domain/comparison"
	"graphdiff/domain/config"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/core/validators"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
	"graphdiff/infrastructure/persistence/memory"
	"graphdiff/pkg/errors"
)

func snapshot(t *testing.T, doc string) aggregates.Snapshot {
	t.Helper()
	s, err := aggregates.DecodeSnapshot([]byte(doc))
	require.NoError(t, err)
	return s
}

func newQueryBus(t *testing.T, cfg *config.DomainConfig, store *memory.ComparisonStore) *bus.QueryBus {
	t.Helper()
	validator := validators.NewSnapshotValidator(cfg)
	logger := zap.NewNop()

	b := bus.NewQueryBus()
	require.NoError(t, Register[queries.CompareGraphsQuery, *comparison.Result](b, NewCompareGraphsHandler(validator, logger)))
	require.NoError(t, Register[queries.MergeGraphsQuery, *merging.Result](b, NewMergeGraphsHandler(validator, logger)))
	require.NoError(t, Register[queries.TrackEvolutionQuery, *versioning.Report](b, NewTrackEvolutionHandler(validator, versioning.NewTracker(2), logger)))
	require.NoError(t, Register[queries.GetComparisonQuery, *comparison.Result](b, NewGetComparisonHandler(store, logger)))
	require.NoError(t, Register[queries.ListComparisonsQuery, *queries.ListComparisonsResult](b, NewListComparisonsHandler(store, logger)))
	return b
}

func TestCompareGraphsHandler(t *testing.T) {
	// Arrange
	h := NewCompareGraphsHandler(validators.NewSnapshotValidator(config.DefaultDomainConfig()), zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	// Act
	result, err := h.Handle(context.Background(), queries.CompareGraphsQuery{
		Graph1: snapshot(t, `{"nodes":[{"id":"a"},{"id":"b"}]}`),
		Graph2: snapshot(t, `{"nodes":[{"id":"a"},{"id":"c"}]}`),
		Name2:  "next",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, comparison.DefaultName1, result.Version1.Name)
	assert.Equal(t, "next", result.Version2.Name)
	assert.Equal(t, 1, result.Differences.Nodes.CountAdded)
	assert.Equal(t, 1, result.Differences.Nodes.CountRemoved)
	assert.Equal(t, 1, result.Differences.Nodes.CountUnchanged)
	assert.Contains(t, result.CreatedAt, "2024-02-03T04:05:06")
	assert.Empty(t, result.ComparisonID)
}

func TestCompareGraphsHandler_SizeLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerSnapshot = 1
	b := newQueryBus(t, cfg, memory.NewComparisonStore())

	_, err := b.Ask(context.Background(), queries.CompareGraphsQuery{
		Graph1: snapshot(t, `{"nodes":[{"id":"a"}]}`),
		Graph2: snapshot(t, `{"nodes":[{"id":"a"},{"id":"b"}]}`),
	})

	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "SNAPSHOT_TOO_LARGE", appErr.Code)
	assert.Contains(t, appErr.Details, "graph2.nodes")
}

func TestMergeGraphsHandler(t *testing.T) {
	b := newQueryBus(t, config.DefaultDomainConfig(), memory.NewComparisonStore())
	g1 := snapshot(t, `{"nodes":[{"id":"a"},{"id":"b"}]}`)
	g2 := snapshot(t, `{"nodes":[{"id":"b"},{"id":"c"}]}`)

	raw, err := b.Ask(context.Background(), queries.MergeGraphsQuery{Graph1: g1, Graph2: g2, Strategy: "intersection"})
	require.NoError(t, err)
	result := raw.(*merging.Result)
	assert.Equal(t, merging.StrategyIntersection, result.MergeStrategy)
	assert.Equal(t, 1, result.Statistics.TotalNodes)

	_, err = b.Ask(context.Background(), queries.MergeGraphsQuery{Graph1: g1, Graph2: g2, Strategy: "zip"})
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_MERGE_STRATEGY", appErr.Code)
}

func TestTrackEvolutionHandler(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxVersions = 3
	b := newQueryBus(t, cfg, memory.NewComparisonStore())
	v := func(ids ...string) aggregates.Snapshot {
		doc := `{"nodes":[`
		for i, id := range ids {
			if i > 0 {
				doc += ","
			}
			doc += fmt.Sprintf(`{"id":%q}`, id)
		}
		return snapshot(t, doc+`]}`)
	}

	raw, err := b.Ask(context.Background(), queries.TrackEvolutionQuery{Versions: []aggregates.Snapshot{v("a"), v("a", "b"), v("b")}})
	require.NoError(t, err)
	report := raw.(*versioning.Report)
	require.Len(t, report.EvolutionSteps, 2)
	assert.Equal(t, 1, report.Summary.TotalNodeAdditions)
	assert.Equal(t, 1, report.Summary.TotalNodeRemovals)

	_, err = b.Ask(context.Background(), queries.TrackEvolutionQuery{Versions: []aggregates.Snapshot{v("a")}})
	assert.Equal(t, "INSUFFICIENT_VERSIONS", errors.GetAppError(err).Code)

	_, err = b.Ask(context.Background(), queries.TrackEvolutionQuery{Versions: []aggregates.Snapshot{v(), v(), v(), v()}})
	assert.Equal(t, "TOO_MANY_VERSIONS", errors.GetAppError(err).Code)
}

func TestStoredComparisonHandlers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewComparisonStore()
	b := newQueryBus(t, config.DefaultDomainConfig(), store)

	ids := []string{
		"11111111-1111-4111-8111-111111111111",
		"22222222-2222-4222-8222-222222222222",
		"33333333-3333-4333-8333-333333333333",
	}
	for i, id := range ids {
		require.NoError(t, store.Put(ctx, id, &comparison.Result{
			ComparisonID: id,
			Version1:     comparison.GraphVersion{Name: "v1"},
			Version2:     comparison.GraphVersion{Name: "v2"},
			CreatedAt:    fmt.Sprintf("2024-01-0%dT00:00:00.000Z", i+1),
		}))
	}

	raw, err := b.Ask(ctx, queries.GetComparisonQuery{ComparisonID: ids[1]})
	require.NoError(t, err)
	assert.Equal(t, ids[1], raw.(*comparison.Result).ComparisonID)

	raw, err = b.Ask(ctx, queries.ListComparisonsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	page := raw.(*queries.ListComparisonsResult)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ComparisonID, "newest first")

	raw, err = b.Ask(ctx, queries.ListComparisonsQuery{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.NotNil(t, raw.(*queries.ListComparisonsResult).Items)
	assert.Empty(t, raw.(*queries.ListComparisonsResult).Items)

	_, err = b.Ask(ctx, queries.GetComparisonQuery{ComparisonID: "44444444-4444-4444-8444-444444444444"})
	assert.True(t, errors.IsNotFound(err))

	_, err = b.Ask(ctx, queries.GetComparisonQuery{ComparisonID: "../../etc/passwd"})
	assert.True(t, errors.IsValidation(err))
}
