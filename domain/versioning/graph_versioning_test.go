package versioning

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphdiff/domain/core/aggregates"
	pkgerrors "graphdiff/pkg/errors"
)

func versions(t *testing.T, docs ...string) []aggregates.Snapshot {
	t.Helper()
	out := make([]aggregates.Snapshot, len(docs))
	for i, doc := range docs {
		s, err := aggregates.DecodeSnapshot([]byte(doc))
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func TestTrack_RequiresTwoVersions(t *testing.T) {
	tracker := NewTracker(2)

	for _, n := range []int{0, 1} {
		t.Run(fmt.Sprintf("%d versions", n), func(t *testing.T) {
			_, err := tracker.Track(context.Background(), make([]aggregates.Snapshot, n))

			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestTrack_StepsAndSummary(t *testing.T) {
	// Arrange
	snapshots := versions(t,
		`{"nodes":[{"id":"a"}],"timestamp":"t0"}`,
		`{"nodes":[{"id":"a"},{"id":"b"}],"links":[{"source":"a","target":"b"}],"timestamp":"t1"}`,
		`{"nodes":[{"id":"b","name":"renamed"},{"id":"c"}],"links":[]}`,
		`{"nodes":[{"id":"b","name":"renamed"},{"id":"c"},{"id":"d"}],"links":[{"source":"c","target":"d"}],"timestamp":"t3"}`,
	)
	tracker := NewTracker(3)

	// Act
	report, err := tracker.Track(context.Background(), snapshots)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalVersions)
	require.Len(t, report.EvolutionSteps, 3)

	for i, st := range report.EvolutionSteps {
		assert.Equal(t, i, st.FromVersion)
		assert.Equal(t, i+1, st.ToVersion)
	}

	second := report.EvolutionSteps[1]
	assert.Equal(t, "", second.Timestamp, "missing timestamp renders empty")
	assert.Equal(t, 1, second.NodesAdded)
	assert.Equal(t, 1, second.NodesRemoved)
	assert.Equal(t, 1, second.NodesModified)
	assert.Equal(t, 1, second.LinksRemoved)
	assert.Equal(t, "t1", report.EvolutionSteps[0].Timestamp)

	var nodeAdds, nodeRemovals, linkAdds, linkRemovals int
	for _, st := range report.EvolutionSteps {
		nodeAdds += st.NodesAdded
		nodeRemovals += st.NodesRemoved
		linkAdds += st.LinksAdded
		linkRemovals += st.LinksRemoved
	}
	assert.Equal(t, Summary{
		TotalNodeAdditions: nodeAdds,
		TotalNodeRemovals:  nodeRemovals,
		TotalLinkAdditions: linkAdds,
		TotalLinkRemovals:  linkRemovals,
	}, report.Summary)
	assert.Equal(t, 3, report.Summary.TotalNodeAdditions)
}

func TestTrack_StepCountMatchesVersions(t *testing.T) {
	tracker := NewTracker(4)

	for _, n := range []int{2, 5, 17} {
		snapshots := make([]aggregates.Snapshot, n)
		report, err := tracker.Track(context.Background(), snapshots)

		require.NoError(t, err)
		assert.Len(t, report.EvolutionSteps, n-1)
	}
}

func TestTrack_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTracker(1).Track(ctx, make([]aggregates.Snapshot, 3))

	assert.ErrorIs(t, err, context.Canceled)
}
