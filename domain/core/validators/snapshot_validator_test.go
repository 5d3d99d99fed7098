package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphdiff/domain/config"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/core/entities"
	"graphdiff/pkg/errors"
)

func smallConfig() *config.DomainConfig {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerSnapshot = 2
	cfg.MaxLinksPerSnapshot = 1
	cfg.MaxVersions = 3
	return cfg
}

func nodes(n int) []entities.Node {
	out := make([]entities.Node, n)
	for i := range out {
		out[i] = entities.NodeFromMap(map[string]interface{}{"id": i})
	}
	return out
}

func TestValidateSnapshot_Limits(t *testing.T) {
	v := NewSnapshotValidator(smallConfig())

	tests := []struct {
		name     string
		snapshot aggregates.Snapshot
		wantErr  bool
	}{
		{"empty", aggregates.Snapshot{}, false},
		{"at limit", aggregates.NewSnapshot(nodes(2), nil), false},
		{"too many nodes", aggregates.NewSnapshot(nodes(3), nil), true},
		{"too many links", aggregates.NewSnapshot(nil, make([]entities.Link, 2)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSnapshot("graph1", tt.snapshot)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSequence(t *testing.T) {
	v := NewSnapshotValidator(smallConfig())

	assert.NoError(t, v.ValidateSequence(make([]aggregates.Snapshot, 3)))

	err := v.ValidateSequence(make([]aggregates.Snapshot, 4))
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_VERSIONS", errors.GetAppError(err).Code)

	err = v.ValidateSequence([]aggregates.Snapshot{{}, aggregates.NewSnapshot(nodes(5), nil)})
	require.Error(t, err)
	assert.Contains(t, errors.GetAppError(err).Details, "graphVersions[1].nodes")
}
