package aggregates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_LenientDecoding(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantLinks int
	}{
		{"missing collections", `{}`, 0, 0},
		{"null collections", `{"nodes":null,"links":null}`, 0, 0},
		{"non-array collections", `{"nodes":"oops","links":42}`, 0, 0},
		{"populated", `{"nodes":[{"id":"n1"},{"id":"n2"}],"links":[{"source":"n1","target":"n2"}]}`, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := DecodeSnapshot([]byte(tt.input))

			require.NoError(t, err)
			assert.Equal(t, tt.wantNodes, snapshot.NodeCount())
			assert.Equal(t, tt.wantLinks, snapshot.LinkCount())
		})
	}
}

func TestSnapshot_RoundTripKeepsUnknownKeys(t *testing.T) {
	in := `{"nodes":[{"id":"n1"}],"links":[],"timestamp":"2024-01-01T00:00:00Z","metadata":{"v":1},"title":"draft"}`

	snapshot, err := DecodeSnapshot([]byte(in))
	require.NoError(t, err)

	out, err := json.Marshal(snapshot)
	require.NoError(t, err)

	assert.JSONEq(t, in, string(out))
	assert.Equal(t, "2024-01-01T00:00:00Z", snapshot.Timestamp)
}

func TestSnapshot_ChecksumIgnoresKeyOrder(t *testing.T) {
	a, err := DecodeSnapshot([]byte(`{"nodes":[{"id":"n1","label":"A"}]}`))
	require.NoError(t, err)
	b, err := DecodeSnapshot([]byte(`{"nodes":[{"label":"A","id":"n1"}]}`))
	require.NoError(t, err)

	sumA, err := a.Checksum()
	require.NoError(t, err)
	sumB, err := b.Checksum()
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB)
}
