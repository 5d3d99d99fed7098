// Package storetest holds the behavioural suite every ComparisonStore
// backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/pkg/errors"
)

// Factory creates an empty store for one subtest
type Factory func(t *testing.T) ports.ComparisonStore

// NewResult builds a small comparison created at the given time
func NewResult(t *testing.T, createdAt time.Time) *comparison.Result {
	t.Helper()

	a, err := aggregates.DecodeSnapshot([]byte(`{"nodes":[{"id":"n1","label":"Requirement","name":"Req1"}],"links":[]}`))
	require.NoError(t, err)
	b, err := aggregates.DecodeSnapshot([]byte(`{"nodes":[{"id":"n1","label":"Requirement","name":"Req1"},{"id":"n2","label":"Feature","name":"F1"}],"links":[{"source":{"id":"n1"},"target":"n2"}]}`))
	require.NoError(t, err)

	result, err := comparison.NewResult(a, b, "Before", "After", createdAt)
	require.NoError(t, err)
	return result
}

// Run executes the contract against a backend
func Run(t *testing.T, factory Factory) {
	t.Run("put then get returns the record", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		id := uuid.NewString()
		original := NewResult(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		original.ComparisonID = id

		require.NoError(t, store.Put(ctx, id, original))

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ComparisonID)
		assert.Equal(t, original.Summarize(), got.Summarize())
		assert.Equal(t, original.Version1.Checksum, got.Version1.Checksum)
		assert.Equal(t, 1, got.Differences.Nodes.CountAdded)
		assert.Equal(t, 1, got.Differences.Links.CountAdded)
		require.Len(t, got.Version2.GraphData.Nodes, 2)
		assert.True(t, original.Version2.GraphData.Nodes[1].Equal(got.Version2.GraphData.Nodes[1]))
	})

	t.Run("get missing is not found", func(t *testing.T) {
		store := factory(t)

		_, err := store.Get(context.Background(), uuid.NewString())
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		id := uuid.NewString()

		first := NewResult(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		second := NewResult(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		second.Version1.Name = "Renamed"

		require.NoError(t, store.Put(ctx, id, first))
		require.NoError(t, store.Put(ctx, id, second))

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Version1.Name)

		_, total, err := store.List(ctx, ports.ListOptions{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("list is newest first and paginated", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		ids := make([]string, 3)
		for i := range ids {
			ids[i] = uuid.NewString()
			result := NewResult(t, base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, store.Put(ctx, ids[i], result))
		}

		page, total, err := store.List(ctx, ports.ListOptions{Offset: 0, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, ids[2], page[0].ComparisonID)
		assert.Equal(t, ids[1], page[1].ComparisonID)
		assert.Equal(t, "Before", page[0].Name1)

		page, total, err = store.List(ctx, ports.ListOptions{Offset: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ComparisonID)

		page, _, err = store.List(ctx, ports.ListOptions{Offset: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		id := uuid.NewString()

		require.NoError(t, store.Put(ctx, id, NewResult(t, time.Now())))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Get(ctx, id)
		assert.True(t, errors.IsNotFound(err))

		err = store.Delete(ctx, id)
		assert.True(t, errors.IsNotFound(err))

		_, total, err := store.List(ctx, ports.ListOptions{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("backend is named", func(t *testing.T) {
		assert.NotEmpty(t, factory(t).Backend())
	})
}
