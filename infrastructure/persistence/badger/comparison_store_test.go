package badger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphdiff/application/ports"
	"graphdiff/infrastructure/persistence/storetest"
)

func newTestStore(t *testing.T) *ComparisonStore {
	t.Helper()
	store, err := NewComparisonStore(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestComparisonStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.ComparisonStore {
		return newTestStore(t)
	})
}

func TestComparisonStore_PersistsAcrossReopen(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	id := uuid.NewString()
	ctx := context.Background()

	store, err := NewComparisonStore(Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, id, storetest.NewResult(t, time.Now())))
	require.NoError(t, store.Close())

	// Act
	reopened, err := NewComparisonStore(Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Before", got.Version1.Name)
}

func TestNewComparisonStore_RequiresPath(t *testing.T) {
	_, err := NewComparisonStore(Config{})
	assert.Error(t, err)
}
