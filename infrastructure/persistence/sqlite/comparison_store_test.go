package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"graphdiff/application/ports"
	"graphdiff/infrastructure/persistence/storetest"
)

func TestComparisonStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.ComparisonStore {
		store, err := NewComparisonStore(filepath.Join(t.TempDir(), "comparisons.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
