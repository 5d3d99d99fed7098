package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestLoader(env map[string]string) *Loader {
	return &Loader{
		lookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := newTestLoader(nil).Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendFilesystem, cfg.Store.Backend)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoad_Layering(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
environment: staging
log_level: warn
store:
  backend: sqlite
  sqlite_path: /tmp/from-yaml.db
  timeout: 2s
limits:
  evolution_workers: 8
`)
	envPath := writeFile(t, dir, ".env", "SQLITE_PATH=/tmp/from-dotenv.db\nLOG_LEVEL=error\n")

	loader := newTestLoader(map[string]string{"LOG_LEVEL": "debug"}).
		WithConfigFile(yamlPath).
		WithEnvFiles(envPath)

	// Act
	cfg, err := loader.Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Store.SQLitePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 8, cfg.DomainConfig().EvolutionWorkers)
	assert.Equal(t, yamlPath, cfg.ConfigFile)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
}

func TestLoad_MissingEnvFileIsSkipped(t *testing.T) {
	cfg, err := newTestLoader(nil).WithEnvFiles(filepath.Join(t.TempDir(), "nope.env")).Load()

	require.NoError(t, err)
	assert.NotContains(t, cfg.LoadedFrom, "nope.env")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{"ENABLE_AUTH": "maybe"}},
		{"bad duration", map[string]string{"STORE_TIMEOUT": "soon"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "tape"}},
		{"auth without secret", map[string]string{"ENABLE_AUTH": "true"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"memory in production", map[string]string{"STORE_BACKEND": "memory", "ENVIRONMENT": "production"}},
		{"one version", map[string]string{"MAX_VERSIONS": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(tt.env).Load()
			assert.Error(t, err)
		})
	}
}

func TestDomainConfig_EnvironmentDefaults(t *testing.T) {
	cfg := Default()
	cfg.Environment = "production"

	assert.Equal(t, 20000, cfg.DomainConfig().MaxNodesPerSnapshot)

	cfg.Limits.MaxNodesPerSnapshot = 10
	assert.Equal(t, 10, cfg.DomainConfig().MaxNodesPerSnapshot)
}

func TestWatcher_ReloadsLogLevel(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "log_level: info\n")
	loader := newTestLoader(nil).WithConfigFile(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	level := zap.NewAtomicLevelAt(initial.Level())
	watcher, err := NewWatcher(loader, initial, zap.NewNop())
	require.NoError(t, err)
	watcher.debounce = 10 * time.Millisecond
	watcher.OnChange(LevelUpdater(level))
	watcher.Start()
	defer watcher.Close()

	// Act
	writeFile(t, dir, "config.yaml", "log_level: debug\n")

	// Assert
	require.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "debug", watcher.Current().LogLevel)
}

func TestWatcher_KeepsPreviousOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "log_level: info\n")
	loader := newTestLoader(nil).WithConfigFile(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	watcher, err := NewWatcher(loader, initial, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Close()

	writeFile(t, dir, "config.yaml", "log_level: [\n")
	watcher.reload()

	assert.Same(t, initial, watcher.Current())
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(newTestLoader(nil), Default(), zap.NewNop())
	assert.Error(t, err)
}
