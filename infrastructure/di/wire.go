//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"graphdiff/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDomainConfig,
	ProvideSnapshotValidator,
	ProvideTracker,
	ProvideTracer,
	ProvideCollector,
	ProvideCloudWatchMetrics,
	ProvideOperationMetrics,
	ProvideComparisonStore,
	ProvideEventPublisher,
	ProvideInMemoryCache,
	ProvideQueryBus,
	ProvideCommandBus,
	ProvideComparisonService,
	ProvideJWTValidator,
	ProvideRouter,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned
// cleanup releases stores, flushers and watchers in reverse order.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
