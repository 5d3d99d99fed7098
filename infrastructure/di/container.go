// Package di wires the service's dependencies with google/wire.
package di

import (
	"go.uber.org/zap"

	commandbus "graphdiff/application/commands/bus"
	"graphdiff/application/ports"
	querybus "graphdiff/application/queries/bus"
	"graphdiff/application/services"
	"graphdiff/infrastructure/config"
	"graphdiff/interfaces/http/rest"
	"graphdiff/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      ports.ComparisonStore
	Publisher  ports.EventPublisher
	Cache      *InMemoryCache
	Collector  *observability.Collector
	CloudWatch *observability.CloudWatchMetrics
	Tracer     *observability.Tracer
	QueryBus   *querybus.QueryBus
	CommandBus *commandbus.CommandBus
	Service    *services.ComparisonService
	Router     *rest.Router
	Watcher    *config.Watcher
}
