package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	commandbus "graphdiff/application/commands/bus"
	commandhandlers "graphdiff/application/commands/handlers"
	"graphdiff/application/ports"
	"graphdiff/application/queries"
	querybus "graphdiff/application/queries/bus"
	queryhandlers "graphdiff/application/queries/handlers"
	"graphdiff/application/services"
	"graphdiff/domain/comparison"
	domainconfig "graphdiff/domain/config"
	"graphdiff/domain/core/validators"
	"graphdiff/domain/merging"
	"graphdiff/domain/versioning"
	"graphdiff/infrastructure/config"
	"graphdiff/infrastructure/messaging"
	"graphdiff/infrastructure/messaging/eventbridge"
	"graphdiff/infrastructure/persistence/abstractions"
	badgerstore "graphdiff/infrastructure/persistence/badger"
	dynamostore "graphdiff/infrastructure/persistence/dynamodb"
	"graphdiff/infrastructure/persistence/filesystem"
	"graphdiff/infrastructure/persistence/memory"
	sqlitestore "graphdiff/infrastructure/persistence/sqlite"
	"graphdiff/interfaces/http/rest"
	"graphdiff/interfaces/http/rest/handlers"
	"graphdiff/pkg/auth"
	"graphdiff/pkg/observability"
)

const serviceName = "graphdiff"

// ProvideLogLevel creates the runtime-adjustable log level
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	return zap.NewAtomicLevelAt(cfg.Level())
}

// ProvideLogger creates the logger: JSON in production, console otherwise
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig loads the AWS SDK configuration. Credentials resolve
// lazily, so this succeeds without AWS access.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
}

// ProvideDomainConfig returns the effective domain limits
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideSnapshotValidator creates the snapshot size validator
func ProvideSnapshotValidator(dcfg *domainconfig.DomainConfig) *validators.SnapshotValidator {
	return validators.NewSnapshotValidator(dcfg)
}

// ProvideTracker creates the evolution tracker
func ProvideTracker(dcfg *domainconfig.DomainConfig) *versioning.Tracker {
	return versioning.NewTracker(dcfg.EvolutionWorkers)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.Features.EnableTracing)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideCloudWatchMetrics starts a background CloudWatch flusher when
// enabled. Returns nil otherwise.
func ProvideCloudWatchMetrics(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (*observability.CloudWatchMetrics, func()) {
	if !cfg.Features.EnableCloudWatch {
		return nil, func() {}
	}

	sink := observability.NewCloudWatchMetrics(cfg.AWS.CloudWatchNamespace, awscloudwatch.NewFromConfig(awsCfg), logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sink.Run(ctx, time.Minute)
	}()

	return sink, func() {
		cancel()
		<-done
	}
}

// ProvideOperationMetrics fans operation measurements out to the enabled sinks
func ProvideOperationMetrics(cfg *config.Config, collector *observability.Collector, cloudWatch *observability.CloudWatchMetrics) ports.Metrics {
	var sinks observability.Observers
	if cfg.Features.EnableMetrics {
		sinks = append(sinks, collector)
	}
	if cloudWatch != nil {
		sinks = append(sinks, cloudWatch)
	}
	return sinks
}

// ProvideComparisonStore opens the configured backend and wraps it with the
// circuit breaker, metrics and tracing
func ProvideComparisonStore(
	cfg *config.Config,
	awsCfg aws.Config,
	metrics ports.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (ports.ComparisonStore, func(), error) {
	backend, err := OpenBackend(cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := abstractions.NewResilientStore(backend, abstractions.DefaultBreakerConfig(), metrics, tracer, logger)
	logger.Info("Comparison store ready", zap.String("backend", store.Backend()))

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close comparison store", zap.Error(err))
		}
	}, nil
}

// OpenBackend opens the raw store selected by STORE_BACKEND
func OpenBackend(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (ports.ComparisonStore, error) {
	switch cfg.Store.Backend {
	case config.BackendFilesystem:
		return filesystem.NewComparisonStore(cfg.Store.ComparisonsDir, logger)
	case config.BackendBadger:
		return badgerstore.NewComparisonStore(badgerstore.Config{
			Path:       cfg.Store.BadgerPath,
			GCInterval: 10 * time.Minute,
			Logger:     logger,
		})
	case config.BackendSQLite:
		return sqlitestore.NewComparisonStore(cfg.Store.SQLitePath)
	case config.BackendDynamoDB:
		return dynamostore.NewComparisonStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Store.DynamoDBTable, logger), nil
	case config.BackendMemory:
		return memory.NewComparisonStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// ProvideEventPublisher sends events to EventBridge when enabled and to the
// log otherwise
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.Features.EnableEvents {
		return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.AWS.EventBusName, logger)
	}
	return messaging.NewLogPublisher(logger)
}

// ProvideInMemoryCache creates the query result cache
func ProvideInMemoryCache() (*InMemoryCache, func()) {
	cache := NewInMemoryCache(time.Minute)
	return cache, cache.Close
}

// queryMetrics adapts the collector to the query bus metrics interface
type queryMetrics struct {
	collector *observability.Collector
}

func (m queryMetrics) StartTimer(metric, label string) querybus.Timer {
	return m.collector.StartTimer(metric, label)
}

func (m queryMetrics) Increment(metric, label string) {
	m.collector.Increment(metric, label)
}

// ProvideQueryBus builds the query bus with its middleware and handlers
func ProvideQueryBus(
	cfg *config.Config,
	validator *validators.SnapshotValidator,
	tracker *versioning.Tracker,
	store ports.ComparisonStore,
	cache *InMemoryCache,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var middleware []querybus.QueryMiddleware
	if cfg.Features.EnableMetrics {
		middleware = append(middleware, querybus.NewMetricsMiddleware(queryMetrics{collector}))
	}
	if cfg.Features.EnableCache {
		middleware = append(middleware, querybus.NewCachingMiddleware(cache, cfg.Cache.TTL))
	}

	return BuildQueryBus(validator, tracker, store, logger, middleware...)
}

// BuildQueryBus registers every query handler on a new bus
func BuildQueryBus(
	validator *validators.SnapshotValidator,
	tracker *versioning.Tracker,
	store ports.ComparisonStore,
	logger *zap.Logger,
	middleware ...querybus.QueryMiddleware,
) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(middleware...)

	if err := queryhandlers.Register[queries.CompareGraphsQuery, *comparison.Result](b, queryhandlers.NewCompareGraphsHandler(validator, logger)); err != nil {
		return nil, err
	}
	if err := queryhandlers.Register[queries.MergeGraphsQuery, *merging.Result](b, queryhandlers.NewMergeGraphsHandler(validator, logger)); err != nil {
		return nil, err
	}
	if err := queryhandlers.Register[queries.TrackEvolutionQuery, *versioning.Report](b, queryhandlers.NewTrackEvolutionHandler(validator, tracker, logger)); err != nil {
		return nil, err
	}
	if err := queryhandlers.Register[queries.GetComparisonQuery, *comparison.Result](b, queryhandlers.NewGetComparisonHandler(store, logger)); err != nil {
		return nil, err
	}
	if err := queryhandlers.Register[queries.ListComparisonsQuery, *queries.ListComparisonsResult](b, queryhandlers.NewListComparisonsHandler(store, logger)); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideCommandBus builds the command bus with its handlers
func ProvideCommandBus(
	store ports.ComparisonStore,
	cache *InMemoryCache,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) (*commandbus.CommandBus, error) {
	b := commandbus.NewCommandBus(commandbus.LoggingMiddleware(logger))

	err := commandhandlers.Register(b,
		commandhandlers.NewSaveComparisonHandler(store, publisher, logger),
		commandhandlers.NewDeleteComparisonHandler(store, cache, publisher, logger),
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideComparisonService creates the application service
func ProvideComparisonService(
	cfg *config.Config,
	queryBus *querybus.QueryBus,
	commandBus *commandbus.CommandBus,
	logger *zap.Logger,
) *services.ComparisonService {
	return services.NewComparisonService(queryBus, commandBus, cfg.Store.Timeout, logger)
}

// ProvideJWTValidator returns nil when auth is disabled
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if !cfg.Features.EnableAuth {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.JWTIssuer,
		Audience:  cfg.Auth.JWTAudience,
	})
}

// ProvideRouter builds the HTTP router
func ProvideRouter(
	cfg *config.Config,
	service *services.ComparisonService,
	store ports.ComparisonStore,
	collector *observability.Collector,
	tracer *observability.Tracer,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *rest.Router {
	dcfg := cfg.DomainConfig()
	opts := rest.Options{
		Limits: handlers.Limits{
			MaxBodyBytes:    cfg.Limits.MaxBodyBytes,
			DefaultPageSize: dcfg.DefaultPageSize,
			MaxPageSize:     dcfg.MaxPageSize,
		},
		RateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
		Debug:              cfg.IsDevelopment(),
		Tracer:             tracer,
		Validator:          validator,
		Ready: func(ctx context.Context) error {
			_, _, err := store.List(ctx, ports.ListOptions{Limit: 1})
			return err
		},
	}
	if cfg.Features.EnableMetrics {
		opts.Collector = collector
	}
	return rest.NewRouter(service, opts, logger)
}

// ProvideConfigWatcher watches the YAML config file in development and
// applies log level changes. Returns nil when there is nothing to watch.
func ProvideConfigWatcher(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) (*config.Watcher, func(), error) {
	if !cfg.IsDevelopment() || cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}

	watcher, err := config.NewWatcher(config.NewLoader().WithConfigFile(cfg.ConfigFile), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(config.LevelUpdater(level))
	watcher.Start()

	return watcher, func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("Failed to close config watcher", zap.Error(err))
		}
	}, nil
}
