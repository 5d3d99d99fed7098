package abstractions

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/pkg/errors"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Tracer wraps store calls in trace subsegments
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}

// ResilientStore decorates a ComparisonStore with a circuit breaker,
// operation metrics and tracing. Not-found and validation outcomes are
// answers, not failures, and never trip the breaker.
type ResilientStore struct {
	next    ports.ComparisonStore
	breaker *gobreaker.CircuitBreaker
	metrics ports.Metrics
	tracer  Tracer
	logger  *zap.Logger
}

// NewResilientStore wraps next. Metrics and tracer may be nil.
func NewResilientStore(next ports.ComparisonStore, cfg BreakerConfig, metrics ports.Metrics, tracer Tracer, logger *zap.Logger) *ResilientStore {
	name := "comparison-store-" + next.Backend()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFound(err) || errors.IsValidation(err)
		},
	})

	return &ResilientStore{
		next:    next,
		breaker: breaker,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
	}
}

// Put implements ports.ComparisonStore
func (s *ResilientStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	return s.run(ctx, "put", func(ctx context.Context) error {
		return s.next.Put(ctx, id, result)
	})
}

// Get implements ports.ComparisonStore
func (s *ResilientStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	var result *comparison.Result
	err := s.run(ctx, "get", func(ctx context.Context) error {
		var err error
		result, err = s.next.Get(ctx, id)
		return err
	})
	return result, err
}

// List implements ports.ComparisonStore
func (s *ResilientStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	var (
		items []comparison.Summary
		total int
	)
	err := s.run(ctx, "list", func(ctx context.Context) error {
		var err error
		items, total, err = s.next.List(ctx, opts)
		return err
	})
	return items, total, err
}

// Delete implements ports.ComparisonStore
func (s *ResilientStore) Delete(ctx context.Context, id string) error {
	return s.run(ctx, "delete", func(ctx context.Context) error {
		return s.next.Delete(ctx, id)
	})
}

// Backend implements ports.ComparisonStore
func (s *ResilientStore) Backend() string {
	return s.next.Backend()
}

// Close closes the wrapped store if it holds resources
func (s *ResilientStore) Close() error {
	if closer, ok := s.next.(ports.Closer); ok {
		return closer.Close()
	}
	return nil
}

// State reports the breaker state for readiness checks
func (s *ResilientStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *ResilientStore) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()

	_, err := s.breaker.Execute(func() (interface{}, error) {
		if s.tracer == nil {
			return nil, fn(ctx)
		}
		return nil, s.tracer.TraceFunction(ctx, "store."+operation, fn)
	})

	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		err = errors.NewUnavailableError("comparison store").
			WithCode("STORE_CIRCUIT_OPEN").
			WithCause(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveOperation("store_"+operation, time.Since(start), err)
	}
	return err
}
