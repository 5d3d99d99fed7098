package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"graphdiff/application/commands"
	"graphdiff/application/commands/bus"
	"graphdiff/application/ports"
	"graphdiff/application/queries"
	"graphdiff/domain/events"
)

// SaveComparisonHandler writes a comparison to the store and announces it
type SaveComparisonHandler struct {
	store     ports.ComparisonStore
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSaveComparisonHandler creates a new save handler
func NewSaveComparisonHandler(store ports.ComparisonStore, publisher ports.EventPublisher, logger *zap.Logger) *SaveComparisonHandler {
	return &SaveComparisonHandler{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle executes the save command. The caller's result is not modified.
func (h *SaveComparisonHandler) Handle(ctx context.Context, cmd commands.SaveComparisonCommand) error {
	record := *cmd.Result
	record.ComparisonID = cmd.ComparisonID

	if err := h.store.Put(ctx, cmd.ComparisonID, &record); err != nil {
		return err
	}

	event := events.NewComparisonSaved(
		cmd.ComparisonID,
		record.Version1.Name,
		record.Version2.Name,
		record.Differences.SimilarityScore,
		record.Differences.TotalChanges,
		h.store.Backend(),
		h.now(),
	)
	publish(ctx, h.publisher, h.logger, event)

	return nil
}

// DeleteComparisonHandler removes a stored comparison
type DeleteComparisonHandler struct {
	store     ports.ComparisonStore
	cache     ports.Cache
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeleteComparisonHandler creates a new delete handler
func NewDeleteComparisonHandler(store ports.ComparisonStore, cache ports.Cache, publisher ports.EventPublisher, logger *zap.Logger) *DeleteComparisonHandler {
	return &DeleteComparisonHandler{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle executes the delete command
func (h *DeleteComparisonHandler) Handle(ctx context.Context, cmd commands.DeleteComparisonCommand) error {
	if err := h.store.Delete(ctx, cmd.ComparisonID); err != nil {
		return err
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, queries.ComparisonCacheKey(cmd.ComparisonID)); err != nil {
			h.logger.Warn("Failed to evict cached comparison",
				zap.String("comparisonId", cmd.ComparisonID),
				zap.Error(err),
			)
		}
	}

	publish(ctx, h.publisher, h.logger, events.NewComparisonDeleted(cmd.ComparisonID, h.store.Backend(), h.now()))
	return nil
}

// publish sends an event after the write has succeeded. Failures are logged
// and never undo the write.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, event events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, []events.DomainEvent{event}); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateId", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// Register adapts the typed handlers to the command bus
func Register(b *bus.CommandBus, save *SaveComparisonHandler, del *DeleteComparisonHandler) error {
	if err := b.Register(commands.SaveComparisonCommand{}, bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		typed, ok := cmd.(commands.SaveComparisonCommand)
		if !ok {
			return fmt.Errorf("unexpected command type %T", cmd)
		}
		return save.Handle(ctx, typed)
	})); err != nil {
		return err
	}

	return b.Register(commands.DeleteComparisonCommand{}, bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		typed, ok := cmd.(commands.DeleteComparisonCommand)
		if !ok {
			return fmt.Errorf("unexpected command type %T", cmd)
		}
		return del.Handle(ctx, typed)
	}))
}
