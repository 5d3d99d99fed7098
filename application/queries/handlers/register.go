package handlers

import (
	"context"
	"fmt"

	"graphdiff/application/queries/bus"
)

// typedHandler is implemented by every handler in this package
type typedHandler[Q bus.Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Register adapts a typed handler to the bus and registers it for Q
func Register[Q bus.Query, R any](b *bus.QueryBus, h typedHandler[Q, R]) error {
	var zero Q
	return b.Register(zero, bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		result, err := h.Handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	}))
}
