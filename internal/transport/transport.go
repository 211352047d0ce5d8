// Package transport delivers a method call to the grid service and returns the
// decoded response tree.
package transport

import (
	"context"
	"fmt"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
)

// Transport sends one call and returns the decoded response. Implementations
// must not retain or modify args.
type Transport interface {
	Send(ctx context.Context, method string, args models.Object) (models.Value, error)
}

// Func adapts an ordinary function to a Transport.
type Func func(ctx context.Context, method string, args models.Object) (models.Value, error)

// Send implements Transport.
func (f Func) Send(ctx context.Context, method string, args models.Object) (models.Value, error) {
	return f(ctx, method, args)
}

// Static answers every call from a fixed table of responses keyed by method.
type Static map[string]models.Value

// Send implements Transport.
func (s Static) Send(ctx context.Context, method string, _ models.Object) (models.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("call to %s cancelled", method), err)
	}
	v, ok := s[method]
	if !ok {
		return nil, errors.NewTransportError(fmt.Sprintf("no response recorded for method %s", method), nil)
	}
	return v, nil
}
