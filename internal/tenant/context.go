package tenant

import (
	"context"
	"errors"
)

// ErrRebind is returned when a unit of work attempts to bind a second,
// different tenant after one has already been set.
var ErrRebind = errors.New("tenant: context already bound to a different tenant")

type ctxKey struct{}

// WithTenant binds the resolved tenant to the context of the current unit of
// work. The binding is set at most once: binding the same tenant again is a
// no-op, binding a different one fails with ErrRebind.
func WithTenant(ctx context.Context, tenantID int64) (context.Context, error) {
	if existing, ok := FromContext(ctx); ok {
		if existing != tenantID {
			return ctx, ErrRebind
		}
		return ctx, nil
	}
	return context.WithValue(ctx, ctxKey{}, tenantID), nil
}

// FromContext returns the tenant bound to the context, if any.
func FromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
