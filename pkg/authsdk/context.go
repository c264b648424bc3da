package authsdk

import (
	"context"
	"errors"
)

// ErrNoCoordinator is returned by FromContext when ctx carries no coordinator.
var ErrNoCoordinator = errors.New("authsdk: no coordinator in context")

type coordinatorKey struct{}

// NewContext returns a copy of ctx carrying c, so request handlers and
// commands can reach the process coordinator without a global.
func NewContext(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, coordinatorKey{}, c)
}

// FromContext returns the coordinator stored by NewContext.
func FromContext(ctx context.Context) (*Coordinator, error) {
	c, ok := ctx.Value(coordinatorKey{}).(*Coordinator)
	if !ok || c == nil {
		return nil, ErrNoCoordinator
	}
	return c, nil
}
