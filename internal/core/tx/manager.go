// Package tx lets domain services run units of work without importing the
// storage layer.
package tx

import (
	"context"
)

// Manager runs fn as one unit of work. Checkout uses it to reserve the order
// number and enqueue the placed order atomically.
//
// fn's error rolls everything back. A call made inside fn joins the
// surrounding unit instead of opening a new one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds snapshot reads for catalog loads and client lookups,
// which must see a consistent view but never write.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
