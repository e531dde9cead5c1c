// Package store composes the per-entity storage interfaces into the single
// Store every backend implements.
package store

import (
	"context"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/order"
)

// Store is the unified storage interface for all commerce entities.
type Store interface {
	catalog.Store
	coupon.Store
	cart.Store
	order.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
