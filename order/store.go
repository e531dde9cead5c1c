package order

import (
	"context"

	"github.com/xraph/commerce/id"
)

// Store persists orders.
type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, orderID id.OrderID) (*Order, error)
	ListOrders(ctx context.Context, businessID string, opts ListOpts) ([]*Order, error)
}
