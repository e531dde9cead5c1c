package catalog

import (
	"context"

	"github.com/xraph/commerce/id"
)

// Store persists catalog items. AdjustProductStock applies a signed delta
// and must refuse to drive stock below zero.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, productID id.ProductID) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	ListProducts(ctx context.Context, businessID string, opts ListOpts) ([]*Product, error)
	AdjustProductStock(ctx context.Context, productID id.ProductID, delta int64) error

	CreateService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, serviceID id.ServiceID) (*Service, error)
	UpdateService(ctx context.Context, s *Service) error
	ListServices(ctx context.Context, businessID string, opts ListOpts) ([]*Service, error)

	CreateCombo(ctx context.Context, c *Combo) error
	GetCombo(ctx context.Context, comboID id.ComboID) (*Combo, error)
	UpdateCombo(ctx context.Context, c *Combo) error
	ListCombos(ctx context.Context, businessID string, opts ListOpts) ([]*Combo, error)
}
