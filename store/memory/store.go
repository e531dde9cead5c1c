// Package memory is an in-process store.Store for tests, demos and the
// reference server. All reads return copies, so callers never alias stored
// state.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Catalog storage
	products map[string]*catalog.Product
	services map[string]*catalog.Service
	combos   map[string]*catalog.Combo

	// Coupon storage
	coupons map[string]*coupon.Coupon

	// Cart storage, plus the active cart per business and identity key
	carts  map[string]*cart.Cart
	active map[string]string

	// Order storage
	orders map[string]*order.Order

	// seq orders records created in the same instant
	seq     map[string]int64
	nextSeq int64

	closed bool
}

func New() *Store {
	return &Store{
		products: make(map[string]*catalog.Product),
		services: make(map[string]*catalog.Service),
		combos:   make(map[string]*catalog.Combo),
		coupons:  make(map[string]*coupon.Coupon),
		carts:    make(map[string]*cart.Cart),
		active:   make(map[string]string),
		orders:   make(map[string]*order.Order),
		seq:      make(map[string]int64),
	}
}

func (s *Store) stamp(key string) {
	s.nextSeq++
	s.seq[key] = s.nextSeq
}

func activeKey(businessID string, buyer cart.BuyerIdentity) string {
	return businessID + "|" + buyer.Key()
}

func page[T any](items []T, limit, offset int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ──────────────────────────────────────────────────
// Product Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	cp := *p
	s.products[p.ID.String()] = &cp
	s.stamp(p.ID.String())
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID id.ProductID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[productID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, commerce.ErrProductNotFound
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID.String()]; !exists {
		return commerce.ErrProductNotFound
	}
	cp := *p
	s.products[p.ID.String()] = &cp
	return nil
}

func (s *Store) ListProducts(_ context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Product, 0)
	for _, p := range s.products {
		if p.BusinessID != businessID || (opts.ActiveOnly && !p.IsActive) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) AdjustProductStock(_ context.Context, productID id.ProductID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return commerce.ErrStoreClosed
	}
	p, ok := s.products[productID.String()]
	if !ok {
		return commerce.ErrProductNotFound
	}
	if p.StockQty+delta < 0 {
		return commerce.ErrOutOfStock
	}
	p.StockQty += delta
	return nil
}

// ──────────────────────────────────────────────────
// Service Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateService(_ context.Context, svc *catalog.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	cp := *svc
	s.services[svc.ID.String()] = &cp
	s.stamp(svc.ID.String())
	return nil
}

func (s *Store) GetService(_ context.Context, serviceID id.ServiceID) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if svc, ok := s.services[serviceID.String()]; ok {
		cp := *svc
		return &cp, nil
	}
	return nil, commerce.ErrServiceNotFound
}

func (s *Store) UpdateService(_ context.Context, svc *catalog.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID.String()]; !exists {
		return commerce.ErrServiceNotFound
	}
	cp := *svc
	s.services[svc.ID.String()] = &cp
	return nil
}

func (s *Store) ListServices(_ context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Service, 0)
	for _, svc := range s.services {
		if svc.BusinessID != businessID || (opts.ActiveOnly && !svc.IsActive) {
			continue
		}
		cp := *svc
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

// ──────────────────────────────────────────────────
// Combo Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateCombo(_ context.Context, c *catalog.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.combos[c.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	cp := *c
	cp.Components = append([]catalog.Component(nil), c.Components...)
	s.combos[c.ID.String()] = &cp
	s.stamp(c.ID.String())
	return nil
}

func (s *Store) GetCombo(_ context.Context, comboID id.ComboID) (*catalog.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.combos[comboID.String()]; ok {
		cp := *c
		cp.Components = append([]catalog.Component(nil), c.Components...)
		return &cp, nil
	}
	return nil, commerce.ErrComboNotFound
}

func (s *Store) UpdateCombo(_ context.Context, c *catalog.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.combos[c.ID.String()]; !exists {
		return commerce.ErrComboNotFound
	}
	cp := *c
	cp.Components = append([]catalog.Component(nil), c.Components...)
	s.combos[c.ID.String()] = &cp
	return nil
}

func (s *Store) ListCombos(_ context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Combo, 0)
	for _, c := range s.combos {
		if c.BusinessID != businessID || (opts.ActiveOnly && !c.IsActive) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

// ──────────────────────────────────────────────────
// Coupon Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coupons[c.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	for _, existing := range s.coupons {
		if existing.BusinessID == c.BusinessID && existing.Code == c.Code {
			return commerce.ErrCouponCodeTaken
		}
	}
	cp := *c
	s.coupons[c.ID.String()] = &cp
	s.stamp(c.ID.String())
	return nil
}

func (s *Store) GetCoupon(_ context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.coupons[couponID.String()]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, commerce.ErrCouponNotFound
}

func (s *Store) GetCouponByCode(_ context.Context, businessID, code string) (*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var platform *coupon.Coupon
	for _, c := range s.coupons {
		if c.Code != code {
			continue
		}
		if c.BusinessID == businessID {
			cp := *c
			return &cp, nil
		}
		if c.BusinessID == "" {
			platform = c
		}
	}
	if platform != nil {
		cp := *platform
		return &cp, nil
	}
	return nil, commerce.ErrCouponNotFound
}

func (s *Store) ListCoupons(_ context.Context, businessID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*coupon.Coupon, 0)
	for _, c := range s.coupons {
		if c.BusinessID != businessID && c.BusinessID != "" {
			continue
		}
		if opts.AutoApply && !c.AutoApply {
			continue
		}
		if opts.ActiveOnly && !c.IsActive {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCoupon(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coupons[c.ID.String()]; !exists {
		return commerce.ErrCouponNotFound
	}
	for key, existing := range s.coupons {
		if key != c.ID.String() && existing.BusinessID == c.BusinessID && existing.Code == c.Code {
			return commerce.ErrCouponCodeTaken
		}
	}
	cp := *c
	s.coupons[c.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, couponID id.CouponID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coupons[couponID.String()]; !exists {
		return commerce.ErrCouponNotFound
	}
	delete(s.coupons, couponID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Cart Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateCart(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return commerce.ErrStoreClosed
	}
	if _, exists := s.carts[c.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	key := activeKey(c.BusinessID, c.Buyer)
	if c.Status == cart.StatusActive {
		if _, taken := s.active[key]; taken {
			return commerce.ErrActiveCartExists
		}
		s.active[key] = c.ID.String()
	}
	s.carts[c.ID.String()] = c.Clone()
	s.stamp(c.ID.String())
	return nil
}

func (s *Store) GetCart(_ context.Context, cartID id.CartID) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.carts[cartID.String()]; ok {
		return c.Clone(), nil
	}
	return nil, commerce.ErrCartNotFound
}

func (s *Store) FindActiveCart(_ context.Context, businessID string, buyer cart.BuyerIdentity) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cartID, ok := s.active[activeKey(businessID, buyer)]; ok {
		if c, ok := s.carts[cartID]; ok {
			return c.Clone(), nil
		}
	}
	return nil, commerce.ErrCartNotFound
}

func (s *Store) FindCartByItem(_ context.Context, itemID id.CartItemID) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.carts {
		if c.ItemByID(itemID) != nil {
			return c.Clone(), nil
		}
	}
	return nil, commerce.ErrCartItemNotFound
}

func (s *Store) ListCarts(_ context.Context, businessID string, opts cart.ListOpts) ([]*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*cart.Cart, 0)
	for _, c := range s.carts {
		if c.BusinessID != businessID || (opts.Status != "" && c.Status != opts.Status) {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCart(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return commerce.ErrStoreClosed
	}
	stored, ok := s.carts[c.ID.String()]
	if !ok {
		return commerce.ErrCartNotFound
	}
	if stored.Version != c.Version {
		return commerce.ErrCartConflict
	}

	key := activeKey(c.BusinessID, c.Buyer)
	if c.Status == cart.StatusActive {
		if owner, taken := s.active[key]; taken && owner != c.ID.String() {
			return commerce.ErrActiveCartExists
		}
		s.active[key] = c.ID.String()
	} else if s.active[key] == c.ID.String() {
		delete(s.active, key)
	}

	c.Version++
	s.carts[c.ID.String()] = c.Clone()
	return nil
}

func (s *Store) CountCouponUsage(_ context.Context, couponID id.CouponID, contactID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.carts {
		if c.Status != cart.StatusCompleted || c.CouponID.String() != couponID.String() {
			continue
		}
		if contactID != "" {
			if buyer, ok := c.Buyer.ContactID(); !ok || buyer != contactID {
				continue
			}
		}
		n++
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Order Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return commerce.ErrStoreClosed
	}
	if _, exists := s.orders[o.ID.String()]; exists {
		return commerce.ErrAlreadyExists
	}
	s.orders[o.ID.String()] = cloneOrder(o)
	s.stamp(o.ID.String())
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID id.OrderID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.orders[orderID.String()]; ok {
		return cloneOrder(o), nil
	}
	return nil, commerce.ErrOrderNotFound
}

func (s *Store) ListOrders(_ context.Context, businessID string, opts order.ListOpts) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.BusinessID != businessID {
			continue
		}
		if opts.ContactID != "" {
			if contact, ok := o.Buyer.ContactID(); !ok || contact != opts.ContactID {
				continue
			}
		}
		result = append(result, cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID.String()] > s.seq[result[j].ID.String()]
	})
	return page(result, opts.Limit, opts.Offset), nil
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]cart.Item(nil), o.Items...)
	return &cp
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping reports ErrStoreClosed once Close has been called.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return commerce.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Cart and order writes fail afterwards; the
// data stays readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
