package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	commercestore "github.com/xraph/commerce/store"
)

// Collection name constants.
const (
	colProducts = "commerce_products"
	colServices = "commerce_services"
	colCombos   = "commerce_combos"
	colCoupons  = "commerce_coupons"
	colCarts    = "commerce_carts"
	colOrders   = "commerce_orders"
)

// compile-time interface check
var _ commercestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all commerce collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("commerce/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.mdb.NewInsert(toProductModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrAlreadyExists
		}
		return fmt.Errorf("commerce/mongo: create product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*catalog.Product, error) {
	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": productID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	m := toProductModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("commerce/mongo: update product: %w", err)
	}
	if res.MatchedCount() == 0 {
		return commerce.ErrProductNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Product, error) {
	var models []productModel
	q := s.mdb.NewFind(&models).
		Filter(catalogFilter(businessID, opts)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list products: %w", err)
	}

	result := make([]*catalog.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// AdjustProductStock applies delta in one conditional $inc so concurrent
// checkouts cannot drive stock below zero.
func (s *Store) AdjustProductStock(ctx context.Context, productID id.ProductID, delta int64) error {
	filter := bson.M{"_id": productID.String()}
	if delta < 0 {
		filter["stock_qty"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock_qty": delta},
		"$set": bson.M{"updated_at": now()},
	}

	res, err := s.mdb.Collection(colProducts).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("commerce/mongo: adjust stock: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	return commerce.ErrOutOfStock
}

// ==================== Service Store ====================

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	_, err := s.mdb.NewInsert(toServiceModel(svc)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrAlreadyExists
		}
		return fmt.Errorf("commerce/mongo: create service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, serviceID id.ServiceID) (*catalog.Service, error) {
	var m serviceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": serviceID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrServiceNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get service: %w", err)
	}
	return fromServiceModel(&m)
}

func (s *Store) UpdateService(ctx context.Context, svc *catalog.Service) error {
	m := toServiceModel(svc)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("commerce/mongo: update service: %w", err)
	}
	if res.MatchedCount() == 0 {
		return commerce.ErrServiceNotFound
	}
	return nil
}

func (s *Store) ListServices(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Service, error) {
	var models []serviceModel
	q := s.mdb.NewFind(&models).
		Filter(catalogFilter(businessID, opts)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list services: %w", err)
	}

	result := make([]*catalog.Service, len(models))
	for i := range models {
		svc, err := fromServiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = svc
	}
	return result, nil
}

// ==================== Combo Store ====================

func (s *Store) CreateCombo(ctx context.Context, c *catalog.Combo) error {
	_, err := s.mdb.NewInsert(toComboModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrAlreadyExists
		}
		return fmt.Errorf("commerce/mongo: create combo: %w", err)
	}
	return nil
}

func (s *Store) GetCombo(ctx context.Context, comboID id.ComboID) (*catalog.Combo, error) {
	var m comboModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": comboID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrComboNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get combo: %w", err)
	}
	return fromComboModel(&m)
}

func (s *Store) UpdateCombo(ctx context.Context, c *catalog.Combo) error {
	m := toComboModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("commerce/mongo: update combo: %w", err)
	}
	if res.MatchedCount() == 0 {
		return commerce.ErrComboNotFound
	}
	return nil
}

func (s *Store) ListCombos(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Combo, error) {
	var models []comboModel
	q := s.mdb.NewFind(&models).
		Filter(catalogFilter(businessID, opts)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list combos: %w", err)
	}

	result := make([]*catalog.Combo, len(models))
	for i := range models {
		c, err := fromComboModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Coupon Store ====================

func (s *Store) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	_, err := s.mdb.NewInsert(toCouponModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrCouponCodeTaken
		}
		return fmt.Errorf("commerce/mongo: create coupon: %w", err)
	}
	return nil
}

func (s *Store) GetCoupon(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	var m couponModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": couponID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrCouponNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get coupon: %w", err)
	}
	return fromCouponModel(&m)
}

// GetCouponByCode looks in the business's own coupons first, then in
// platform coupons.
func (s *Store) GetCouponByCode(ctx context.Context, businessID, code string) (*coupon.Coupon, error) {
	scopes := []string{businessID, ""}
	if businessID == "" {
		scopes = scopes[1:]
	}
	for _, scope := range scopes {
		var m couponModel
		err := s.mdb.NewFind(&m).
			Filter(bson.M{"business_id": scope, "code": code}).
			Scan(ctx)
		if err == nil {
			return fromCouponModel(&m)
		}
		if !isNoDocuments(err) {
			return nil, fmt.Errorf("commerce/mongo: get coupon by code: %w", err)
		}
	}
	return nil, commerce.ErrCouponNotFound
}

func (s *Store) ListCoupons(ctx context.Context, businessID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel

	filter := bson.M{"business_id": bson.M{"$in": bson.A{businessID, ""}}}
	if opts.AutoApply {
		filter["auto_apply"] = true
	}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list coupons: %w", err)
	}

	result := make([]*coupon.Coupon, len(models))
	for i := range models {
		c, err := fromCouponModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	m := toCouponModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrCouponCodeTaken
		}
		return fmt.Errorf("commerce/mongo: update coupon: %w", err)
	}
	if res.MatchedCount() == 0 {
		return commerce.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	res, err := s.mdb.NewDelete((*couponModel)(nil)).
		Filter(bson.M{"_id": couponID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("commerce/mongo: delete coupon: %w", err)
	}
	if res.DeletedCount() == 0 {
		return commerce.ErrCouponNotFound
	}
	return nil
}

// ==================== Cart Store ====================

func (s *Store) CreateCart(ctx context.Context, c *cart.Cart) error {
	_, err := s.mdb.NewInsert(toCartModel(c)).Exec(ctx)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("commerce/mongo: create cart: %w", err)
	}
	if _, getErr := s.GetCart(ctx, c.ID); getErr == nil {
		return commerce.ErrAlreadyExists
	}
	return commerce.ErrActiveCartExists
}

func (s *Store) GetCart(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	var m cartModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": cartID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrCartNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get cart: %w", err)
	}
	return fromCartModel(&m)
}

func (s *Store) FindActiveCart(ctx context.Context, businessID string, buyer cart.BuyerIdentity) (*cart.Cart, error) {
	var m cartModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"business_id":  businessID,
			"identity_key": buyer.Key(),
			"status":       string(cart.StatusActive),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrCartNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: find active cart: %w", err)
	}
	return fromCartModel(&m)
}

func (s *Store) FindCartByItem(ctx context.Context, itemID id.CartItemID) (*cart.Cart, error) {
	var m cartModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"items.id": itemID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: find cart by item: %w", err)
	}
	return fromCartModel(&m)
}

func (s *Store) ListCarts(ctx context.Context, businessID string, opts cart.ListOpts) ([]*cart.Cart, error) {
	var models []cartModel

	filter := bson.M{"business_id": businessID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list carts: %w", err)
	}

	result := make([]*cart.Cart, len(models))
	for i := range models {
		c, err := fromCartModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// UpdateCart replaces the cart document only while its stored version equals
// c.Version, then advances c.Version.
func (s *Store) UpdateCart(ctx context.Context, c *cart.Cart) error {
	m := toCartModel(c)
	m.Version = c.Version + 1

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "version": c.Version}).
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrActiveCartExists
		}
		return fmt.Errorf("commerce/mongo: update cart: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetCart(ctx, c.ID); err != nil {
			return err
		}
		return commerce.ErrCartConflict
	}
	c.Version++
	return nil
}

func (s *Store) CountCouponUsage(ctx context.Context, couponID id.CouponID, contactID string) (int64, error) {
	filter := bson.M{
		"coupon_id": couponID.String(),
		"status":    string(cart.StatusCompleted),
	}
	if contactID != "" {
		filter["contact_id"] = contactID
	}

	n, err := s.mdb.Collection(colCarts).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("commerce/mongo: count coupon usage: %w", err)
	}
	return n, nil
}

// ==================== Order Store ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	_, err := s.mdb.NewInsert(toOrderModel(o)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return commerce.ErrAlreadyExists
		}
		return fmt.Errorf("commerce/mongo: create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": orderID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, commerce.ErrOrderNotFound
		}
		return nil, fmt.Errorf("commerce/mongo: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) ListOrders(ctx context.Context, businessID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel

	filter := bson.M{"business_id": businessID}
	if opts.ContactID != "" {
		filter["contact_id"] = opts.ContactID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("commerce/mongo: list orders: %w", err)
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func catalogFilter(businessID string, opts catalog.ListOpts) bson.M {
	filter := bson.M{"business_id": businessID}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}
	return filter
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all commerce collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colServices: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCombos: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCoupons: {
			{
				Keys:    bson.D{{Key: "business_id", Value: 1}, {Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "auto_apply", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCarts: {
			{
				Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "identity_key", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(cart.StatusActive)}),
			},
			{Keys: bson.D{{Key: "items.id", Value: 1}}},
			{Keys: bson.D{{Key: "coupon_id", Value: 1}, {Key: "status", Value: 1}, {Key: "contact_id", Value: 1}}},
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "cart_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
