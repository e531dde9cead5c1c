package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	commercestore "github.com/xraph/commerce/store"
)

// compile-time interface check
var _ commercestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return errors.Wrap(err, "commerce/postgres: create migration executor")
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return errors.Wrap(err, "commerce/postgres: migration failed")
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
	_, err := s.pg.NewInsert(toProductModel(p)).Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*catalog.Product, error) {
	m := new(productModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", productID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}
	return fromProductModel(m)
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	res, err := s.pg.NewUpdate(toProductModel(p)).WherePK().Exec(ctx)
	return checkAffected(res, err, commerce.ErrProductNotFound)
}

func (s *Store) ListProducts(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Product, error) {
	var models []productModel
	q := s.pg.NewSelect(&models).Where("business_id = $1", businessID)
	if opts.ActiveOnly {
		q = q.Where("is_active = TRUE")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

func (s *Store) AdjustProductStock(ctx context.Context, productID id.ProductID, delta int64) error {
	res, err := s.pg.NewUpdate((*productModel)(nil)).
		Set("stock_qty = stock_qty + $1", delta).
		Set("updated_at = $2", now()).
		Where("id = $3", productID.String()).
		Where("stock_qty + $4 >= 0", delta).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	return commerce.ErrOutOfStock
}

// ==================== Service Store ====================

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	_, err := s.pg.NewInsert(toServiceModel(svc)).Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetService(ctx context.Context, serviceID id.ServiceID) (*catalog.Service, error) {
	m := new(serviceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", serviceID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrServiceNotFound
		}
		return nil, err
	}
	return fromServiceModel(m)
}

func (s *Store) UpdateService(ctx context.Context, svc *catalog.Service) error {
	res, err := s.pg.NewUpdate(toServiceModel(svc)).WherePK().Exec(ctx)
	return checkAffected(res, err, commerce.ErrServiceNotFound)
}

func (s *Store) ListServices(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Service, error) {
	var models []serviceModel
	q := s.pg.NewSelect(&models).Where("business_id = $1", businessID)
	if opts.ActiveOnly {
		q = q.Where("is_active = TRUE")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.pg.NewInsert(toComboModel(c)).Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCombo(ctx context.Context, comboID id.ComboID) (*catalog.Combo, error) {
	m := new(comboModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", comboID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrComboNotFound
		}
		return nil, err
	}
	return fromComboModel(m)
}

func (s *Store) UpdateCombo(ctx context.Context, c *catalog.Combo) error {
	res, err := s.pg.NewUpdate(toComboModel(c)).WherePK().Exec(ctx)
	return checkAffected(res, err, commerce.ErrComboNotFound)
}

func (s *Store) ListCombos(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Combo, error) {
	var models []comboModel
	q := s.pg.NewSelect(&models).Where("business_id = $1", businessID)
	if opts.ActiveOnly {
		q = q.Where("is_active = TRUE")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.pg.NewInsert(toCouponModel(c)).Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrCouponCodeTaken
	}
	return err
}

func (s *Store) GetCoupon(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", couponID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

// GetCouponByCode prefers the business's own coupon over a platform coupon
// with the same code.
func (s *Store) GetCouponByCode(ctx context.Context, businessID, code string) (*coupon.Coupon, error) {
	m := new(couponModel)
	err := s.pg.NewSelect(m).
		Where("code = $1", code).
		Where("(business_id = $2 OR business_id = '')", businessID).
		OrderExpr("business_id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrCouponNotFound
		}
		return nil, err
	}
	return fromCouponModel(m)
}

func (s *Store) ListCoupons(ctx context.Context, businessID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	var models []couponModel
	q := s.pg.NewSelect(&models).Where("(business_id = $1 OR business_id = '')", businessID)
	if opts.AutoApply {
		q = q.Where("auto_apply = TRUE")
	}
	if opts.ActiveOnly {
		q = q.Where("is_active = TRUE")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(toCouponModel(c)).WherePK().Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrCouponCodeTaken
	}
	return checkAffected(res, err, commerce.ErrCouponNotFound)
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	res, err := s.pg.NewDelete((*couponModel)(nil)).
		Where("id = $1", couponID.String()).
		Exec(ctx)
	return checkAffected(res, err, commerce.ErrCouponNotFound)
}

// ==================== Cart Store ====================

// CreateCart relies on the partial unique index over active carts, so two
// concurrent creators for one buyer cannot both succeed.
func (s *Store) CreateCart(ctx context.Context, c *cart.Cart) error {
	res, err := s.pg.NewInsert(toCartModel(c)).
		OnConflict("(business_id, identity_key) WHERE status = 'active' DO NOTHING").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return commerce.ErrAlreadyExists
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return commerce.ErrActiveCartExists
	}
	return nil
}

func (s *Store) GetCart(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	m := new(cartModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", cartID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrCartNotFound
		}
		return nil, err
	}
	return fromCartModel(m)
}

func (s *Store) FindActiveCart(ctx context.Context, businessID string, buyer cart.BuyerIdentity) (*cart.Cart, error) {
	m := new(cartModel)
	err := s.pg.NewSelect(m).
		Where("business_id = $1", businessID).
		Where("identity_key = $2", buyer.Key()).
		Where("status = $3", string(cart.StatusActive)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrCartNotFound
		}
		return nil, err
	}
	return fromCartModel(m)
}

func (s *Store) FindCartByItem(ctx context.Context, itemID id.CartItemID) (*cart.Cart, error) {
	m := new(cartModel)
	err := s.pg.NewSelect(m).
		Where("items @> $1::jsonb", fmt.Sprintf(`[{"id":%q}]`, itemID.String())).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrCartItemNotFound
		}
		return nil, err
	}
	return fromCartModel(m)
}

func (s *Store) ListCarts(ctx context.Context, businessID string, opts cart.ListOpts) ([]*cart.Cart, error) {
	var models []cartModel
	q := s.pg.NewSelect(&models).Where("business_id = $1", businessID)
	if opts.Status != "" {
		q = q.Where("status = $2", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// UpdateCart writes the cart only if the stored version still matches
// c.Version, then advances c.Version.
func (s *Store) UpdateCart(ctx context.Context, c *cart.Cart) error {
	m := toCartModel(c)
	res, err := s.pg.NewUpdate((*cartModel)(nil)).
		Set("status = $1", m.Status).
		Set("items = $2::jsonb", string(m.Items)).
		Set("coupon_id = $3", m.CouponID).
		Set("coupon_discount = $4", m.CouponDiscount).
		Set("coupon_removed = $5", m.CouponRemoved).
		Set("subtotal = $6", m.Subtotal).
		Set("discount_total = $7", m.DiscountTotal).
		Set("tax_total = $8", m.TaxTotal).
		Set("items_total = $9", m.ItemsTotal).
		Set("total = $10", m.Total).
		Set("metadata = $11", m.Metadata).
		Set("updated_at = $12", m.UpdatedAt).
		Set("version = version + 1").
		Where("id = $13", m.ID).
		Where("version = $14", c.Version).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return commerce.ErrActiveCartExists
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetCart(ctx, c.ID); err != nil {
			return err
		}
		return commerce.ErrCartConflict
	}
	c.Version++
	return nil
}

func (s *Store) CountCouponUsage(ctx context.Context, couponID id.CouponID, contactID string) (int64, error) {
	query := `SELECT COUNT(*) FROM commerce_carts WHERE coupon_id = $1 AND status = $2`
	args := []any{couponID.String(), string(cart.StatusCompleted)}
	if contactID != "" {
		query += ` AND contact_id = $3`
		args = append(args, contactID)
	}

	var n int64
	if err := s.pg.NewRaw(query, args...).Scan(ctx, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// ==================== Order Store ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	_, err := s.pg.NewInsert(toOrderModel(o)).Exec(ctx)
	if isUniqueViolation(err) {
		return commerce.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	m := new(orderModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", orderID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, commerce.ErrOrderNotFound
		}
		return nil, err
	}
	return fromOrderModel(m)
}

func (s *Store) ListOrders(ctx context.Context, businessID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel
	q := s.pg.NewSelect(&models).Where("business_id = $1", businessID)
	if opts.ContactID != "" {
		q = q.Where("contact_id = $2", opts.ContactID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

type rowsAffected interface {
	RowsAffected() (int64, error)
}

// checkAffected maps a zero-row write to notFound.
func checkAffected(res rowsAffected, err error, notFound error) error {
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a PostgreSQL unique_violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
