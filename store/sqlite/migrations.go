package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the commerce store (SQLite).
var Migrations = migrate.NewGroup("commerce")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_commerce_catalog",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS commerce_products (
    id             TEXT PRIMARY KEY,
    business_id    TEXT NOT NULL,
    name           TEXT NOT NULL DEFAULT '',
    sku            TEXT NOT NULL DEFAULT '',
    selling_price  TEXT NOT NULL DEFAULT '0',
    discount_type  TEXT NOT NULL DEFAULT '',
    discount_value TEXT NOT NULL DEFAULT '0',
    max_discount   TEXT,
    include_tax    INTEGER NOT NULL DEFAULT 0,
    tax_rate       TEXT NOT NULL DEFAULT '0',
    stock_qty      INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
    is_active      INTEGER NOT NULL DEFAULT 1,
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_commerce_products_business ON commerce_products (business_id, created_at DESC);

CREATE TABLE IF NOT EXISTS commerce_services (
    id               TEXT PRIMARY KEY,
    business_id      TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    price            TEXT NOT NULL DEFAULT '0',
    discount_type    TEXT NOT NULL DEFAULT '',
    discount_value   TEXT NOT NULL DEFAULT '0',
    max_discount     TEXT,
    include_tax      INTEGER NOT NULL DEFAULT 0,
    tax_rate         TEXT NOT NULL DEFAULT '0',
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    is_active        INTEGER NOT NULL DEFAULT 1,
    metadata         TEXT NOT NULL DEFAULT '{}',
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_commerce_services_business ON commerce_services (business_id, created_at DESC);

CREATE TABLE IF NOT EXISTS commerce_combos (
    id             TEXT PRIMARY KEY,
    business_id    TEXT NOT NULL,
    name           TEXT NOT NULL DEFAULT '',
    combo_price    TEXT NOT NULL DEFAULT '0',
    discount_type  TEXT NOT NULL DEFAULT '',
    discount_value TEXT NOT NULL DEFAULT '0',
    max_discount   TEXT,
    components     TEXT NOT NULL DEFAULT '[]',
    is_active      INTEGER NOT NULL DEFAULT 1,
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_commerce_combos_business ON commerce_combos (business_id, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS commerce_combos;
DROP TABLE IF EXISTS commerce_services;
DROP TABLE IF EXISTS commerce_products;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_commerce_coupons",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS commerce_coupons (
    id                   TEXT PRIMARY KEY,
    business_id          TEXT NOT NULL DEFAULT '',
    scope                TEXT NOT NULL DEFAULT 'business',
    code                 TEXT NOT NULL,
    name                 TEXT NOT NULL DEFAULT '',
    discount_type        TEXT NOT NULL,
    discount_value       TEXT NOT NULL DEFAULT '0',
    max_discount         TEXT,
    min_cart_value       TEXT NOT NULL DEFAULT '0',
    available_limit      INTEGER,
    usage_limit          INTEGER,
    valid_from           TEXT,
    valid_to             TEXT,
    is_active            INTEGER NOT NULL DEFAULT 1,
    auto_apply           INTEGER NOT NULL DEFAULT 0,
    excluded_product_ids TEXT NOT NULL DEFAULT '[]',
    excluded_service_ids TEXT NOT NULL DEFAULT '[]',
    metadata             TEXT NOT NULL DEFAULT '{}',
    created_at           TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_commerce_coupons_code ON commerce_coupons (business_id, code);
CREATE INDEX IF NOT EXISTS idx_commerce_coupons_auto ON commerce_coupons (business_id, created_at DESC) WHERE auto_apply = 1 AND is_active = 1;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS commerce_coupons`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_commerce_carts",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS commerce_carts (
    id              TEXT PRIMARY KEY,
    business_id     TEXT NOT NULL,
    identity_kind   TEXT NOT NULL,
    identity_id     TEXT NOT NULL,
    on_behalf_of    TEXT NOT NULL DEFAULT '',
    identity_key    TEXT NOT NULL,
    contact_id      TEXT NOT NULL DEFAULT '',
    channel         TEXT NOT NULL DEFAULT 'storefront',
    status          TEXT NOT NULL DEFAULT 'active',
    items           TEXT NOT NULL DEFAULT '[]',
    coupon_id       TEXT NOT NULL DEFAULT '',
    coupon_discount TEXT NOT NULL DEFAULT '0',
    coupon_removed  INTEGER NOT NULL DEFAULT 0,
    subtotal        TEXT NOT NULL DEFAULT '0',
    discount_total  TEXT NOT NULL DEFAULT '0',
    tax_total       TEXT NOT NULL DEFAULT '0',
    items_total     TEXT NOT NULL DEFAULT '0',
    total           TEXT NOT NULL DEFAULT '0',
    version         INTEGER NOT NULL DEFAULT 0,
    metadata        TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_commerce_carts_active ON commerce_carts (business_id, identity_key) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_commerce_carts_business ON commerce_carts (business_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_commerce_carts_coupon ON commerce_carts (coupon_id, status) WHERE coupon_id != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS commerce_carts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_commerce_orders",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS commerce_orders (
    id              TEXT PRIMARY KEY,
    business_id     TEXT NOT NULL,
    cart_id         TEXT NOT NULL UNIQUE,
    identity_kind   TEXT NOT NULL,
    identity_id     TEXT NOT NULL,
    on_behalf_of    TEXT NOT NULL DEFAULT '',
    contact_id      TEXT NOT NULL DEFAULT '',
    channel         TEXT NOT NULL DEFAULT 'storefront',
    status          TEXT NOT NULL DEFAULT 'placed',
    items           TEXT NOT NULL DEFAULT '[]',
    coupon_id       TEXT NOT NULL DEFAULT '',
    coupon_code     TEXT NOT NULL DEFAULT '',
    subtotal        TEXT NOT NULL DEFAULT '0',
    discount_total  TEXT NOT NULL DEFAULT '0',
    tax_total       TEXT NOT NULL DEFAULT '0',
    items_total     TEXT NOT NULL DEFAULT '0',
    coupon_discount TEXT NOT NULL DEFAULT '0',
    total           TEXT NOT NULL DEFAULT '0',
    placed_at       TEXT NOT NULL DEFAULT (datetime('now')),
    metadata        TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_commerce_orders_business ON commerce_orders (business_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_commerce_orders_contact ON commerce_orders (business_id, contact_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS commerce_orders`)
				return err
			},
		},
	)
}
