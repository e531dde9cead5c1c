// Package commerce provides the cart, pricing and coupon core of a
// multi-tenant commerce back office.
//
// Commerce is designed as a library, not a service. Import it into your Go
// application, or mount the chi handlers from the api package. It provides:
//
//   - Exact decimal line pricing with half-up rounding to two places
//   - One active cart per business and buyer identity
//   - Coupon validation with exclusions, usage limits and auto-apply
//   - Optimistic concurrency on every cart write
//   - Checkout into immutable orders with stock decrement
//   - Lifecycle hooks for metrics and audit plugins
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/commerce"
//	    "github.com/xraph/commerce/store/memory"
//	)
//
//	c := commerce.New(memory.New())
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//
//	crt, err := c.AddToCart(ctx, commerce.AddToCartInput{
//	    BusinessID: "biz_1",
//	    Buyer:      commerce.Contact("contact_42"),
//	    Kind:       commerce.KindProduct,
//	    ItemID:     productID.String(),
//	    Quantity:   3,
//	})
//
//	res, err := c.ApplyCoupon(ctx, crt.ID, "WELCOME50")
//
// # Buyer identity
//
// A cart belongs to exactly one buyer identity: a registered contact, an
// anonymous storefront session, or a staff user working in the back office
// (optionally on behalf of a contact). ResolveIdentity picks the variant
// from the identifiers a request carries.
//
// # Money
//
// All amounts are types.Money values backed by shopspring/decimal. They are
// serialized as fixed two-place decimal strings such as "300.00".
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	cart_01h2xcejqtf2nbrexx3vqjhp41  // Cart ID
//	cli_01h2xcejqtf2nbrexx3vqjhp41   // Cart line item ID
//	ord_01h455vb4pex5vsknk084sn02q   // Order ID
package commerce
