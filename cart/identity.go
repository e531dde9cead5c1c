package cart

import (
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrMissingBuyerIdentity means no buyer identity could be resolved for the channel.
	ErrMissingBuyerIdentity = errors.New("commerce: missing buyer identity")
	// ErrInvalidChannel means the sales channel is not recognized.
	ErrInvalidChannel = errors.New("commerce: invalid channel")
)

// Channel is the surface a cart is operated from.
type Channel string

const (
	ChannelStorefront Channel = "storefront"
	ChannelBackOffice Channel = "back_office"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelStorefront || c == ChannelBackOffice
}

// IdentityKind tags the variant of a BuyerIdentity.
type IdentityKind string

const (
	IdentityContact   IdentityKind = "contact"
	IdentityAnonymous IdentityKind = "anonymous"
	IdentityStaff     IdentityKind = "staff"
)

// BuyerIdentity scopes one active cart per business. Exactly one variant is
// set: a registered contact, an anonymous session, or a staff user building
// the cart in the back office (optionally on behalf of a contact).
type BuyerIdentity struct {
	Kind IdentityKind `json:"kind"`
	// ID is the contact id, anonymous session id or staff user id.
	ID string `json:"id"`
	// OnBehalfOf is the contact a staff cart is built for, if any.
	OnBehalfOf string `json:"on_behalf_of,omitempty"`
}

// Contact returns the identity of a registered contact.
func Contact(contactID string) BuyerIdentity {
	return BuyerIdentity{Kind: IdentityContact, ID: contactID}
}

// Anonymous returns the identity of an anonymous storefront session.
func Anonymous(sessionID string) BuyerIdentity {
	return BuyerIdentity{Kind: IdentityAnonymous, ID: sessionID}
}

// Staff returns the identity of a back-office cart created by staffUserID.
// contactID may be empty.
func Staff(staffUserID, contactID string) BuyerIdentity {
	return BuyerIdentity{Kind: IdentityStaff, ID: staffUserID, OnBehalfOf: contactID}
}

// Validate checks that the identity is well-formed.
func (b BuyerIdentity) Validate() error {
	switch b.Kind {
	case IdentityContact, IdentityAnonymous, IdentityStaff:
	default:
		return ErrMissingBuyerIdentity
	}
	if strings.TrimSpace(b.ID) == "" {
		return ErrMissingBuyerIdentity
	}
	return nil
}

// IsZero reports whether no identity is set.
func (b BuyerIdentity) IsZero() bool { return b.Kind == "" && b.ID == "" }

// Key is the canonical string used to enforce one active cart per identity.
func (b BuyerIdentity) Key() string {
	switch b.Kind {
	case IdentityContact:
		return "contact:" + b.ID
	case IdentityAnonymous:
		return "anon:" + b.ID
	case IdentityStaff:
		return "staff:" + b.ID + ":" + b.OnBehalfOf
	default:
		return ""
	}
}

// ContactID returns the registered contact behind the identity, if any.
func (b BuyerIdentity) ContactID() (string, bool) {
	switch b.Kind {
	case IdentityContact:
		return b.ID, b.ID != ""
	case IdentityStaff:
		return b.OnBehalfOf, b.OnBehalfOf != ""
	default:
		return "", false
	}
}

// AnonymousID returns the anonymous session id, or "".
func (b BuyerIdentity) AnonymousID() string {
	if b.Kind == IdentityAnonymous {
		return b.ID
	}
	return ""
}

// CreatedBy returns the staff user id, or "".
func (b BuyerIdentity) CreatedBy() string {
	if b.Kind == IdentityStaff {
		return b.ID
	}
	return ""
}

// ResolveIdentity picks the identity variant for a channel from the loose
// identifiers a request carries. Back-office carts require a staff user.
// Storefront carts prefer the contact over the anonymous session.
func ResolveIdentity(channel Channel, contactID, anonymousID, staffUserID string) (BuyerIdentity, error) {
	contactID = strings.TrimSpace(contactID)
	anonymousID = strings.TrimSpace(anonymousID)
	staffUserID = strings.TrimSpace(staffUserID)

	switch channel {
	case ChannelBackOffice:
		if staffUserID == "" {
			return BuyerIdentity{}, errors.Wrap(ErrMissingBuyerIdentity, "back office requires a staff user")
		}
		return Staff(staffUserID, contactID), nil
	case ChannelStorefront, "":
		if contactID != "" {
			return Contact(contactID), nil
		}
		if anonymousID != "" {
			return Anonymous(anonymousID), nil
		}
		return BuyerIdentity{}, ErrMissingBuyerIdentity
	default:
		return BuyerIdentity{}, errors.Wrapf(ErrInvalidChannel, "channel %q", channel)
	}
}
