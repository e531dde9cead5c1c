package commerce

import "github.com/xraph/commerce/id"

// ID is the primary identifier type for all commerce entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
