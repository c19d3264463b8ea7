package traverse

import "github.com/xraph/traverse/id"

// ID is the primary identifier type for all Traverse entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
