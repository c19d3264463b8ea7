package workflow

import (
	"context"

	"github.com/xraph/traverse/id"
)

// Query filters and paginates instance listings. Zero-value fields are
// ignored; Paused uses a pointer so "either" and "false" stay distinct.
type Query struct {
	// Definition filters by definition name. Empty means all.
	Definition string
	// CurrentNode filters by the instance's current node id. Empty means all.
	CurrentNode string
	// Paused filters by pause flag. Nil means all.
	Paused *bool
	// Limit is the maximum number of instances to return. Zero means no limit.
	Limit int
	// Offset is the number of instances to skip.
	Offset int
}

// Store defines the persistence contract for workflow instances.
//
// UpdateInstance carries the optimistic concurrency guard: the write must
// apply only when the stored checkpoint still equals expected, so two
// racing transitions can never both advance from the same prior state.
type Store interface {
	// CreateInstance persists a new workflow instance.
	CreateInstance(ctx context.Context, inst *Instance) error

	// GetInstance retrieves an instance by ID. It fails with
	// traverse.ErrInstanceNotFound when absent.
	GetInstance(ctx context.Context, instID id.InstanceID) (*Instance, error)

	// UpdateInstance persists changes to an existing instance, but only
	// if the stored checkpoint equals expected. It fails with
	// traverse.ErrCheckpointConflict when another writer got there
	// first, and traverse.ErrInstanceNotFound when the instance is gone.
	UpdateInstance(ctx context.Context, inst *Instance, expected int64) error

	// ListInstances returns instances matching the query, ordered by
	// creation time.
	ListInstances(ctx context.Context, q Query) ([]*Instance, error)
}
