// Package store defines the aggregate persistence interface. The
// instance store interface itself lives in the workflow package; the
// composite Store adds lifecycle methods every backend shares.
// Backends: Postgres, Bun, Mongo, Redis, and Memory.
package store

import (
	"context"

	"github.com/xraph/traverse/workflow"
)

// Store is the aggregate persistence interface.
// A single backend (postgres, bun, mongo, redis, memory) implements
// workflow.Store plus the shared lifecycle methods.
type Store interface {
	workflow.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
