package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/traverse/store"
	"github.com/xraph/traverse/workflow"
)

// colInstances is the collection holding workflow instances.
const colInstances = "traverse_instances"

// Ensure Store implements the persistence interfaces at compile time.
var (
	_ workflow.Store = (*Store)(nil)
	_ store.Store    = (*Store)(nil)
)

// Store is a MongoDB implementation of store.Store using the official
// driver. The caller owns the *mongo.Client lifecycle; Store never
// closes it.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new MongoDB store on the given database handle. The
// caller owns the client lifecycle -- the Store will not close it on
// Close().
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the underlying *mongo.Database for advanced usage.
func (s *Store) Database() *mongod.Database {
	return s.db
}

// Migrate creates the instance collection indexes.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}

		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("traverse/mongo: migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close is a no-op because the caller owns the *mongo.Client lifecycle.
func (s *Store) Close() error {
	return nil
}

// ── helpers ──────────────────────────────────────────────────────

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "E11000")
}

// migrationIndexes returns the index definitions for the instance
// collection.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colInstances: {
			// Definition filter for list queries.
			{Keys: bson.D{{Key: "definition", Value: 1}}},
			// Current node filter.
			{Keys: bson.D{{Key: "current_node", Value: 1}}},
			// Paused + created_at for the escalation watcher's sweeps.
			{Keys: bson.D{
				{Key: "paused", Value: 1},
				{Key: "created_at", Value: 1},
			}},
			// List ordering.
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}
