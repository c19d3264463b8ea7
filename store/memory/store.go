// Package memory provides a fully in-memory store. Safe for concurrent
// access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// Ensure Store implements the instance store at compile time. The
// lifecycle methods (Migrate, Ping, Close) complete store.Store.
var _ workflow.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store. Instances are
// deep-copied on every write and read, so callers never share memory
// with the store.
type Store struct {
	mu        sync.RWMutex
	instances map[string]*workflow.Instance
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		instances: make(map[string]*workflow.Instance),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Instance Store
// ──────────────────────────────────────────────────

// CreateInstance persists a new workflow instance.
func (m *Store) CreateInstance(_ context.Context, inst *workflow.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := inst.ID.String()
	if _, exists := m.instances[key]; exists {
		return traverse.ErrInstanceExists
	}
	m.instances[key] = inst.Clone()
	return nil
}

// GetInstance retrieves an instance by ID.
func (m *Store) GetInstance(_ context.Context, instID id.InstanceID) (*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[instID.String()]
	if !ok {
		return nil, traverse.ErrInstanceNotFound
	}
	return inst.Clone(), nil
}

// UpdateInstance persists changes to an existing instance, but only if
// the stored checkpoint still matches expected. Timestamps are persisted
// as given; callers stamp UpdatedAt.
func (m *Store) UpdateInstance(_ context.Context, inst *workflow.Instance, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := inst.ID.String()
	stored, ok := m.instances[key]
	if !ok {
		return traverse.ErrInstanceNotFound
	}
	if stored.Checkpoint != expected {
		return traverse.ErrCheckpointConflict
	}
	m.instances[key] = inst.Clone()
	return nil
}

// ListInstances returns instances matching the query, ordered by
// creation time.
func (m *Store) ListInstances(_ context.Context, q workflow.Query) ([]*workflow.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*workflow.Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		if q.Definition != "" && inst.Definition != q.Definition {
			continue
		}
		if q.CurrentNode != "" && inst.CurrentNode != q.CurrentNode {
			continue
		}
		if q.Paused != nil && inst.Paused != *q.Paused {
			continue
		}
		result = append(result, inst.Clone())
	}

	// Sort by CreatedAt for deterministic output.
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	// Apply offset / limit.
	if q.Offset > 0 {
		if q.Offset >= len(result) {
			return nil, nil
		}
		result = result[q.Offset:]
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}

	return result, nil
}
