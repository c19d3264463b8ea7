package bunstore

import (
	"context"
	"fmt"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, inst *workflow.Instance) error {
	m, err := toInstanceModel(inst)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return traverse.ErrInstanceExists
		}
		return fmt.Errorf("traverse/bun: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID.
func (s *Store) GetInstance(ctx context.Context, instID id.InstanceID) (*workflow.Instance, error) {
	m := new(instanceModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", instID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, traverse.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("traverse/bun: get instance: %w", err)
	}
	return fromInstanceModel(m)
}

// UpdateInstance persists changes to an existing instance, guarded by the
// checkpoint predicate. Zero rows affected means either the instance is
// gone or another writer already advanced it. Timestamps are persisted as
// given; callers stamp UpdatedAt.
func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance, expected int64) error {
	m, err := toInstanceModel(inst)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Model(m).
		WherePK().
		Where("checkpoint = ?", expected).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("traverse/bun: update instance: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		exists, eErr := s.db.NewSelect().Model((*instanceModel)(nil)).
			Where("id = ?", inst.ID.String()).
			Exists(ctx)
		if eErr != nil {
			return fmt.Errorf("traverse/bun: update instance exists: %w", eErr)
		}
		if !exists {
			return traverse.ErrInstanceNotFound
		}
		return traverse.ErrCheckpointConflict
	}
	return nil
}

// ListInstances returns instances matching the query, ordered by creation
// time.
func (s *Store) ListInstances(ctx context.Context, q workflow.Query) ([]*workflow.Instance, error) {
	var models []instanceModel
	sel := s.db.NewSelect().Model(&models)

	if q.Definition != "" {
		sel = sel.Where("definition = ?", q.Definition)
	}
	if q.CurrentNode != "" {
		sel = sel.Where("current_node = ?", q.CurrentNode)
	}
	if q.Paused != nil {
		sel = sel.Where("paused = ?", *q.Paused)
	}

	sel = sel.Order("created_at ASC")

	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sel = sel.Offset(q.Offset)
	}

	err := sel.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("traverse/bun: list instances: %w", err)
	}

	instances := make([]*workflow.Instance, 0, len(models))
	for i := range models {
		inst, convErr := fromInstanceModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("traverse/bun: list instances convert: %w", convErr)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
