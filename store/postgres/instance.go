package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

const instanceColumns = `
	id, definition, current_node, checkpoint, paused,
	data, history, error, scope_app_id, scope_org_id,
	created_at, updated_at`

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, inst *workflow.Instance) error {
	data, history, err := encodeDocs(inst)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO traverse_instances (
			id, definition, current_node, checkpoint, paused,
			data, history, error, scope_app_id, scope_org_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12
		)`,
		inst.ID.String(), inst.Definition, inst.CurrentNode, inst.Checkpoint, inst.Paused,
		data, history, inst.Error, inst.ScopeAppID, inst.ScopeOrgID,
		inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return traverse.ErrInstanceExists
		}
		return fmt.Errorf("traverse/postgres: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID.
func (s *Store) GetInstance(ctx context.Context, instID id.InstanceID) (*workflow.Instance, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+instanceColumns+`
		FROM traverse_instances
		WHERE id = $1`,
		instID.String(),
	)

	inst, err := scanInstance(row)
	if err != nil {
		if isNoRows(err) {
			return nil, traverse.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("traverse/postgres: get instance: %w", err)
	}
	return inst, nil
}

// UpdateInstance persists changes to an existing instance. The checkpoint
// predicate makes the write a compare-and-swap: zero rows affected means
// either the instance is gone or another writer already advanced it.
// Timestamps are persisted as given; callers stamp UpdatedAt.
func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance, expected int64) error {
	data, history, err := encodeDocs(inst)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE traverse_instances SET
			definition = $2, current_node = $3, checkpoint = $4, paused = $5,
			data = $6, history = $7, error = $8, scope_app_id = $9,
			scope_org_id = $10, updated_at = $11
		WHERE id = $1 AND checkpoint = $12`,
		inst.ID.String(), inst.Definition, inst.CurrentNode, inst.Checkpoint, inst.Paused,
		data, history, inst.Error, inst.ScopeAppID,
		inst.ScopeOrgID, inst.UpdatedAt,
		expected,
	)
	if err != nil {
		return fmt.Errorf("traverse/postgres: update instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if qErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM traverse_instances WHERE id = $1)`,
			inst.ID.String(),
		).Scan(&exists); qErr != nil {
			return fmt.Errorf("traverse/postgres: update instance exists: %w", qErr)
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
	query := `SELECT` + instanceColumns + `
		FROM traverse_instances
		WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if q.Definition != "" {
		query += fmt.Sprintf(" AND definition = $%d", argIdx)
		args = append(args, q.Definition)
		argIdx++
	}
	if q.CurrentNode != "" {
		query += fmt.Sprintf(" AND current_node = $%d", argIdx)
		args = append(args, q.CurrentNode)
		argIdx++
	}
	if q.Paused != nil {
		query += fmt.Sprintf(" AND paused = $%d", argIdx)
		args = append(args, *q.Paused)
		argIdx++
	}

	query += " ORDER BY created_at ASC"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, q.Limit)
		argIdx++
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, q.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("traverse/postgres: list instances: %w", err)
	}
	defer rows.Close()

	return collectInstances(rows)
}

// encodeDocs marshals the instance's JSON document columns.
func encodeDocs(inst *workflow.Instance) (data, history []byte, err error) {
	data, err = json.Marshal(inst.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("traverse/postgres: marshal data: %w", err)
	}
	history, err = json.Marshal(inst.History)
	if err != nil {
		return nil, nil, fmt.Errorf("traverse/postgres: marshal history: %w", err)
	}
	return data, history, nil
}

// scanInstance scans a single instance row.
func scanInstance(row pgx.Row) (*workflow.Instance, error) {
	var (
		inst    workflow.Instance
		idStr   string
		data    []byte
		history []byte
	)
	err := row.Scan(
		&idStr, &inst.Definition, &inst.CurrentNode, &inst.Checkpoint, &inst.Paused,
		&data, &history, &inst.Error, &inst.ScopeAppID, &inst.ScopeOrgID,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, parseErr := id.ParseInstanceID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("traverse/postgres: parse instance id %q: %w", idStr, parseErr)
	}
	inst.ID = parsedID

	if len(data) > 0 {
		if uErr := json.Unmarshal(data, &inst.Data); uErr != nil {
			return nil, fmt.Errorf("traverse/postgres: unmarshal data: %w", uErr)
		}
	}
	if len(history) > 0 {
		if uErr := json.Unmarshal(history, &inst.History); uErr != nil {
			return nil, fmt.Errorf("traverse/postgres: unmarshal history: %w", uErr)
		}
	}

	return &inst, nil
}

// collectInstances collects all instances from query rows.
func collectInstances(rows pgx.Rows) ([]*workflow.Instance, error) {
	var instances []*workflow.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("traverse/postgres: scan instance row: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("traverse/postgres: iterate instance rows: %w", err)
	}
	return instances, nil
}
