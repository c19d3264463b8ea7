package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

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

	_, err = s.db.Collection(colInstances).InsertOne(ctx, m)
	if err != nil {
		if isDuplicateKey(err) {
			return traverse.ErrInstanceExists
		}
		return fmt.Errorf("traverse/mongo: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID.
func (s *Store) GetInstance(ctx context.Context, instID id.InstanceID) (*workflow.Instance, error) {
	var m instanceModel
	err := s.db.Collection(colInstances).FindOne(ctx, bson.M{"_id": instID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, traverse.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("traverse/mongo: get instance: %w", err)
	}
	return fromInstanceModel(&m)
}

// UpdateInstance persists changes to an existing instance. The filter
// carries the checkpoint guard: the replace matches only while the
// stored checkpoint still equals expected, so a racing writer loses
// cleanly. Timestamps are persisted as given; callers stamp UpdatedAt.
func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance, expected int64) error {
	m, err := toInstanceModel(inst)
	if err != nil {
		return err
	}

	col := s.db.Collection(colInstances)
	res, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID, "checkpoint": expected}, m)
	if err != nil {
		return fmt.Errorf("traverse/mongo: update instance: %w", err)
	}
	if res.MatchedCount == 0 {
		// Zero matches is either a missing instance or a stale checkpoint.
		n, countErr := col.CountDocuments(ctx, bson.M{"_id": m.ID})
		if countErr != nil {
			return fmt.Errorf("traverse/mongo: update instance: %w", countErr)
		}
		if n == 0 {
			return traverse.ErrInstanceNotFound
		}
		return traverse.ErrCheckpointConflict
	}
	return nil
}

// ListInstances returns instances matching the query, ordered by
// creation time.
func (s *Store) ListInstances(ctx context.Context, q workflow.Query) ([]*workflow.Instance, error) {
	filter := bson.M{}
	if q.Definition != "" {
		filter["definition"] = q.Definition
	}
	if q.CurrentNode != "" {
		filter["current_node"] = q.CurrentNode
	}
	if q.Paused != nil {
		filter["paused"] = *q.Paused
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		findOpts.SetSkip(int64(q.Offset))
	}

	cursor, err := s.db.Collection(colInstances).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("traverse/mongo: list instances: %w", err)
	}
	defer cursor.Close(ctx)

	var models []instanceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("traverse/mongo: list instances decode: %w", err)
	}

	instances := make([]*workflow.Instance, 0, len(models))
	for i := range models {
		inst, convErr := fromInstanceModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("traverse/mongo: list instances convert: %w", convErr)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
