package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// casUpdate applies a full hash rewrite only when the stored checkpoint
// still equals ARGV[1]. Returns -1 when the instance is gone, 0 on a
// checkpoint conflict, 1 when the write applied.
var casUpdate = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'checkpoint')
if not cur then
  return -1
end
if cur ~= ARGV[1] then
  return 0
end
for i = 2, #ARGV - 1, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// CreateInstance persists a new workflow instance.
func (s *Store) CreateInstance(ctx context.Context, inst *workflow.Instance) error {
	iID := inst.ID.String()
	key := instanceKey(iID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("traverse/redis: create instance exists: %w", err)
	}
	if exists > 0 {
		return traverse.ErrInstanceExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, instanceToMap(inst))
	pipe.SAdd(ctx, instanceIDsKey, iID)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("traverse/redis: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves a workflow instance by ID.
func (s *Store) GetInstance(ctx context.Context, instID id.InstanceID) (*workflow.Instance, error) {
	key := instanceKey(instID.String())
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("traverse/redis: get instance: %w", err)
	}
	if len(vals) == 0 {
		return nil, traverse.ErrInstanceNotFound
	}
	return mapToInstance(vals)
}

// UpdateInstance rewrites the instance hash, guarded by the checkpoint
// CAS script. Timestamps are persisted as given; callers stamp UpdatedAt.
func (s *Store) UpdateInstance(ctx context.Context, inst *workflow.Instance, expected int64) error {
	key := instanceKey(inst.ID.String())

	fields := instanceToMap(inst)
	args := make([]interface{}, 0, 1+2*len(fields))
	args = append(args, strconv.FormatInt(expected, 10))
	for f, v := range fields {
		args = append(args, f, v)
	}

	res, err := casUpdate.Run(ctx, s.client, []string{key}, args...).Int()
	if err != nil {
		return fmt.Errorf("traverse/redis: update instance: %w", err)
	}
	switch res {
	case -1:
		return traverse.ErrInstanceNotFound
	case 0:
		return traverse.ErrCheckpointConflict
	}
	return nil
}

// ListInstances returns workflow instances matching the query, ordered by
// creation time.
func (s *Store) ListInstances(ctx context.Context, q workflow.Query) ([]*workflow.Instance, error) {
	ids, err := s.client.SMembers(ctx, instanceIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("traverse/redis: list instances smembers: %w", err)
	}

	var out []*workflow.Instance
	for _, iID := range ids {
		vals, getErr := s.client.HGetAll(ctx, instanceKey(iID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		inst, convErr := mapToInstance(vals)
		if convErr != nil {
			continue
		}
		if q.Definition != "" && inst.Definition != q.Definition {
			continue
		}
		if q.CurrentNode != "" && inst.CurrentNode != q.CurrentNode {
			continue
		}
		if q.Paused != nil && inst.Paused != *q.Paused {
			continue
		}
		out = append(out, inst)
	}

	// SMembers order is unspecified; sort for stable pagination.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if q.Offset > 0 && q.Offset < len(out) {
		out = out[q.Offset:]
	} else if q.Offset >= len(out) {
		return nil, nil
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

// ── helpers ──

func instanceToMap(inst *workflow.Instance) map[string]interface{} {
	return map[string]interface{}{
		"id":           inst.ID.String(),
		"definition":   inst.Definition,
		"current_node": inst.CurrentNode,
		"checkpoint":   strconv.FormatInt(inst.Checkpoint, 10),
		"paused":       boolToStr(inst.Paused),
		"data":         marshalJSON(inst.Data),
		"history":      marshalJSON(inst.History),
		"error":        inst.Error,
		"scope_app":    inst.ScopeAppID,
		"scope_org":    inst.ScopeOrgID,
		"created_at":   inst.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   inst.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func mapToInstance(m map[string]string) (*workflow.Instance, error) {
	instID, err := id.ParseInstanceID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("traverse/redis: parse instance id: %w", err)
	}

	checkpoint, _ := strconv.ParseInt(m["checkpoint"], 10, 64)    //nolint:errcheck // best-effort parse from trusted Redis data
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	return &workflow.Instance{
		Entity: traverse.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:          instID,
		Definition:  m["definition"],
		CurrentNode: m["current_node"],
		Checkpoint:  checkpoint,
		Paused:      m["paused"] == "1",
		Data:        unmarshalData(m["data"]),
		History:     unmarshalHistory(m["history"]),
		Error:       m["error"],
		ScopeAppID:  m["scope_app"],
		ScopeOrgID:  m["scope_org"],
	}, nil
}

func boolToStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// marshalJSON is a helper to marshal to JSON string.
func marshalJSON(v interface{}) string {
	b, _ := json.Marshal(v) //nolint:errcheck // marshal should not fail for basic types
	return string(b)
}

// unmarshalData parses a JSON object into instance data.
func unmarshalData(s string) map[string]any {
	if s == "" || s == "null" {
		return nil
	}
	out := make(map[string]any)
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort parse from trusted Redis data
	return out
}

// unmarshalHistory parses a JSON array of transition records.
func unmarshalHistory(s string) []workflow.Transition {
	if s == "" || s == "null" {
		return nil
	}
	var out []workflow.Transition
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort parse from trusted Redis data
	return out
}
