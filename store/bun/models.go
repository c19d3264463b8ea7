package bunstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// ── Instance model ────────────────────────────────────────────────

type instanceModel struct {
	bun.BaseModel `bun:"table:traverse_instances"`

	ID          string    `bun:"id,pk"`
	Definition  string    `bun:"definition,notnull"`
	CurrentNode string    `bun:"current_node,notnull,default:'start'"`
	Checkpoint  int64     `bun:"checkpoint,notnull,default:0"`
	Paused      bool      `bun:"paused,notnull,default:false"`
	Data        []byte    `bun:"data,type:jsonb"`
	History     []byte    `bun:"history,type:jsonb"`
	Error       string    `bun:"error"`
	ScopeAppID  string    `bun:"scope_app_id"`
	ScopeOrgID  string    `bun:"scope_org_id"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toInstanceModel(inst *workflow.Instance) (*instanceModel, error) {
	data, err := json.Marshal(inst.Data)
	if err != nil {
		return nil, fmt.Errorf("traverse/bun: marshal data: %w", err)
	}
	history, err := json.Marshal(inst.History)
	if err != nil {
		return nil, fmt.Errorf("traverse/bun: marshal history: %w", err)
	}

	return &instanceModel{
		ID:          inst.ID.String(),
		Definition:  inst.Definition,
		CurrentNode: inst.CurrentNode,
		Checkpoint:  inst.Checkpoint,
		Paused:      inst.Paused,
		Data:        data,
		History:     history,
		Error:       inst.Error,
		ScopeAppID:  inst.ScopeAppID,
		ScopeOrgID:  inst.ScopeOrgID,
		CreatedAt:   inst.CreatedAt,
		UpdatedAt:   inst.UpdatedAt,
	}, nil
}

func fromInstanceModel(m *instanceModel) (*workflow.Instance, error) {
	parsedID, err := id.ParseInstanceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("traverse/bun: parse instance id %q: %w", m.ID, err)
	}

	inst := &workflow.Instance{
		Entity: traverse.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          parsedID,
		Definition:  m.Definition,
		CurrentNode: m.CurrentNode,
		Checkpoint:  m.Checkpoint,
		Paused:      m.Paused,
		Error:       m.Error,
		ScopeAppID:  m.ScopeAppID,
		ScopeOrgID:  m.ScopeOrgID,
	}

	if len(m.Data) > 0 {
		if uErr := json.Unmarshal(m.Data, &inst.Data); uErr != nil {
			return nil, fmt.Errorf("traverse/bun: unmarshal data: %w", uErr)
		}
	}
	if len(m.History) > 0 {
		if uErr := json.Unmarshal(m.History, &inst.History); uErr != nil {
			return nil, fmt.Errorf("traverse/bun: unmarshal history: %w", uErr)
		}
	}

	return inst, nil
}
