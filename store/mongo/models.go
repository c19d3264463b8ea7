package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// instanceModel is the BSON document shape for a workflow instance.
// Data and History are stored as JSON blobs so values round-trip with
// the same types the other backends produce.
type instanceModel struct {
	ID          string    `bson:"_id"`
	Definition  string    `bson:"definition"`
	CurrentNode string    `bson:"current_node"`
	Checkpoint  int64     `bson:"checkpoint"`
	Paused      bool      `bson:"paused"`
	Data        []byte    `bson:"data,omitempty"`
	History     []byte    `bson:"history,omitempty"`
	Error       string    `bson:"error"`
	ScopeAppID  string    `bson:"scope_app_id"`
	ScopeOrgID  string    `bson:"scope_org_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toInstanceModel(inst *workflow.Instance) (*instanceModel, error) {
	data, err := json.Marshal(inst.Data)
	if err != nil {
		return nil, fmt.Errorf("traverse/mongo: marshal data: %w", err)
	}
	history, err := json.Marshal(inst.History)
	if err != nil {
		return nil, fmt.Errorf("traverse/mongo: marshal history: %w", err)
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
		return nil, fmt.Errorf("traverse/mongo: parse instance id %q: %w", m.ID, err)
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
		if err := json.Unmarshal(m.Data, &inst.Data); err != nil {
			return nil, fmt.Errorf("traverse/mongo: unmarshal data: %w", err)
		}
	}
	if len(m.History) > 0 {
		if err := json.Unmarshal(m.History, &inst.History); err != nil {
			return nil, fmt.Errorf("traverse/mongo: unmarshal history: %w", err)
		}
	}

	return inst, nil
}
