package workflow

import (
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
)

// Instance is a single mutable execution of a definition. All fields are
// persisted; Data and History are stored as JSON documents by the
// backends.
type Instance struct {
	traverse.Entity

	ID          id.InstanceID  `json:"id"`
	Definition  string         `json:"definition"`
	CurrentNode string         `json:"current_node"`
	Checkpoint  int64          `json:"checkpoint"`
	Paused      bool           `json:"paused"`
	Data        map[string]any `json:"data"`
	History     []Transition   `json:"history"`
	Error       string         `json:"error,omitempty"`
	ScopeAppID  string         `json:"scope_app_id,omitempty"`
	ScopeOrgID  string         `json:"scope_org_id,omitempty"`
}

// Transition is a write-once history record of one committed node change.
type Transition struct {
	Checkpoint int64          `json:"checkpoint"`
	FromNode   string         `json:"from_node"`
	ToNode     string         `json:"to_node"`
	Action     string         `json:"action"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Clone returns a deep copy of the instance. Data is copied one level
// deep (values are shared, matching the shallow-merge contract); History
// gets a fresh slice with copied records.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}

	cp := *i
	cp.Data = copyData(i.Data)
	cp.History = make([]Transition, len(i.History))
	copy(cp.History, i.History)
	for idx := range cp.History {
		cp.History[idx].Payload = copyData(i.History[idx].Payload)
	}
	return &cp
}

// NodeTimeoutExpired reports whether the instance has sat on the given
// human node longer than its advisory timeout. Timeouts are never
// enforced by the engine; the Watcher polls this.
func (i *Instance) NodeTimeoutExpired(n *Node, now time.Time) bool {
	if n == nil || n.Type != NodeHuman || n.Timeout <= 0 {
		return false
	}
	return now.Sub(i.UpdatedAt) > n.Timeout
}

// copyData returns a one-level copy of a data map. Nil stays nil.
func copyData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// mergeData shallow-merges update over base: keys present in update win,
// keys absent from update are preserved. The result is a fresh map; base
// is not mutated.
func mergeData(base, update map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
