package workflow

import (
	"testing"
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
)

func TestInstance_Clone(t *testing.T) {
	orig := &Instance{
		Entity:      traverse.NewEntity(),
		ID:          id.NewInstanceID(),
		Definition:  "lead_qualification",
		CurrentNode: "check",
		Checkpoint:  2,
		Data:        map[string]any{"score": 80},
		History: []Transition{
			{Checkpoint: 1, FromNode: "start", ToNode: "score", Action: "submit"},
			{Checkpoint: 2, FromNode: "score", ToNode: "check", Action: "submit",
				Payload: map[string]any{"score": 80}},
		},
	}

	cp := orig.Clone()
	cp.Data["score"] = 0
	cp.History[0].Action = "tampered"
	cp.History[1].Payload["score"] = 0
	cp.History = append(cp.History, Transition{Checkpoint: 3})

	if orig.Data["score"] != 80 {
		t.Error("data mutation leaked into the original")
	}
	if orig.History[0].Action != "submit" {
		t.Error("history mutation leaked into the original")
	}
	if orig.History[1].Payload["score"] != 80 {
		t.Error("payload mutation leaked into the original")
	}
	if len(orig.History) != 2 {
		t.Errorf("history length = %d, want 2", len(orig.History))
	}
}

func TestInstance_CloneNil(t *testing.T) {
	var inst *Instance
	if inst.Clone() != nil {
		t.Fatal("nil instance should clone to nil")
	}
}

func TestMergeData(t *testing.T) {
	base := map[string]any{"a": 1, "b": "keep"}
	update := map[string]any{"a": 2, "c": true}

	merged := mergeData(base, update)

	if merged["a"] != 2 {
		t.Errorf("a = %v, want update to win", merged["a"])
	}
	if merged["b"] != "keep" {
		t.Errorf("b = %v, want preserved", merged["b"])
	}
	if merged["c"] != true {
		t.Errorf("c = %v, want added", merged["c"])
	}

	// The result is a fresh map.
	merged["b"] = "tampered"
	if base["b"] != "keep" {
		t.Error("merge mutated the base map")
	}

	// Nil operands are fine.
	if got := mergeData(nil, map[string]any{"x": 1}); got["x"] != 1 {
		t.Errorf("merge with nil base = %v", got)
	}
	if got := mergeData(map[string]any{"x": 1}, nil); got["x"] != 1 {
		t.Errorf("merge with nil update = %v", got)
	}
}

func TestCopyData(t *testing.T) {
	if copyData(nil) != nil {
		t.Fatal("nil map should copy to nil")
	}

	src := map[string]any{"k": "v"}
	cp := copyData(src)
	cp["k"] = "tampered"
	if src["k"] != "v" {
		t.Error("copy mutated the source")
	}
}

func TestInstance_NodeTimeoutExpired(t *testing.T) {
	now := time.Now().UTC()
	inst := &Instance{}
	inst.UpdatedAt = now.Add(-time.Hour)

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"nil node", nil, false},
		{"non-human node", &Node{Type: NodeAction, Timeout: time.Minute}, false},
		{"human without timeout", &Node{Type: NodeHuman}, false},
		{"human within timeout", &Node{Type: NodeHuman, Timeout: 2 * time.Hour}, false},
		{"human past timeout", &Node{Type: NodeHuman, Timeout: time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inst.NodeTimeoutExpired(tt.node, now); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
