package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Migrate", func() error { return s.Migrate(ctx) }},
		{"Ping", func() error { return s.Ping(ctx) }},
		{"Close", func() error { return s.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("%s returned error: %v", tt.name, err)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Instance Store tests
// ──────────────────────────────────────────────────

func newInstance(definition, node string, paused bool) *workflow.Instance {
	return &workflow.Instance{
		Entity:      traverse.NewEntity(),
		ID:          id.NewInstanceID(),
		Definition:  definition,
		CurrentNode: node,
		Paused:      paused,
		Data:        map[string]any{"seed": true},
		History:     []workflow.Transition{},
	}
}

func TestInstanceCreateAndGet(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	inst := newInstance("lead_qualification", "start", false)

	tests := []struct {
		name    string
		fn      func() error
		wantErr error
	}{
		{
			name:    "create new instance",
			fn:      func() error { return s.CreateInstance(ctx, inst) },
			wantErr: nil,
		},
		{
			name:    "create duplicate instance",
			fn:      func() error { return s.CreateInstance(ctx, inst) },
			wantErr: traverse.ErrInstanceExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Verify Get.
	got, err := s.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.Definition != inst.Definition {
		t.Fatalf("got definition %q, want %q", got.Definition, inst.Definition)
	}

	// Get non-existent.
	_, err = s.GetInstance(ctx, id.NewInstanceID())
	if !errors.Is(err, traverse.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestInstanceUpdate(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	inst := newInstance("lead_qualification", "start", false)
	if err := s.CreateInstance(ctx, inst); err != nil {
		t.Fatal(err)
	}

	inst.CurrentNode = "score"
	inst.Checkpoint = 1
	if err := s.UpdateInstance(ctx, inst, 0); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetInstance(ctx, inst.ID)
	if got.CurrentNode != "score" {
		t.Fatalf("current node = %q, want %q", got.CurrentNode, "score")
	}
	if got.Checkpoint != 1 {
		t.Fatalf("checkpoint = %d, want 1", got.Checkpoint)
	}

	// Stale expected checkpoint.
	inst.CurrentNode = "check"
	inst.Checkpoint = 2
	if err := s.UpdateInstance(ctx, inst, 0); !errors.Is(err, traverse.ErrCheckpointConflict) {
		t.Fatalf("expected ErrCheckpointConflict, got %v", err)
	}

	// The conflicting write must not land.
	got, _ = s.GetInstance(ctx, inst.ID)
	if got.CurrentNode != "score" {
		t.Fatalf("conflicting write landed: current node = %q", got.CurrentNode)
	}

	// Update non-existent.
	missing := newInstance("lead_qualification", "start", false)
	if err := s.UpdateInstance(ctx, missing, 0); !errors.Is(err, traverse.ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestInstanceCopyOnReturn(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	inst := newInstance("lead_qualification", "start", false)
	if err := s.CreateInstance(ctx, inst); err != nil {
		t.Fatal(err)
	}

	// Mutating what the caller passed in must not leak into the store.
	inst.Data["leaked"] = true

	got, err := s.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Data["leaked"]; ok {
		t.Fatal("mutation on created instance leaked into the store")
	}

	// Mutating what Get returned must not leak either.
	got.Data["leaked"] = true
	got.History = append(got.History, workflow.Transition{Action: "phantom"})

	again, _ := s.GetInstance(ctx, inst.ID)
	if _, ok := again.Data["leaked"]; ok {
		t.Fatal("mutation on returned instance leaked into the store")
	}
	if len(again.History) != 0 {
		t.Fatalf("history length = %d, want 0", len(again.History))
	}
}

func TestInstanceList(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	i1 := newInstance("lead_qualification", "start", false)
	i2 := newInstance("lead_qualification", "human_review", true)
	i3 := newInstance("gdpr_dsr", "human_review", true)

	for _, inst := range []*workflow.Instance{i1, i2, i3} {
		if err := s.CreateInstance(ctx, inst); err != nil {
			t.Fatal(err)
		}
	}

	paused := true
	active := false

	tests := []struct {
		name      string
		q         workflow.Query
		wantCount int
	}{
		{"all", workflow.Query{}, 3},
		{"by definition", workflow.Query{Definition: "lead_qualification"}, 2},
		{"by current node", workflow.Query{CurrentNode: "human_review"}, 2},
		{"paused only", workflow.Query{Paused: &paused}, 2},
		{"active only", workflow.Query{Paused: &active}, 1},
		{"definition and paused", workflow.Query{Definition: "lead_qualification", Paused: &paused}, 1},
		{"with limit", workflow.Query{Limit: 2}, 2},
		{"with offset", workflow.Query{Offset: 1}, 2},
		{"offset past end", workflow.Query{Offset: 10}, 0},
		{"no match", workflow.Query{Definition: "unknown"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListInstances(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestInstanceListOrder(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	first := newInstance("lead_qualification", "start", false)
	second := newInstance("lead_qualification", "start", false)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.CreatedAt

	// Insert out of order.
	for _, inst := range []*workflow.Instance{second, first} {
		if err := s.CreateInstance(ctx, inst); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListInstances(ctx, workflow.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].ID.String() != first.ID.String() {
		t.Fatal("instances not ordered by creation time")
	}
}
