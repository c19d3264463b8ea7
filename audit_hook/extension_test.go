package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	ah "github.com/xraph/traverse/audit_hook"
	"github.com/xraph/traverse/ext"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/workflow"
)

// ── Mock recorder ────────────────────────────────────

// mockRecorder captures audit events for verification.
type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockRecorder) last() *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) findByAction(action string) *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

// ── Test helpers ─────────────────────────────────────

func newTestInstance() *workflow.Instance {
	return &workflow.Instance{
		ID:          id.NewInstanceID(),
		Definition:  "lead_qualification",
		CurrentNode: "human_review",
		Checkpoint:  3,
		ScopeAppID:  "app-1",
		ScopeOrgID:  "org-1",
	}
}

// ── Tests ────────────────────────────────────────────

func TestExtension_Name(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	if e.Name() != "audit-hook" {
		t.Errorf("expected name %q, got %q", "audit-hook", e.Name())
	}
}

// ── Instance lifecycle tests ─────────────────────────

func TestExtension_InstanceCreated(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	ctx := context.Background()
	inst := newTestInstance()

	if err := e.OnInstanceCreated(ctx, inst); err != nil {
		t.Fatalf("OnInstanceCreated: %v", err)
	}

	evt := rec.last()
	if evt == nil {
		t.Fatal("no event recorded")
	}
	if evt.Action != ah.ActionInstanceCreated {
		t.Errorf("Action: want %q, got %q", ah.ActionInstanceCreated, evt.Action)
	}
	if evt.Resource != ah.ResourceInstance {
		t.Errorf("Resource: want %q, got %q", ah.ResourceInstance, evt.Resource)
	}
	if evt.Category != ah.CategoryInstance {
		t.Errorf("Category: want %q, got %q", ah.CategoryInstance, evt.Category)
	}
	if evt.ResourceID != inst.ID.String() {
		t.Errorf("ResourceID: want %q, got %q", inst.ID.String(), evt.ResourceID)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeSuccess, evt.Outcome)
	}
	if evt.Metadata["workflow"] != "lead_qualification" {
		t.Errorf("Metadata[workflow]: want %q, got %v", "lead_qualification", evt.Metadata["workflow"])
	}
	if evt.Metadata["current_node"] != "human_review" {
		t.Errorf("Metadata[current_node]: want %q, got %v", "human_review", evt.Metadata["current_node"])
	}
}

func TestExtension_InstancePaused(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnInstancePaused(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("OnInstancePaused: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionInstancePaused {
		t.Errorf("Action: want %q, got %q", ah.ActionInstancePaused, evt.Action)
	}
	if evt.Metadata["node"] != "human_review" {
		t.Errorf("Metadata[node]: want %q, got %v", "human_review", evt.Metadata["node"])
	}
}

func TestExtension_InstanceResumed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnInstanceResumed(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("OnInstanceResumed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionInstanceResumed {
		t.Errorf("Action: want %q, got %q", ah.ActionInstanceResumed, evt.Action)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
}

func TestExtension_InstanceCancelled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnInstanceCancelled(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("OnInstanceCancelled: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionInstanceCancelled {
		t.Errorf("Action: want %q, got %q", ah.ActionInstanceCancelled, evt.Action)
	}
	if evt.Severity != ah.SeverityWarning {
		t.Errorf("Severity: want %q, got %q", ah.SeverityWarning, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
}

func TestExtension_InstanceCompleted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnInstanceCompleted(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("OnInstanceCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionInstanceCompleted {
		t.Errorf("Action: want %q, got %q", ah.ActionInstanceCompleted, evt.Action)
	}
	if evt.Metadata["checkpoint"] != int64(3) {
		t.Errorf("Metadata[checkpoint]: want %d, got %v", 3, evt.Metadata["checkpoint"])
	}
}

// ── Transition tests ─────────────────────────────────

func TestExtension_TransitionCompleted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	tr := workflow.Transition{
		Checkpoint: 4,
		FromNode:   "human_review",
		ToNode:     "send_offer",
		Action:     "approve",
	}
	if err := e.OnTransitionCompleted(context.Background(), newTestInstance(), tr); err != nil {
		t.Fatalf("OnTransitionCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionTransitionCompleted {
		t.Errorf("Action: want %q, got %q", ah.ActionTransitionCompleted, evt.Action)
	}
	if evt.Category != ah.CategoryTransition {
		t.Errorf("Category: want %q, got %q", ah.CategoryTransition, evt.Category)
	}
	if evt.Metadata["from_node"] != "human_review" {
		t.Errorf("Metadata[from_node]: want %q, got %v", "human_review", evt.Metadata["from_node"])
	}
	if evt.Metadata["to_node"] != "send_offer" {
		t.Errorf("Metadata[to_node]: want %q, got %v", "send_offer", evt.Metadata["to_node"])
	}
	if evt.Metadata["checkpoint"] != int64(4) {
		t.Errorf("Metadata[checkpoint]: want %d, got %v", 4, evt.Metadata["checkpoint"])
	}
}

func TestExtension_TransitionFailed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	transErr := errors.New("enrichment provider timeout")
	if err := e.OnTransitionFailed(context.Background(), newTestInstance(), "submit", transErr); err != nil {
		t.Fatalf("OnTransitionFailed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionTransitionFailed {
		t.Errorf("Action: want %q, got %q", ah.ActionTransitionFailed, evt.Action)
	}
	if evt.Severity != ah.SeverityCritical {
		t.Errorf("Severity: want %q, got %q", ah.SeverityCritical, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
	if evt.Reason != "enrichment provider timeout" {
		t.Errorf("Reason: want %q, got %q", "enrichment provider timeout", evt.Reason)
	}
	if evt.Metadata["error"] != "enrichment provider timeout" {
		t.Errorf("Metadata[error]: want %q, got %v", "enrichment provider timeout", evt.Metadata["error"])
	}
	if evt.Metadata["action"] != "submit" {
		t.Errorf("Metadata[action]: want %q, got %v", "submit", evt.Metadata["action"])
	}
}

// ── Human decision tests ─────────────────────────────

func TestExtension_HumanAwaited(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnHumanAwaited(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("OnHumanAwaited: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionHumanAwaited {
		t.Errorf("Action: want %q, got %q", ah.ActionHumanAwaited, evt.Action)
	}
	if evt.Category != ah.CategoryHuman {
		t.Errorf("Category: want %q, got %q", ah.CategoryHuman, evt.Category)
	}
	if evt.Metadata["node"] != "human_review" {
		t.Errorf("Metadata[node]: want %q, got %v", "human_review", evt.Metadata["node"])
	}
}

func TestExtension_DecisionApplied_Approve(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	d := workflow.Decision{UserID: "u_42", Decision: workflow.DecisionApprove}
	if err := e.OnDecisionApplied(context.Background(), newTestInstance(), d); err != nil {
		t.Fatalf("OnDecisionApplied: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionDecisionApplied {
		t.Errorf("Action: want %q, got %q", ah.ActionDecisionApplied, evt.Action)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
	if evt.Metadata["decision"] != "approve" {
		t.Errorf("Metadata[decision]: want %q, got %v", "approve", evt.Metadata["decision"])
	}
	if evt.Metadata["decided_by"] != "u_42" {
		t.Errorf("Metadata[decided_by]: want %q, got %v", "u_42", evt.Metadata["decided_by"])
	}
}

func TestExtension_DecisionApplied_RejectIsWarning(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	d := workflow.Decision{UserID: "u_42", Decision: workflow.DecisionReject, Comment: "budget too low"}
	if err := e.OnDecisionApplied(context.Background(), newTestInstance(), d); err != nil {
		t.Fatalf("OnDecisionApplied: %v", err)
	}

	evt := rec.last()
	if evt.Severity != ah.SeverityWarning {
		t.Errorf("Severity: want %q, got %q", ah.SeverityWarning, evt.Severity)
	}
	if evt.Metadata["decision"] != "reject" {
		t.Errorf("Metadata[decision]: want %q, got %v", "reject", evt.Metadata["decision"])
	}
}

// ── WithActions filter tests ─────────────────────────

func TestExtension_WithActions_FiltersDisabled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec, ah.WithActions(ah.ActionTransitionFailed, ah.ActionInstanceCancelled))

	ctx := context.Background()
	inst := newTestInstance()

	// Created is NOT enabled — should be silently skipped.
	if err := e.OnInstanceCreated(ctx, inst); err != nil {
		t.Fatalf("OnInstanceCreated: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected 0 events (created disabled), got %d", rec.count())
	}

	// TransitionFailed IS enabled — should be recorded.
	if err := e.OnTransitionFailed(ctx, inst, "submit", errors.New("boom")); err != nil {
		t.Fatalf("OnTransitionFailed: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("expected 1 event (transition failed enabled), got %d", rec.count())
	}

	// Cancelled IS enabled — should be recorded.
	if err := e.OnInstanceCancelled(ctx, inst); err != nil {
		t.Fatalf("OnInstanceCancelled: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 events, got %d", rec.count())
	}
}

// ── RecorderFunc adapter test ────────────────────────

func TestRecorderFunc(t *testing.T) {
	var captured *ah.AuditEvent
	fn := ah.RecorderFunc(func(_ context.Context, evt *ah.AuditEvent) error {
		captured = evt
		return nil
	})

	e := ah.New(fn)
	inst := newTestInstance()

	if err := e.OnInstanceCreated(context.Background(), inst); err != nil {
		t.Fatalf("OnInstanceCreated: %v", err)
	}
	if captured == nil {
		t.Fatal("RecorderFunc was not called")
	}
	if captured.Action != ah.ActionInstanceCreated {
		t.Errorf("Action: want %q, got %q", ah.ActionInstanceCreated, captured.Action)
	}
}

// ── Recorder error handling test ─────────────────────

func TestExtension_RecorderError_DoesNotPropagate(t *testing.T) {
	failingRecorder := ah.RecorderFunc(func(_ context.Context, _ *ah.AuditEvent) error {
		return errors.New("audit backend down")
	})

	e := ah.New(failingRecorder)
	inst := newTestInstance()

	// Hook should NOT return an error — audit failures must not block
	// the engine.
	if err := e.OnInstanceCreated(context.Background(), inst); err != nil {
		t.Fatalf("expected no error (audit failure swallowed), got: %v", err)
	}
}

// ── Registry integration test ────────────────────────

func TestExtension_ViaRegistry(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	logger := slog.Default()

	reg := ext.NewRegistry(logger)
	reg.Register(e)

	ctx := context.Background()
	inst := newTestInstance()

	reg.EmitInstanceCreated(ctx, inst)
	reg.EmitTransitionCompleted(ctx, inst, workflow.Transition{FromNode: "start", ToNode: "enrich_lead"})
	reg.EmitTransitionFailed(ctx, inst, "submit", errors.New("fail"))
	reg.EmitHumanAwaited(ctx, inst)
	reg.EmitDecisionApplied(ctx, inst, workflow.Decision{Decision: workflow.DecisionApprove})
	reg.EmitInstancePaused(ctx, inst)
	reg.EmitInstanceResumed(ctx, inst)
	reg.EmitInstanceCancelled(ctx, inst)
	reg.EmitInstanceCompleted(ctx, inst)

	// Verify all 9 event types were recorded.
	allActions := ah.AllActions()
	if rec.count() != len(allActions) {
		t.Fatalf("expected %d events, got %d", len(allActions), rec.count())
	}

	for _, action := range allActions {
		evt := rec.findByAction(action)
		if evt == nil {
			t.Errorf("missing event for action %q", action)
		}
	}
}

// ── AllActions test ──────────────────────────────────

func TestAllActions(t *testing.T) {
	actions := ah.AllActions()
	if len(actions) != 9 {
		t.Errorf("expected 9 actions, got %d", len(actions))
	}
}
