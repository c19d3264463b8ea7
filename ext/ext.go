// Package ext defines the extension system for Traverse.
// Extensions are notified of lifecycle events (instance created,
// transition completed, decision applied, etc.) and can react to them —
// logging, metrics, audit trails, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"

	"github.com/xraph/traverse/workflow"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Instance lifecycle hooks
// ──────────────────────────────────────────────────

// InstanceCreated is called after an instance is created and persisted.
type InstanceCreated interface {
	OnInstanceCreated(ctx context.Context, inst *workflow.Instance) error
}

// InstancePaused is called when an instance is paused, whether by an
// operator or by entering a human node.
type InstancePaused interface {
	OnInstancePaused(ctx context.Context, inst *workflow.Instance) error
}

// InstanceResumed is called when a paused instance is resumed.
type InstanceResumed interface {
	OnInstanceResumed(ctx context.Context, inst *workflow.Instance) error
}

// InstanceCancelled is called when an instance is cancelled.
type InstanceCancelled interface {
	OnInstanceCancelled(ctx context.Context, inst *workflow.Instance) error
}

// InstanceCompleted is called when an instance reaches an end node.
type InstanceCompleted interface {
	OnInstanceCompleted(ctx context.Context, inst *workflow.Instance) error
}

// ──────────────────────────────────────────────────
// Transition hooks
// ──────────────────────────────────────────────────

// TransitionCompleted is called after a transition commits a node change.
type TransitionCompleted interface {
	OnTransitionCompleted(ctx context.Context, inst *workflow.Instance, t workflow.Transition) error
}

// TransitionFailed is called when a transition fails, whether from a
// handler error or a dead end in the graph.
type TransitionFailed interface {
	OnTransitionFailed(ctx context.Context, inst *workflow.Instance, action string, err error) error
}

// ──────────────────────────────────────────────────
// Human decision hooks
// ──────────────────────────────────────────────────

// HumanAwaited is called when an instance parks on a human node.
type HumanAwaited interface {
	OnHumanAwaited(ctx context.Context, inst *workflow.Instance) error
}

// DecisionApplied is called after a human decision is applied and the
// instance has moved past its human node.
type DecisionApplied interface {
	OnDecisionApplied(ctx context.Context, inst *workflow.Instance, d workflow.Decision) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
