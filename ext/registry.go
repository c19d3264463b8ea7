package ext

import (
	"context"
	"log/slog"

	"github.com/xraph/traverse/workflow"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type instanceCreatedEntry struct {
	name string
	hook InstanceCreated
}

type instancePausedEntry struct {
	name string
	hook InstancePaused
}

type instanceResumedEntry struct {
	name string
	hook InstanceResumed
}

type instanceCancelledEntry struct {
	name string
	hook InstanceCancelled
}

type instanceCompletedEntry struct {
	name string
	hook InstanceCompleted
}

type transitionCompletedEntry struct {
	name string
	hook TransitionCompleted
}

type transitionFailedEntry struct {
	name string
	hook TransitionFailed
}

type humanAwaitedEntry struct {
	name string
	hook HumanAwaited
}

type decisionAppliedEntry struct {
	name string
	hook DecisionApplied
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	instanceCreated     []instanceCreatedEntry
	instancePaused      []instancePausedEntry
	instanceResumed     []instanceResumedEntry
	instanceCancelled   []instanceCancelledEntry
	instanceCompleted   []instanceCompletedEntry
	transitionCompleted []transitionCompletedEntry
	transitionFailed    []transitionFailedEntry
	humanAwaited        []humanAwaitedEntry
	decisionApplied     []decisionAppliedEntry
	shutdown            []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(InstanceCreated); ok {
		r.instanceCreated = append(r.instanceCreated, instanceCreatedEntry{name, h})
	}
	if h, ok := e.(InstancePaused); ok {
		r.instancePaused = append(r.instancePaused, instancePausedEntry{name, h})
	}
	if h, ok := e.(InstanceResumed); ok {
		r.instanceResumed = append(r.instanceResumed, instanceResumedEntry{name, h})
	}
	if h, ok := e.(InstanceCancelled); ok {
		r.instanceCancelled = append(r.instanceCancelled, instanceCancelledEntry{name, h})
	}
	if h, ok := e.(InstanceCompleted); ok {
		r.instanceCompleted = append(r.instanceCompleted, instanceCompletedEntry{name, h})
	}
	if h, ok := e.(TransitionCompleted); ok {
		r.transitionCompleted = append(r.transitionCompleted, transitionCompletedEntry{name, h})
	}
	if h, ok := e.(TransitionFailed); ok {
		r.transitionFailed = append(r.transitionFailed, transitionFailedEntry{name, h})
	}
	if h, ok := e.(HumanAwaited); ok {
		r.humanAwaited = append(r.humanAwaited, humanAwaitedEntry{name, h})
	}
	if h, ok := e.(DecisionApplied); ok {
		r.decisionApplied = append(r.decisionApplied, decisionAppliedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Instance event emitters
// ──────────────────────────────────────────────────

// EmitInstanceCreated notifies all extensions that implement InstanceCreated.
func (r *Registry) EmitInstanceCreated(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.instanceCreated {
		if err := e.hook.OnInstanceCreated(ctx, inst); err != nil {
			r.logHookError("OnInstanceCreated", e.name, err)
		}
	}
}

// EmitInstancePaused notifies all extensions that implement InstancePaused.
func (r *Registry) EmitInstancePaused(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.instancePaused {
		if err := e.hook.OnInstancePaused(ctx, inst); err != nil {
			r.logHookError("OnInstancePaused", e.name, err)
		}
	}
}

// EmitInstanceResumed notifies all extensions that implement InstanceResumed.
func (r *Registry) EmitInstanceResumed(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.instanceResumed {
		if err := e.hook.OnInstanceResumed(ctx, inst); err != nil {
			r.logHookError("OnInstanceResumed", e.name, err)
		}
	}
}

// EmitInstanceCancelled notifies all extensions that implement InstanceCancelled.
func (r *Registry) EmitInstanceCancelled(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.instanceCancelled {
		if err := e.hook.OnInstanceCancelled(ctx, inst); err != nil {
			r.logHookError("OnInstanceCancelled", e.name, err)
		}
	}
}

// EmitInstanceCompleted notifies all extensions that implement InstanceCompleted.
func (r *Registry) EmitInstanceCompleted(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.instanceCompleted {
		if err := e.hook.OnInstanceCompleted(ctx, inst); err != nil {
			r.logHookError("OnInstanceCompleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Transition event emitters
// ──────────────────────────────────────────────────

// EmitTransitionCompleted notifies all extensions that implement TransitionCompleted.
func (r *Registry) EmitTransitionCompleted(ctx context.Context, inst *workflow.Instance, t workflow.Transition) {
	for _, e := range r.transitionCompleted {
		if err := e.hook.OnTransitionCompleted(ctx, inst, t); err != nil {
			r.logHookError("OnTransitionCompleted", e.name, err)
		}
	}
}

// EmitTransitionFailed notifies all extensions that implement TransitionFailed.
func (r *Registry) EmitTransitionFailed(ctx context.Context, inst *workflow.Instance, action string, transErr error) {
	for _, e := range r.transitionFailed {
		if err := e.hook.OnTransitionFailed(ctx, inst, action, transErr); err != nil {
			r.logHookError("OnTransitionFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Human decision event emitters
// ──────────────────────────────────────────────────

// EmitHumanAwaited notifies all extensions that implement HumanAwaited.
func (r *Registry) EmitHumanAwaited(ctx context.Context, inst *workflow.Instance) {
	for _, e := range r.humanAwaited {
		if err := e.hook.OnHumanAwaited(ctx, inst); err != nil {
			r.logHookError("OnHumanAwaited", e.name, err)
		}
	}
}

// EmitDecisionApplied notifies all extensions that implement DecisionApplied.
func (r *Registry) EmitDecisionApplied(ctx context.Context, inst *workflow.Instance, d workflow.Decision) {
	for _, e := range r.decisionApplied {
		if err := e.hook.OnDecisionApplied(ctx, inst, d); err != nil {
			r.logHookError("OnDecisionApplied", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the engine.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
