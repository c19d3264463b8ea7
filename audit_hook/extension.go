package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/traverse/ext"
	"github.com/xraph/traverse/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*Extension)(nil)
	_ ext.InstanceCreated     = (*Extension)(nil)
	_ ext.InstancePaused      = (*Extension)(nil)
	_ ext.InstanceResumed     = (*Extension)(nil)
	_ ext.InstanceCancelled   = (*Extension)(nil)
	_ ext.InstanceCompleted   = (*Extension)(nil)
	_ ext.TransitionCompleted = (*Extension)(nil)
	_ ext.TransitionFailed    = (*Extension)(nil)
	_ ext.HumanAwaited        = (*Extension)(nil)
	_ ext.DecisionApplied     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so the audit_hook package does not depend on any
// particular audit product — callers inject the concrete backend at
// wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// Callers provide a RecorderFunc adapter that bridges to their audit backend.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
//
// Example bridging to slog:
//
//	audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    slog.InfoContext(ctx, "audit",
//	        "action", evt.Action,
//	        "resource_id", evt.ResourceID,
//	        "outcome", evt.Outcome,
//	    )
//	    return nil
//	})
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges instance lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Instance lifecycle hooks ────────────────────────

// OnInstanceCreated implements ext.InstanceCreated.
func (e *Extension) OnInstanceCreated(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionInstanceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryInstance, nil,
		"workflow", inst.Definition,
		"current_node", inst.CurrentNode,
	)
}

// OnInstancePaused implements ext.InstancePaused.
func (e *Extension) OnInstancePaused(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionInstancePaused, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryInstance, nil,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
	)
}

// OnInstanceResumed implements ext.InstanceResumed.
func (e *Extension) OnInstanceResumed(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionInstanceResumed, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryInstance, nil,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
	)
}

// OnInstanceCancelled implements ext.InstanceCancelled.
func (e *Extension) OnInstanceCancelled(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionInstanceCancelled, SeverityWarning, OutcomeFailure,
		ResourceInstance, inst.ID.String(), CategoryInstance, nil,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
	)
}

// OnInstanceCompleted implements ext.InstanceCompleted.
func (e *Extension) OnInstanceCompleted(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionInstanceCompleted, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryInstance, nil,
		"workflow", inst.Definition,
		"checkpoint", inst.Checkpoint,
	)
}

// ── Transition hooks ────────────────────────────────

// OnTransitionCompleted implements ext.TransitionCompleted.
func (e *Extension) OnTransitionCompleted(ctx context.Context, inst *workflow.Instance, t workflow.Transition) error {
	return e.record(ctx, ActionTransitionCompleted, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryTransition, nil,
		"workflow", inst.Definition,
		"from_node", t.FromNode,
		"to_node", t.ToNode,
		"action", t.Action,
		"checkpoint", t.Checkpoint,
	)
}

// OnTransitionFailed implements ext.TransitionFailed.
func (e *Extension) OnTransitionFailed(ctx context.Context, inst *workflow.Instance, action string, transErr error) error {
	return e.record(ctx, ActionTransitionFailed, SeverityCritical, OutcomeFailure,
		ResourceInstance, inst.ID.String(), CategoryTransition, transErr,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
		"action", action,
	)
}

// ── Human decision hooks ────────────────────────────

// OnHumanAwaited implements ext.HumanAwaited.
func (e *Extension) OnHumanAwaited(ctx context.Context, inst *workflow.Instance) error {
	return e.record(ctx, ActionHumanAwaited, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryHuman, nil,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
	)
}

// OnDecisionApplied implements ext.DecisionApplied.
// Rejections record as warnings since they abort the instance.
func (e *Extension) OnDecisionApplied(ctx context.Context, inst *workflow.Instance, d workflow.Decision) error {
	severity := SeverityInfo
	if d.Decision == workflow.DecisionReject {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionDecisionApplied, severity, OutcomeSuccess,
		ResourceInstance, inst.ID.String(), CategoryHuman, nil,
		"workflow", inst.Definition,
		"node", inst.CurrentNode,
		"decision", string(d.Decision),
		"decided_by", d.UserID,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
