// Package audithook is an extension that bridges instance lifecycle events
// to an immutable audit trail backend.
//
// Every instance, transition, and human decision hook emits a structured
// audit event through the [Recorder] interface. The extension assigns
// appropriate severity levels (info for normal operations, warning for
// cancellations and rejections, critical for failed transitions) and rich
// metadata (workflow name, node, action, decision, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    slog.InfoContext(ctx, "audit",
//	        "action", evt.Action,
//	        "resource_id", evt.ResourceID,
//	        "outcome", evt.Outcome,
//	    )
//	    return nil
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionTransitionFailed,
//	        audithook.ActionInstanceCancelled,
//	        audithook.ActionDecisionApplied,
//	    ),
//	)
package audithook
