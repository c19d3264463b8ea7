// Package ext defines the extension system for Traverse.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, emitting webhooks, writing audit logs, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnInstanceCompleted(ctx context.Context, inst *workflow.Instance) error {
//	    log.Printf("instance %s finished at %s", inst.ID, inst.CurrentNode)
//	    return nil
//	}
//
// # Instance Lifecycle Hooks
//
//   - [InstanceCreated] — instance was created and persisted
//   - [InstancePaused] — instance was paused, by an operator or a human node
//   - [InstanceResumed] — paused instance was resumed
//   - [InstanceCancelled] — instance was cancelled
//   - [InstanceCompleted] — instance reached an end node
//
// # Transition Hooks
//
//   - [TransitionCompleted] — a node change committed
//   - [TransitionFailed] — a transition failed (handler error or dead end)
//
// # Human Decision Hooks
//
//   - [HumanAwaited] — instance parked on a human node
//   - [DecisionApplied] — a reviewer's decision was applied
//
// # Other Hooks
//
//   - [Shutdown] — the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
