package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionInstanceCreated     = "instance.created"
	ActionInstancePaused      = "instance.paused"
	ActionInstanceResumed     = "instance.resumed"
	ActionInstanceCancelled   = "instance.cancelled"
	ActionInstanceCompleted   = "instance.completed"
	ActionTransitionCompleted = "transition.completed"
	ActionTransitionFailed    = "transition.failed"
	ActionHumanAwaited        = "human.awaited"
	ActionDecisionApplied     = "decision.applied"
)

// Audit event categories group related actions.
const (
	CategoryInstance   = "traverse.instance"
	CategoryTransition = "traverse.transition"
	CategoryHuman      = "traverse.human"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceInstance = "workflow_instance"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionInstanceCreated,
		ActionInstancePaused,
		ActionInstanceResumed,
		ActionInstanceCancelled,
		ActionInstanceCompleted,
		ActionTransitionCompleted,
		ActionTransitionFailed,
		ActionHumanAwaited,
		ActionDecisionApplied,
	}
}
