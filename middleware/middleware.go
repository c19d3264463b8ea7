// Package middleware provides composable middleware for node execution.
// Middleware wraps handler and condition calls synchronously and can
// modify execution (recover from panics, inject scope, log, add tracing,
// etc.).
package middleware

import "context"

// Attempt describes one node execution about to run: the instance it
// belongs to, the node whose handler or condition is being invoked, and
// the action that triggered it. It is the unit middleware wraps.
type Attempt struct {
	// InstanceID is the workflow instance being advanced.
	InstanceID string
	// Workflow is the definition name.
	Workflow string
	// Node is the id of the node executing.
	Node string
	// NodeType is the node's kind (action, decision, ...).
	NodeType string
	// Action is the caller-supplied trigger recorded in history.
	Action string
	// ScopeAppID and ScopeOrgID carry the tenancy captured at instance
	// creation.
	ScopeAppID string
	ScopeOrgID string
}

// Handler is the terminal function that executes node logic.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the attempt being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, a *Attempt, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, scope) executes as:
//
//	logging → recover → scope → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, a, prev)
			}
		}
		return h(ctx)
	}
}
