package middleware

import (
	"context"

	"github.com/xraph/traverse/scope"
)

// Scope returns middleware that restores multi-tenant scope from the
// attempt's ScopeAppID/ScopeOrgID fields into the context. This ensures
// handlers see the same forge.Scope as the caller that created the
// instance.
func Scope() Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		ctx = scope.Restore(ctx, a.ScopeAppID, a.ScopeOrgID)
		return next(ctx)
	}
}
