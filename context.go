package traverse

import "context"

// Context is the execution context for Traverse handlers.
// It is a simple alias for context.Context. Tenancy scope is injected via
// forge.WithScope on the stdlib context; see the scope package.
type Context = context.Context
