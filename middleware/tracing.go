package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for traverse tracing.
const tracerName = "github.com/xraph/traverse"

// Tracing returns middleware that wraps node execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: traverse.instance.id, traverse.workflow,
// traverse.node, traverse.node_type, traverse.action,
// traverse.scope.app_id, traverse.scope.org_id.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		ctx, span := tracer.Start(ctx, "traverse.node.execute",
			trace.WithAttributes(
				attribute.String("traverse.instance.id", a.InstanceID),
				attribute.String("traverse.workflow", a.Workflow),
				attribute.String("traverse.node", a.Node),
				attribute.String("traverse.node_type", a.NodeType),
				attribute.String("traverse.action", a.Action),
				attribute.String("traverse.scope.app_id", a.ScopeAppID),
				attribute.String("traverse.scope.org_id", a.ScopeOrgID),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
