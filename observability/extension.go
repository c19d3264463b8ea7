package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/traverse/ext"
	"github.com/xraph/traverse/workflow"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/traverse/observability"

// Compile-time interface checks.
var (
	_ ext.Extension           = (*MetricsExtension)(nil)
	_ ext.InstanceCreated     = (*MetricsExtension)(nil)
	_ ext.InstancePaused      = (*MetricsExtension)(nil)
	_ ext.InstanceResumed     = (*MetricsExtension)(nil)
	_ ext.InstanceCancelled   = (*MetricsExtension)(nil)
	_ ext.InstanceCompleted   = (*MetricsExtension)(nil)
	_ ext.TransitionCompleted = (*MetricsExtension)(nil)
	_ ext.TransitionFailed    = (*MetricsExtension)(nil)
	_ ext.HumanAwaited        = (*MetricsExtension)(nil)
	_ ext.DecisionApplied     = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via OpenTelemetry
// counters. Register it as an extension to automatically track instance
// creation, completion, pause/resume/cancel, transitions, and human
// decisions. Every data point carries a "workflow" attribute with the
// definition name.
type MetricsExtension struct {
	InstanceCreated     metric.Int64Counter
	InstancePaused      metric.Int64Counter
	InstanceResumed     metric.Int64Counter
	InstanceCancelled   metric.Int64Counter
	InstanceCompleted   metric.Int64Counter
	TransitionCompleted metric.Int64Counter
	TransitionFailed    metric.Int64Counter
	HumanAwaited        metric.Int64Counter
	DecisionApplied     metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If none is configured, noop instruments are used.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. This variant allows injecting a specific MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	return &MetricsExtension{
		InstanceCreated:     counter(meter, "traverse.instance.created"),
		InstancePaused:      counter(meter, "traverse.instance.paused"),
		InstanceResumed:     counter(meter, "traverse.instance.resumed"),
		InstanceCancelled:   counter(meter, "traverse.instance.cancelled"),
		InstanceCompleted:   counter(meter, "traverse.instance.completed"),
		TransitionCompleted: counter(meter, "traverse.transition.completed"),
		TransitionFailed:    counter(meter, "traverse.transition.failed"),
		HumanAwaited:        counter(meter, "traverse.human.awaited"),
		DecisionApplied:     counter(meter, "traverse.decision.applied"),
	}
}

// counter creates an Int64Counter, falling back to the noop instrument the
// OTel API guarantees on error.
func counter(meter metric.Meter, name string) metric.Int64Counter {
	c, err := meter.Int64Counter(name)
	_ = err // noop fallback guaranteed by OTel API contract
	return c
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// workflowAttr labels a data point with the instance's definition name.
func workflowAttr(inst *workflow.Instance) metric.AddOption {
	return metric.WithAttributes(attribute.String("workflow", inst.Definition))
}

// ── Instance lifecycle hooks ────────────────────────

// OnInstanceCreated implements ext.InstanceCreated.
func (m *MetricsExtension) OnInstanceCreated(ctx context.Context, inst *workflow.Instance) error {
	m.InstanceCreated.Add(ctx, 1, workflowAttr(inst))
	return nil
}

// OnInstancePaused implements ext.InstancePaused.
func (m *MetricsExtension) OnInstancePaused(ctx context.Context, inst *workflow.Instance) error {
	m.InstancePaused.Add(ctx, 1, workflowAttr(inst))
	return nil
}

// OnInstanceResumed implements ext.InstanceResumed.
func (m *MetricsExtension) OnInstanceResumed(ctx context.Context, inst *workflow.Instance) error {
	m.InstanceResumed.Add(ctx, 1, workflowAttr(inst))
	return nil
}

// OnInstanceCancelled implements ext.InstanceCancelled.
func (m *MetricsExtension) OnInstanceCancelled(ctx context.Context, inst *workflow.Instance) error {
	m.InstanceCancelled.Add(ctx, 1, workflowAttr(inst))
	return nil
}

// OnInstanceCompleted implements ext.InstanceCompleted.
func (m *MetricsExtension) OnInstanceCompleted(ctx context.Context, inst *workflow.Instance) error {
	m.InstanceCompleted.Add(ctx, 1, workflowAttr(inst))
	return nil
}

// ── Transition hooks ────────────────────────────────

// OnTransitionCompleted implements ext.TransitionCompleted.
func (m *MetricsExtension) OnTransitionCompleted(ctx context.Context, inst *workflow.Instance, t workflow.Transition) error {
	m.TransitionCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", inst.Definition),
		attribute.String("to_node", t.ToNode),
	))
	return nil
}

// OnTransitionFailed implements ext.TransitionFailed.
func (m *MetricsExtension) OnTransitionFailed(ctx context.Context, inst *workflow.Instance, _ string, _ error) error {
	m.TransitionFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", inst.Definition),
		attribute.String("node", inst.CurrentNode),
	))
	return nil
}

// ── Human decision hooks ────────────────────────────

// OnHumanAwaited implements ext.HumanAwaited.
func (m *MetricsExtension) OnHumanAwaited(ctx context.Context, inst *workflow.Instance) error {
	m.HumanAwaited.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", inst.Definition),
		attribute.String("node", inst.CurrentNode),
	))
	return nil
}

// OnDecisionApplied implements ext.DecisionApplied.
func (m *MetricsExtension) OnDecisionApplied(ctx context.Context, inst *workflow.Instance, d workflow.Decision) error {
	m.DecisionApplied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", inst.Definition),
		attribute.String("decision", string(d.Decision)),
	))
	return nil
}
