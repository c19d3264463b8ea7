// Package engine wires the Traverse subsystems together. It creates the
// extension registry, definition registry, middleware chain, runner, and
// escalation watcher, and provides Register/Create operations.
//
// This package exists to break the import cycle: the root traverse package
// defines Entity (imported by workflow, ext, etc.) and so cannot import
// those packages back. The engine package sits above all subsystem packages
// and below the application layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/ext"
	mw "github.com/xraph/traverse/middleware"
	"github.com/xraph/traverse/observability"
	"github.com/xraph/traverse/workflow"
)

// ext.Registry satisfies workflow.Emitter directly -- its emit methods
// were shaped to match, so the engine plugs the registry straight into
// the runner. workflow defines the interface, ext provides the
// implementation, and this assertion pins the contract.
var _ workflow.Emitter = (*ext.Registry)(nil)

// Engine wraps a Traverse coordinator with typed subsystem access.
// Use Build() to create one.
type Engine struct {
	t          *traverse.Traverse
	extensions *ext.Registry
	registry   *workflow.Registry
	store      workflow.Store
	runner     *workflow.Runner
	watcher    *workflow.Watcher
	mws        []mw.Middleware
	logger     *slog.Logger

	// Escalation watcher configuration.
	escalate        workflow.EscalateFunc
	watcherDisabled bool

	// Node execution deadline applied via the Timeout middleware
	// (zero means handlers run unbounded).
	nodeTimeout time.Duration

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware adds middleware to the engine's chain, after the
// default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithWatcher sets the callback the escalation watcher invokes when a
// paused instance has waited at a human node longer than the node's
// Timeout. The watcher runs even without a callback; it then only logs
// the overdue wait.
func WithWatcher(fn workflow.EscalateFunc) Option {
	return func(eng *Engine) {
		eng.escalate = fn
	}
}

// WithoutWatcher disables the background escalation watcher entirely.
func WithoutWatcher() Option {
	return func(eng *Engine) {
		eng.watcherDisabled = true
	}
}

// WithNodeTimeout bounds every node handler execution with the Timeout
// middleware. Zero (the default) leaves handlers unbounded.
func WithNodeTimeout(d time.Duration) Option {
	return func(eng *Engine) {
		eng.nodeTimeout = d
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the global one.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Traverse coordinator.
// The coordinator's store must implement workflow.Store.
func Build(t *traverse.Traverse, opts ...Option) (*Engine, error) {
	logger := t.Logger()
	store := t.Store()

	if store == nil {
		return nil, traverse.ErrNoStore
	}

	// Type-assert the store to get the workflow.Store interface.
	ws, ok := store.(workflow.Store)
	if !ok {
		return nil, fmt.Errorf("traverse: store does not implement workflow.Store")
	}

	eng := &Engine{
		t:          t,
		extensions: ext.NewRegistry(logger),
		registry:   workflow.NewRegistry(),
		store:      ws,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(eng)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/traverse")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/traverse")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/traverse/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Build default middleware stack: recover → tracing → metrics → logging → scope.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Scope(),
	}
	if eng.nodeTimeout > 0 {
		defaultMws = append(defaultMws, mw.Timeout(logger, eng.nodeTimeout))
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	// Create the runner.
	config := t.Config()
	eng.runner = workflow.NewRunner(eng.registry, ws, eng.extensions, logger,
		workflow.WithMiddleware(allMws...),
		workflow.WithListLimit(config.ListLimit),
	)

	// Create the escalation watcher unless disabled.
	if !eng.watcherDisabled {
		eng.watcher = workflow.NewWatcher(eng.registry, ws, eng.escalate, logger,
			workflow.WithInterval(config.WatcherInterval),
		)
		t.SetWatcher(eng.watcher)
	}

	// Wire back into the coordinator.
	t.SetExtensions(eng.extensions)

	return eng, nil
}

// Register registers a workflow definition with the engine.
// The definition is validated and may not be re-registered.
func (eng *Engine) Register(def *workflow.Definition) error {
	return eng.registry.Register(def)
}

// Create creates an instance of a registered workflow with a typed
// initial data document.
func Create[T any](ctx context.Context, eng *Engine, definition string, input T) (*workflow.Instance, error) {
	return workflow.Create(ctx, eng.runner, definition, input)
}

// CreateRaw creates an instance with an untyped data override map.
func (eng *Engine) CreateRaw(ctx context.Context, definition string, overrides map[string]any) (*workflow.Instance, error) {
	return eng.runner.Create(ctx, definition, overrides)
}

// Start begins background processing (the escalation watcher, when
// enabled). Transitions themselves are synchronous and need no Start.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.t.Start(ctx)
}

// Stop gracefully shuts down the engine: the watcher stops, extensions
// receive OnShutdown, and the store is closed.
func (eng *Engine) Stop(ctx context.Context) error {
	return eng.t.Stop(ctx)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registry returns the workflow definition registry.
func (eng *Engine) Registry() *workflow.Registry { return eng.registry }

// Runner returns the workflow runner for transitions, decisions, and
// lifecycle operations.
func (eng *Engine) Runner() *workflow.Runner { return eng.runner }

// Watcher returns the escalation watcher, or nil when disabled.
func (eng *Engine) Watcher() *workflow.Watcher { return eng.watcher }

// Traverse returns the underlying coordinator.
func (eng *Engine) Traverse() *traverse.Traverse { return eng.t }
