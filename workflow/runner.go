package workflow

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
	"github.com/xraph/traverse/middleware"
	"github.com/xraph/traverse/scope"
)

// Emitter emits instance-level lifecycle events.
// This interface is satisfied by ext.Registry (via an adapter in the
// engine package) to break the import cycle between workflow and ext.
type Emitter interface {
	EmitInstanceCreated(ctx context.Context, inst *Instance)
	EmitTransitionCompleted(ctx context.Context, inst *Instance, t Transition)
	EmitTransitionFailed(ctx context.Context, inst *Instance, action string, err error)
	EmitHumanAwaited(ctx context.Context, inst *Instance)
	EmitDecisionApplied(ctx context.Context, inst *Instance, d Decision)
	EmitInstancePaused(ctx context.Context, inst *Instance)
	EmitInstanceResumed(ctx context.Context, inst *Instance)
	EmitInstanceCancelled(ctx context.Context, inst *Instance)
	EmitInstanceCompleted(ctx context.Context, inst *Instance)
}

// noopEmitter is used when no emitter is injected.
type noopEmitter struct{}

func (noopEmitter) EmitInstanceCreated(context.Context, *Instance)                 {}
func (noopEmitter) EmitTransitionCompleted(context.Context, *Instance, Transition) {}
func (noopEmitter) EmitTransitionFailed(context.Context, *Instance, string, error) {}
func (noopEmitter) EmitHumanAwaited(context.Context, *Instance)                    {}
func (noopEmitter) EmitDecisionApplied(context.Context, *Instance, Decision)       {}
func (noopEmitter) EmitInstancePaused(context.Context, *Instance)                  {}
func (noopEmitter) EmitInstanceResumed(context.Context, *Instance)                 {}
func (noopEmitter) EmitInstanceCancelled(context.Context, *Instance)               {}
func (noopEmitter) EmitInstanceCompleted(context.Context, *Instance)               {}

// Result reports the outcome of a transition or human decision. State is
// always the best-known instance state when the instance exists, so
// callers can inspect State.CurrentNode after a rejected transition.
type Result struct {
	// Success reports whether a node change committed; for end nodes it
	// reports the no-op succeeded.
	Success bool
	// State is a copy of the instance after the call.
	State *Instance
	// Err carries the failure when Success is false.
	Err error
	// Complete reports the instance rests on an end node.
	Complete bool
	// AwaitingHuman reports the instance is parked waiting for a human
	// decision.
	AwaitingHuman bool
}

// HandlerError marks a failure raised by consumer code (an action handler
// or a panicking condition) rather than by the engine. Transitions that
// fail with it leave the node pointer and checkpoint unchanged, so the
// same transition may be retried once the underlying cause is fixed.
type HandlerError struct {
	Node string
	Err  error
}

// Error implements error.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("traverse: node %q handler: %v", e.Node, e.Err)
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *HandlerError) Unwrap() error { return e.Err }

// IsHandlerError reports whether err originated in consumer code. Such
// failures are recoverable: the instance stays at its node.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// lockShards is the size of the keyed mutex table serializing transitions
// per instance.
const lockShards = 256

// Runner is the state-machine core: it creates instances, executes
// transitions, and routes human decisions. At most one transition per
// instance ID is in flight at any time; a striped mutex table serializes
// in-process callers and the store's checkpoint guard rejects lost
// updates across processes.
type Runner struct {
	registry *Registry
	store    Store
	emitter  Emitter
	logger   *slog.Logger
	chain    middleware.Middleware
	limit    int

	locks [lockShards]sync.Mutex
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMiddleware sets the middleware chain applied around every node
// execution (action handlers and decision conditions).
func WithMiddleware(mws ...middleware.Middleware) RunnerOption {
	return func(r *Runner) {
		if len(mws) > 0 {
			r.chain = middleware.Chain(mws...)
		}
	}
}

// WithListLimit sets the default page size used by List when the query
// does not set one.
func WithListLimit(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRunner creates a workflow runner. The emitter may be nil; lifecycle
// events are then dropped.
func NewRunner(registry *Registry, store Store, emitter Emitter, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		registry: registry,
		store:    store,
		emitter:  emitter,
		logger:   logger,
		limit:    20,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the definition registry.
func (r *Runner) Registry() *Registry { return r.registry }

// lock serializes operations on one instance id and returns the unlock
// function. Unrelated instances may share a shard; that only costs
// throughput, never correctness.
func (r *Runner) lock(instID id.InstanceID) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(instID.String()))
	m := &r.locks[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}

// Create starts a new instance of the named definition at the start node.
// Initial data is the definition's InitialState merged with overrides
// (overrides win). No handler runs; the start node executes on the first
// Transition call.
func (r *Runner) Create(ctx context.Context, definition string, overrides map[string]any) (*Instance, error) {
	def, err := r.registry.Get(definition)
	if err != nil {
		return nil, err
	}

	// Capture scope.
	appID, orgID := scope.Capture(ctx)

	data := map[string]any{}
	if def.InitialState != nil {
		if initial := def.InitialState(); initial != nil {
			data = initial
		}
	}
	data = mergeData(data, overrides)

	inst := &Instance{
		Entity:      traverse.NewEntity(),
		ID:          id.NewInstanceID(),
		Definition:  definition,
		CurrentNode: StartNodeID,
		Checkpoint:  0,
		Data:        data,
		History:     []Transition{},
		ScopeAppID:  appID,
		ScopeOrgID:  orgID,
	}

	if err := r.store.CreateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance for workflow %q: %w", definition, err)
	}

	r.emitter.EmitInstanceCreated(ctx, inst)

	return inst.Clone(), nil
}

// Transition advances the instance by exactly one node. The action names
// the trigger and is recorded in history; payload is handed to action
// handlers and recorded alongside. Domain failures (pause violations,
// structural dead ends, handler errors) come back inside the Result;
// the returned error is reserved for calls that could not produce a
// result at all (unknown instance, store I/O).
func (r *Runner) Transition(ctx context.Context, instID id.InstanceID, action string, payload map[string]any) (*Result, error) {
	unlock := r.lock(instID)
	defer unlock()

	inst, err := r.store.GetInstance(ctx, instID)
	if err != nil {
		return nil, fmt.Errorf("transition %q: %w", action, err)
	}

	return r.advance(ctx, inst, action, payload), nil
}

// advance runs one transition against a loaded instance. The caller holds
// the instance lock.
func (r *Runner) advance(ctx context.Context, inst *Instance, action string, payload map[string]any) *Result {
	def, err := r.registry.Get(inst.Definition)
	if err != nil {
		return &Result{Success: false, State: inst.Clone(), Err: err}
	}

	if inst.Paused {
		// Pause violations report AwaitingHuman so callers can route to
		// the human-decision path.
		return &Result{
			Success:       false,
			State:         inst.Clone(),
			Err:           fmt.Errorf("%w: instance %s is paused at node %q", traverse.ErrWorkflowPaused, inst.ID, inst.CurrentNode),
			AwaitingHuman: true,
		}
	}

	node, ok := def.Nodes[inst.CurrentNode]
	if !ok {
		return r.structural(ctx, inst, action,
			fmt.Errorf("%w: %q in workflow %q", traverse.ErrNodeNotFound, inst.CurrentNode, inst.Definition))
	}

	switch node.Type {
	case NodeEnd:
		// Terminal no-op: no history entry, no checkpoint increment.
		return &Result{Success: true, State: inst.Clone(), Complete: true}

	case NodeStart, NodeHuman:
		// Start nodes carry no handler. A human node is only reachable
		// here after an unconditional resume cleared its pause; the
		// administrative escape hatch advances it along the default
		// edge with no decision data.
		return r.followDefault(ctx, def, inst, action, payload, nil)

	case NodeAction:
		update, herr := r.runHandler(ctx, inst, node, action, payload)
		if herr != nil {
			return r.handlerFailed(ctx, inst, action, herr)
		}
		return r.followDefault(ctx, def, inst, action, payload, update)

	case NodeDecision:
		label, herr := r.runCondition(ctx, inst, node, action)
		if herr != nil {
			return r.handlerFailed(ctx, inst, action, herr)
		}
		edge, ok, viaNodeID := def.edgeForLabel(inst.CurrentNode, label)
		if !ok {
			return r.structural(ctx, inst, action,
				fmt.Errorf("%w: no edge from %q matching label %q", traverse.ErrNoOutgoingEdge, inst.CurrentNode, label))
		}
		if viaNodeID {
			// The condition returned a node id rather than a declared
			// edge label. Kept for compatibility with existing graphs.
			r.logger.Debug("decision label resolved as direct node id",
				slog.String("workflow", inst.Definition),
				slog.String("instance_id", inst.ID.String()),
				slog.String("node", inst.CurrentNode),
				slog.String("label", label),
			)
		}
		return r.followEdge(ctx, def, inst, edge, action, payload, nil)

	default:
		return r.structural(ctx, inst, action,
			fmt.Errorf("%w: node %q has unknown type %q", traverse.ErrNodeNotFound, inst.CurrentNode, node.Type))
	}
}

// runHandler executes an action node's handler through the middleware
// chain, passing a snapshot of the instance so the returned partial
// update stays the only write channel.
func (r *Runner) runHandler(ctx context.Context, inst *Instance, node *Node, action string, payload map[string]any) (map[string]any, error) {
	if node.Handler == nil {
		// An action node without a handler degrades to a pass-through.
		return nil, nil
	}

	snapshot := inst.Clone()
	var update map[string]any
	err := r.executeNode(ctx, inst, node, action, func(ctx context.Context) error {
		var herr error
		update, herr = node.Handler.Handle(ctx, snapshot, payload)
		return herr
	})
	if err != nil {
		return nil, &HandlerError{Node: inst.CurrentNode, Err: err}
	}
	return update, nil
}

// runCondition evaluates a decision node's condition through the
// middleware chain. A panicking condition is equivalent to a handler
// failure.
func (r *Runner) runCondition(ctx context.Context, inst *Instance, node *Node, action string) (string, error) {
	if node.Condition == nil {
		return "", &HandlerError{Node: inst.CurrentNode, Err: errors.New("decision node has no condition")}
	}

	snapshot := inst.Clone()
	var label string
	err := r.executeNode(ctx, inst, node, action, func(context.Context) error {
		label = node.Condition.Evaluate(snapshot)
		return nil
	})
	if err != nil {
		return "", &HandlerError{Node: inst.CurrentNode, Err: err}
	}
	return label, nil
}

// executeNode wraps one piece of consumer code with scope restoration,
// the middleware chain, and a panic backstop. Panics become errors so no
// public operation ever lets one escape.
func (r *Runner) executeNode(ctx context.Context, inst *Instance, node *Node, action string, exec middleware.Handler) (err error) {
	// Restore scope into context.
	ctx = scope.Restore(ctx, inst.ScopeAppID, inst.ScopeOrgID)

	a := &middleware.Attempt{
		InstanceID: inst.ID.String(),
		Workflow:   inst.Definition,
		Node:       inst.CurrentNode,
		NodeType:   string(node.Type),
		Action:     action,
		ScopeAppID: inst.ScopeAppID,
		ScopeOrgID: inst.ScopeOrgID,
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("node execution panicked",
				slog.String("workflow", inst.Definition),
				slog.String("instance_id", inst.ID.String()),
				slog.String("node", inst.CurrentNode),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic at node %s: %v", inst.CurrentNode, rec)
		}
	}()

	if r.chain != nil {
		return r.chain(ctx, a, exec)
	}
	return exec(ctx)
}

// handlerFailed records a consumer-code failure on the instance without
// advancing the node pointer or checkpoint. The write keeps the same
// checkpoint, so a concurrent committed transition wins the race.
func (r *Runner) handlerFailed(ctx context.Context, inst *Instance, action string, herr error) *Result {
	snapshot := inst.Clone()

	inst.Error = herr.Error()
	inst.Touch()
	if err := r.store.UpdateInstance(ctx, inst, inst.Checkpoint); err != nil {
		r.logger.Error("failed to record handler error",
			slog.String("instance_id", inst.ID.String()),
			slog.String("error", err.Error()),
		)
		r.emitter.EmitTransitionFailed(ctx, snapshot, action, herr)
		return &Result{Success: false, State: snapshot, Err: herr}
	}

	r.emitter.EmitTransitionFailed(ctx, inst, action, herr)
	return &Result{Success: false, State: inst.Clone(), Err: herr}
}

// structural reports a resolution failure (missing node, dead end) with
// no instance mutation: no checkpoint increment, no history entry.
func (r *Runner) structural(ctx context.Context, inst *Instance, action string, err error) *Result {
	r.emitter.EmitTransitionFailed(ctx, inst, action, err)
	return &Result{Success: false, State: inst.Clone(), Err: err}
}

// followDefault advances along the first outgoing edge of the current
// node.
func (r *Runner) followDefault(ctx context.Context, def *Definition, inst *Instance, action string, payload, update map[string]any) *Result {
	edge, ok := def.firstEdge(inst.CurrentNode)
	if !ok {
		return r.structural(ctx, inst, action,
			fmt.Errorf("%w: from %q", traverse.ErrNoOutgoingEdge, inst.CurrentNode))
	}
	return r.followEdge(ctx, def, inst, edge, action, payload, update)
}

// followEdge validates the edge target and commits the node change.
func (r *Runner) followEdge(ctx context.Context, def *Definition, inst *Instance, edge Edge, action string, payload, update map[string]any) *Result {
	target, ok := def.Nodes[edge.To]
	if !ok {
		return r.structural(ctx, inst, action,
			fmt.Errorf("%w: edge %q -> %q", traverse.ErrTargetNodeNotFound, edge.From, edge.To))
	}
	return r.commit(ctx, inst, edge.To, target, action, payload, update)
}

// commit applies exactly one node change: merge data, move the pointer,
// bump the checkpoint, append the history record, and persist atomically
// against the checkpoint read. Entering a human node raises the pause
// flag in the same write.
func (r *Runner) commit(ctx context.Context, inst *Instance, targetID string, target *Node, action string, payload, update map[string]any) *Result {
	snapshot := inst.Clone()
	prev := inst.Checkpoint
	from := inst.CurrentNode

	if update != nil {
		inst.Data = mergeData(inst.Data, update)
	}

	inst.CurrentNode = targetID
	inst.Checkpoint = prev + 1
	inst.Paused = target.Type == NodeHuman
	inst.Error = ""
	record := Transition{
		Checkpoint: inst.Checkpoint,
		FromNode:   from,
		ToNode:     targetID,
		Action:     action,
		Payload:    copyData(payload),
		Timestamp:  time.Now().UTC(),
	}
	inst.History = append(inst.History, record)
	inst.Touch()

	if err := r.store.UpdateInstance(ctx, inst, prev); err != nil {
		return &Result{
			Success: false,
			State:   snapshot,
			Err:     fmt.Errorf("commit transition %q on instance %s: %w", action, inst.ID, err),
		}
	}

	r.emitter.EmitTransitionCompleted(ctx, inst, record)

	complete := target.Type == NodeEnd
	awaiting := target.Type == NodeHuman
	if awaiting {
		r.emitter.EmitHumanAwaited(ctx, inst)
	}
	if complete {
		r.emitter.EmitInstanceCompleted(ctx, inst)
	}

	return &Result{
		Success:       true,
		State:         inst.Clone(),
		Complete:      complete,
		AwaitingHuman: awaiting,
	}
}
