package workflow

import (
	"context"
	"time"
)

// NodeType is the closed set of node kinds a definition may contain.
// Every switch over NodeType handles all five kinds; unknown values are
// rejected at transition time.
type NodeType string

const (
	// NodeStart is the entry node of every graph. It carries no handler.
	NodeStart NodeType = "start"
	// NodeAction executes a Handler and merges its partial update into
	// instance data.
	NodeAction NodeType = "action"
	// NodeDecision evaluates a Condition and routes by edge label.
	NodeDecision NodeType = "decision"
	// NodeHuman parks the instance until a human decision arrives.
	NodeHuman NodeType = "human"
	// NodeEnd terminates the graph. Transitions on an end node are no-ops.
	NodeEnd NodeType = "end"
)

// StartNodeID is the node id every instance begins at.
const StartNodeID = "start"

// Handler executes an action node's side effect. It receives a snapshot of
// the instance and the caller-supplied payload, and returns a partial data
// update that is shallow-merged over the instance data. Returning an error
// aborts the transition without advancing the node; the error message is
// recorded on the instance and the transition may be retried.
type Handler interface {
	Handle(ctx context.Context, inst *Instance, payload map[string]any) (map[string]any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, inst *Instance, payload map[string]any) (map[string]any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, inst *Instance, payload map[string]any) (map[string]any, error) {
	return f(ctx, inst, payload)
}

// Condition selects the outgoing route for a decision node. It receives a
// snapshot of the instance and returns an edge label. Conditions must be
// pure with respect to instance data and must not panic; a panicking
// condition is treated as a handler failure.
type Condition interface {
	Evaluate(inst *Instance) string
}

// ConditionFunc adapts an ordinary function to the Condition interface.
type ConditionFunc func(inst *Instance) string

// Evaluate implements Condition.
func (f ConditionFunc) Evaluate(inst *Instance) string { return f(inst) }

// Node is a vertex in a workflow graph.
type Node struct {
	// ID is the node's identifier, unique within a definition.
	ID string `json:"id"`

	// Type determines the node's transition behavior.
	Type NodeType `json:"type"`

	// Handler runs when an action node transitions. Nil on other types.
	Handler Handler `json:"-"`

	// Condition routes a decision node. Nil on other types.
	Condition Condition `json:"-"`

	// Timeout is advisory metadata on human nodes: the maximum wait
	// before external escalation should step in. The engine never
	// enforces it; see Watcher.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Edge is a directed arc between two nodes. An empty Label marks the
// default route taken by non-decision nodes; labeled edges are selected by
// a decision node's condition output.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}
