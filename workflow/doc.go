// Package workflow defines workflow graphs, their running instances,
// the transition engine that advances them, and the instance store
// interface.
//
// A workflow is a directed graph of typed nodes. Instances advance one
// edge at a time: each successful transition commits exactly one history
// entry and bumps the instance checkpoint by one. Instances parked at a
// human node stay paused until a reviewer decision or an administrative
// resume moves them on.
//
// # Defining a Workflow
//
//	def := &workflow.Definition{
//	    Name:    "lead_qualification",
//	    Version: 1,
//	    Nodes: map[string]*workflow.Node{
//	        "start": {ID: "start", Type: workflow.NodeStart},
//	        "score": {ID: "score", Type: workflow.NodeAction, Handler: scoreLead},
//	        "check": {ID: "check", Type: workflow.NodeDecision, Condition: checkScore},
//	        "human_review": {ID: "human_review", Type: workflow.NodeHuman, Timeout: 48 * time.Hour},
//	        "auto_qualify": {ID: "auto_qualify", Type: workflow.NodeEnd},
//	        "auto_disqualify": {ID: "auto_disqualify", Type: workflow.NodeEnd},
//	    },
//	    Edges: []workflow.Edge{
//	        {From: "start", To: "score"},
//	        {From: "check", To: "auto_qualify", Label: "qualified"},
//	        {From: "check", To: "auto_disqualify", Label: "disqualified"},
//	        {From: "check", To: "human_review", Label: "review"},
//	        {From: "human_review", To: "auto_disqualify"},
//	        {From: "score", To: "check"},
//	    },
//	    InitialState: func() map[string]any { return map[string]any{"source": "inbound"} },
//	}
//
// Edge order matters: nodes that advance without a decision (start,
// action, human) follow the first edge leaving them.
//
// # Advancing an Instance
//
// The [Runner] is the only way to move an instance:
//
//	inst, err := runner.Create(ctx, "lead_qualification", map[string]any{"email": lead.Email})
//	res, err := runner.Transition(ctx, inst.ID, "submit", map[string]any{"score": 80})
//
// Transition returns a [Result] carrying the best-known instance state
// whether or not the step succeeded. Handler failures record the error
// on the instance without advancing it; the same transition can be
// retried once the underlying cause is fixed.
//
// # Human Nodes
//
// Entering a human node pauses the instance in the same commit. A
// paused instance rejects transitions until a reviewer decides:
//
//	res, err := runner.ProcessDecision(ctx, &workflow.Decision{
//	    InstanceID: inst.ID,
//	    UserID:     "u1",
//	    Decision:   workflow.DecisionApprove,
//	})
//
// Approve and reject stamp a status and an audit note into the data
// map; modify merges reviewer edits without recording either. All
// three clear the pause and advance along the node's first edge.
//
// # Checkpoints
//
// Every committed transition increments [Instance.Checkpoint] by
// exactly one, and the store rejects stale writes, so two concurrent
// transitions on the same instance cannot both commit.
//
// # Key Types
//
//   - [Definition] — immutable graph of nodes and edges
//   - [Instance] — one execution: current node, data, history
//   - [Runner] — creates instances and drives transitions
//   - [Result] — outcome of a transition or decision
//   - [Decision] — reviewer verdict for a paused instance
//   - [Registry] — maps workflow names to registered definitions
//   - [Watcher] — escalates instances that outwait a human node Timeout
package workflow
