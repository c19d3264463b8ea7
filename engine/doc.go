// Package engine wires the Traverse subsystems together and provides
// the primary application-level API for registering workflow definitions
// and creating instances.
//
// The engine package exists to break a fundamental import cycle: the root
// traverse package defines Entity (imported by workflow, ext, etc.) and
// therefore cannot import those packages back. Engine sits above all
// subsystem packages and below the application layer.
//
// # Building an Engine
//
//	tr, err := traverse.New(
//	    traverse.WithStore(pgStore),
//	    traverse.WithWatcherInterval(10*time.Second),
//	)
//
//	eng, err := engine.Build(tr,
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(myMiddleware),
//	    engine.WithWatcher(func(ctx context.Context, inst *workflow.Instance, node *workflow.Node) {
//	        // notify, reassign, or cancel overdue reviews
//	    }),
//	)
//
// # Registering Definitions
//
//	err := eng.Register(&workflow.Definition{
//	    Name:  "lead_qualification",
//	    Nodes: map[string]*workflow.Node{ /* ... */ },
//	    Edges: []workflow.Edge{ /* ... */ },
//	})
//
// # Creating and Driving Instances
//
//	inst, err := engine.Create(ctx, eng, "lead_qualification", LeadInput{
//	    Company: "Acme",
//	    Score:   82,
//	})
//
//	res, err := eng.Runner().Transition(ctx, inst.ID, "submit", nil)
//
// Human decisions, pause/resume/cancel, and queries go through the same
// runner:
//
//	res, err = eng.Runner().ProcessDecision(ctx, workflow.Decision{
//	    InstanceID: inst.ID,
//	    UserID:     "u_17",
//	    Decision:   workflow.DecisionApprove,
//	})
//
// # Default Middleware Stack
//
// Build installs recover → tracing → metrics → logging → scope around
// every node execution. WithMiddleware appends after these; WithNodeTimeout
// bounds handlers with a deadline.
package engine
