// Package traverse provides a composable, persistable workflow state-machine
// engine for Go. It drives business processes through typed graph nodes,
// conditional branching, and human-in-the-loop approval gates.
//
// Traverse is designed as a library, not a service. Import it, configure a
// store, register workflow definitions as graphs of ordinary Go handlers,
// and advance instances one transition at a time.
//
// # Quick Start
//
//	tr, err := traverse.New(
//	    traverse.WithStore(pgStore),
//	    traverse.WithLogger(logger),
//	)
//
// # Architecture
//
// Traverse follows a composable store pattern: the workflow subsystem
// defines its own store interface and a single backend implements it
// together with lifecycle operations (Migrate, Ping, Close). The engine
// package wires registry, runner, extensions, and middleware together.
//
// All entity IDs use TypeID, type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package traverse
