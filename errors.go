package traverse

import "errors"

var (
	// Store errors.
	ErrNoStore            = errors.New("traverse: no store configured")
	ErrStoreClosed        = errors.New("traverse: store closed")
	ErrMigrationFailed    = errors.New("traverse: migration failed")
	ErrCheckpointConflict = errors.New("traverse: checkpoint conflict")
	ErrInstanceExists     = errors.New("traverse: instance already exists")

	// Not found errors.
	ErrInstanceNotFound   = errors.New("traverse: workflow instance not found")
	ErrNodeNotFound       = errors.New("traverse: current node not found in definition")
	ErrTargetNodeNotFound = errors.New("traverse: target node not found in definition")
	ErrNoOutgoingEdge     = errors.New("traverse: no outgoing edge")

	// Registry errors.
	ErrAlreadyRegistered = errors.New("traverse: definition already registered")
	ErrNotRegistered     = errors.New("traverse: definition not registered")

	// State errors.
	ErrWorkflowPaused    = errors.New("traverse: workflow paused")
	ErrNotAwaitingHuman  = errors.New("traverse: instance not awaiting human input")
	ErrInvalidDecision   = errors.New("traverse: invalid decision")
	ErrInvalidDefinition = errors.New("traverse: invalid definition")
)
