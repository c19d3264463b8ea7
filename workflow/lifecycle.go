package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
)

// CancelledError is the error message recorded on cancelled instances.
// Consumers recognize cancellation by checking Instance.Error for it.
const CancelledError = "Workflow cancelled"

// Pause sets the pause flag unconditionally, regardless of current node
// type. Paused instances reject transitions until resumed.
func (r *Runner) Pause(ctx context.Context, instID id.InstanceID) error {
	unlock := r.lock(instID)
	defer unlock()

	inst, err := r.store.GetInstance(ctx, instID)
	if err != nil {
		return fmt.Errorf("pause instance %s: %w", instID, err)
	}
	if inst.Paused {
		return nil
	}

	inst.Paused = true
	inst.Touch()
	if err := r.store.UpdateInstance(ctx, inst, inst.Checkpoint); err != nil {
		return fmt.Errorf("pause instance %s: %w", instID, err)
	}

	r.emitter.EmitInstancePaused(ctx, inst)
	return nil
}

// Resume clears the pause flag unconditionally. Resuming an instance
// parked at a human node without going through ProcessDecision is an
// intentional administrative escape hatch: the next Transition takes the
// human node's default edge with no decision data applied, and nothing in
// the record distinguishes that from a normal flow.
func (r *Runner) Resume(ctx context.Context, instID id.InstanceID) error {
	unlock := r.lock(instID)
	defer unlock()

	inst, err := r.store.GetInstance(ctx, instID)
	if err != nil {
		return fmt.Errorf("resume instance %s: %w", instID, err)
	}
	if !inst.Paused {
		return nil
	}

	inst.Paused = false
	inst.Touch()
	if err := r.store.UpdateInstance(ctx, inst, inst.Checkpoint); err != nil {
		return fmt.Errorf("resume instance %s: %w", instID, err)
	}

	r.emitter.EmitInstanceResumed(ctx, inst)
	return nil
}

// Cancel parks the instance permanently: the error field records the
// cancellation and the pause flag blocks future transitions. The instance
// is neither deleted nor marked complete; consumers recognize the state
// by checking Error.
func (r *Runner) Cancel(ctx context.Context, instID id.InstanceID) error {
	unlock := r.lock(instID)
	defer unlock()

	inst, err := r.store.GetInstance(ctx, instID)
	if err != nil {
		return fmt.Errorf("cancel instance %s: %w", instID, err)
	}

	inst.Error = CancelledError
	inst.Paused = true
	inst.Touch()
	if err := r.store.UpdateInstance(ctx, inst, inst.Checkpoint); err != nil {
		return fmt.Errorf("cancel instance %s: %w", instID, err)
	}

	r.emitter.EmitInstanceCancelled(ctx, inst)
	return nil
}

// GetState returns a copy of the instance, or nil when no instance with
// that id exists. A missing instance is not an error; only store I/O
// failures are reported.
func (r *Runner) GetState(ctx context.Context, instID id.InstanceID) (*Instance, error) {
	inst, err := r.store.GetInstance(ctx, instID)
	if err != nil {
		if errors.Is(err, traverse.ErrInstanceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get state of instance %s: %w", instID, err)
	}
	return inst, nil
}

// List returns instances matching the query. A zero Limit falls back to
// the runner's default page size; a negative Offset is treated as zero.
func (r *Runner) List(ctx context.Context, q Query) ([]*Instance, error) {
	if q.Limit <= 0 {
		q.Limit = r.limit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	instances, err := r.store.ListInstances(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return instances, nil
}
