package workflow

import (
	"context"
	"encoding/json"
	"fmt"
)

// Create starts a new instance with a typed initial payload. The input
// is JSON round-tripped into the instance data map, so it must marshal
// to a JSON object.
func Create[T any](ctx context.Context, r *Runner, workflow string, input T) (*Instance, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input for workflow %q: %w", workflow, err)
	}

	var overrides map[string]any
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("input for workflow %q is not a JSON object: %w", workflow, err)
	}

	return r.Create(ctx, workflow, overrides)
}

// DataAs decodes an instance's data map into a typed struct. Fields
// absent from the data map keep their zero values.
func DataAs[T any](inst *Instance) (T, error) {
	var out T

	raw, err := json.Marshal(inst.Data)
	if err != nil {
		return out, fmt.Errorf("marshal data for instance %s: %w", inst.ID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode data for instance %s: %w", inst.ID, err)
	}
	return out, nil
}
