package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/traverse"
	"github.com/xraph/traverse/id"
)

// DecisionKind is the closed set of outcomes a human reviewer may apply
// to a parked instance.
type DecisionKind string

const (
	// DecisionApprove stamps data with status "approved".
	DecisionApprove DecisionKind = "approve"
	// DecisionReject stamps data with status "rejected".
	DecisionReject DecisionKind = "reject"
	// DecisionModify merges the reviewer's modifications without setting
	// a status; downstream conditions decide the outcome.
	DecisionModify DecisionKind = "modify"
)

// Decision is a human reviewer's verdict on an instance parked at a human
// node.
type Decision struct {
	InstanceID id.InstanceID `json:"instance_id"`
	UserID     string        `json:"user_id"`
	Decision   DecisionKind  `json:"decision"`
	Comment    string        `json:"comment,omitempty"`
	// Modifications is shallow-merged into instance data for
	// DecisionModify; ignored otherwise.
	Modifications map[string]any `json:"modifications,omitempty"`
}

// Validate reports malformed decisions before any state is touched.
func (d Decision) Validate() error {
	if d.InstanceID.IsNil() {
		return fmt.Errorf("%w: missing instance id", traverse.ErrInvalidDecision)
	}
	if d.UserID == "" {
		return fmt.Errorf("%w: missing user id", traverse.ErrInvalidDecision)
	}
	switch d.Decision {
	case DecisionApprove, DecisionReject, DecisionModify:
		return nil
	default:
		return fmt.Errorf("%w: unknown decision %q", traverse.ErrInvalidDecision, d.Decision)
	}
}

// ProcessDecision applies a human decision to an instance parked at a
// human node and advances it along the node's first outgoing edge. This
// is the normal way a paused instance resumes; the unconditional Resume
// is the administrative alternative.
//
// Outcome effects on instance data:
//   - approve: data["status"] = "approved", reviewerId recorded, audit
//     note appended to data["auditLog"]
//   - reject: data["status"] = "rejected", reviewerId recorded, audit
//     note appended
//   - modify: Modifications shallow-merged, reviewerId recorded, no
//     status field
//
// The committed history record carries action "human_<decision>".
func (r *Runner) ProcessDecision(ctx context.Context, d Decision) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	unlock := r.lock(d.InstanceID)
	defer unlock()

	inst, err := r.store.GetInstance(ctx, d.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("process decision %q: %w", d.Decision, err)
	}

	def, err := r.registry.Get(inst.Definition)
	if err != nil {
		return &Result{Success: false, State: inst.Clone(), Err: err}, nil
	}

	node, ok := def.Nodes[inst.CurrentNode]
	if !ok || node.Type != NodeHuman {
		return &Result{
			Success: false,
			State:   inst.Clone(),
			Err: fmt.Errorf("%w: instance %s is at node %q",
				traverse.ErrNotAwaitingHuman, inst.ID, inst.CurrentNode),
		}, nil
	}

	update := r.decisionUpdate(inst, d)

	edge, ok := def.firstEdge(inst.CurrentNode)
	if !ok {
		return r.structural(ctx, inst, actionFor(d.Decision),
			fmt.Errorf("%w: from human node %q", traverse.ErrNoOutgoingEdge, inst.CurrentNode)), nil
	}
	target, ok := def.Nodes[edge.To]
	if !ok {
		return r.structural(ctx, inst, actionFor(d.Decision),
			fmt.Errorf("%w: edge %q -> %q", traverse.ErrTargetNodeNotFound, edge.From, edge.To)), nil
	}

	payload := map[string]any{
		"userId":   d.UserID,
		"decision": string(d.Decision),
	}
	if d.Comment != "" {
		payload["comment"] = d.Comment
	}

	res := r.commit(ctx, inst, edge.To, target, actionFor(d.Decision), payload, update)
	if res.Success {
		r.emitter.EmitDecisionApplied(ctx, inst, d)
	}
	return res, nil
}

// decisionUpdate builds the partial data update a decision applies.
func (r *Runner) decisionUpdate(inst *Instance, d Decision) map[string]any {
	update := map[string]any{}

	switch d.Decision {
	case DecisionApprove:
		update["status"] = "approved"
	case DecisionReject:
		update["status"] = "rejected"
	case DecisionModify:
		for k, v := range d.Modifications {
			update[k] = v
		}
	}
	update["reviewerId"] = d.UserID

	if d.Decision == DecisionApprove || d.Decision == DecisionReject {
		update["auditLog"] = appendAuditNote(inst.Data, auditNote{
			ID:       id.NewDecisionID().String(),
			Decision: string(d.Decision),
			Reviewer: d.UserID,
			Comment:  d.Comment,
			At:       time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	return update
}

// auditNote is the record appended to data["auditLog"] for approve and
// reject decisions.
type auditNote struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
	Reviewer string `json:"reviewerId"`
	Comment  string `json:"comment,omitempty"`
	At       string `json:"at"`
}

// appendAuditNote copies the existing audit log (if any) and appends the
// note as a plain map so the data document stays JSON-shaped regardless
// of store backend.
func appendAuditNote(data map[string]any, note auditNote) []any {
	var log []any
	if existing, ok := data["auditLog"].([]any); ok {
		log = append(log, existing...)
	}
	entry := map[string]any{
		"id":         note.ID,
		"decision":   note.Decision,
		"reviewerId": note.Reviewer,
		"at":         note.At,
	}
	if note.Comment != "" {
		entry["comment"] = note.Comment
	}
	return append(log, entry)
}

// actionFor names the history action for a decision kind.
func actionFor(kind DecisionKind) string {
	return "human_" + string(kind)
}
