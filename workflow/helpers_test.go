package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/xraph/traverse/store/memory"
	"github.com/xraph/traverse/workflow"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRunnerWithStore creates a runner using an explicit store.
func newTestRunnerWithStore(s *memory.Store, opts ...workflow.RunnerOption) (*workflow.Runner, *workflow.Registry) {
	reg := workflow.NewRegistry()
	runner := workflow.NewRunner(reg, s, noopEmitter{}, testLogger(), opts...)
	return runner, reg
}

// scoreOf reads the lead score from instance data. Data maps come back
// from JSON-backed stores with float64 numbers, so both int and float64
// are accepted.
func scoreOf(inst *workflow.Instance) int {
	switch v := inst.Data["score"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// leadDef returns the lead qualification graph used across tests:
//
//	start → score → check → auto_qualify    (score ≥ 70)
//	                      → auto_disqualify (score < 30)
//	                      → human_review    (otherwise) → auto_disqualify
func leadDef() *workflow.Definition {
	return &workflow.Definition{
		Name:    "lead_qualification",
		Version: 1,
		Nodes: map[string]*workflow.Node{
			"start": {ID: "start", Type: workflow.NodeStart},
			"score": {ID: "score", Type: workflow.NodeAction, Handler: workflow.HandlerFunc(
				func(_ context.Context, _ *workflow.Instance, payload map[string]any) (map[string]any, error) {
					return map[string]any{"score": payload["score"]}, nil
				})},
			"check": {ID: "check", Type: workflow.NodeDecision, Condition: workflow.ConditionFunc(
				func(inst *workflow.Instance) string {
					switch s := scoreOf(inst); {
					case s >= 70:
						return "auto_qualify"
					case s < 30:
						return "auto_disqualify"
					default:
						return "human_review"
					}
				})},
			"human_review":    {ID: "human_review", Type: workflow.NodeHuman, Timeout: 48 * time.Hour},
			"auto_qualify":    {ID: "auto_qualify", Type: workflow.NodeEnd},
			"auto_disqualify": {ID: "auto_disqualify", Type: workflow.NodeEnd},
		},
		Edges: []workflow.Edge{
			{From: "start", To: "score"},
			{From: "score", To: "check"},
			{From: "check", To: "auto_qualify", Label: "auto_qualify"},
			{From: "check", To: "auto_disqualify", Label: "auto_disqualify"},
			{From: "check", To: "human_review", Label: "human_review"},
			{From: "human_review", To: "auto_disqualify"},
		},
		InitialState: func() map[string]any {
			return map[string]any{"source": "inbound"}
		},
	}
}

// parkAtHumanReview creates a lead qualification instance and drives it to
// the human_review node (score 50 takes the review branch).
func parkAtHumanReview(ctx context.Context, runner *workflow.Runner) (*workflow.Instance, error) {
	inst, err := runner.Create(ctx, "lead_qualification", nil)
	if err != nil {
		return nil, err
	}
	for _, payload := range []map[string]any{nil, {"score": 50}, nil} {
		res, err := runner.Transition(ctx, inst.ID, "submit", payload)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, res.Err
		}
		inst = res.State
	}
	return inst, nil
}
