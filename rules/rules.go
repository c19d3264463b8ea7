// Package rules provides expression-driven conditions for decision nodes.
//
// Conditions are built from expr-lang expressions evaluated against an
// instance snapshot. The expression environment exposes:
//
//   - data:       the instance's data document (map[string]any)
//   - workflow:   the definition name
//   - node:       the current node id
//   - checkpoint: the instance's checkpoint counter
//
// Two forms are available. [New] builds a first-match rule list:
//
//	cond := rules.Must("unqualified",
//	    rules.Rule{When: `data.score >= 70`, Then: "qualified"},
//	    rules.Rule{When: `data.referred == true`, Then: "qualified"},
//	)
//
// [Label] builds a condition from a single expression that evaluates to
// the edge label itself:
//
//	cond := rules.MustLabel(`data.score >= 70 ? "qualified" : "unqualified"`)
package rules

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/xraph/traverse/workflow"
)

// Rule pairs a boolean expression with the edge label selected when it
// holds.
type Rule struct {
	// When is an expr boolean expression.
	When string
	// Then is the label returned when the expression is true.
	Then string
}

// Ensure both condition forms satisfy the workflow contract.
var (
	_ workflow.Condition = (*Condition)(nil)
	_ workflow.Condition = (*LabelCondition)(nil)
)

// Condition evaluates an ordered rule list against the instance: the first
// rule whose expression is true decides the label, otherwise the fallback
// is returned.
//
// Compiled programs are shared safely across goroutines; expr creates a
// fresh VM per run.
type Condition struct {
	rules    []compiledRule
	fallback string
}

type compiledRule struct {
	program *vm.Program
	then    string
}

// New compiles the rule expressions eagerly and returns the condition.
// Compilation failures surface here, not at evaluation time.
func New(fallback string, rs ...Rule) (*Condition, error) {
	c := &Condition{
		fallback: fallback,
		rules:    make([]compiledRule, 0, len(rs)),
	}
	for _, r := range rs {
		program, err := expr.Compile(r.When, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("traverse/rules: compile %q: %w", r.When, err)
		}
		c.rules = append(c.rules, compiledRule{program: program, then: r.Then})
	}
	return c, nil
}

// Must is like New but panics on compile errors. Use it for rule lists
// declared statically alongside graph definitions.
func Must(fallback string, rs ...Rule) *Condition {
	c, err := New(fallback, rs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Evaluate implements workflow.Condition. Rules that error at runtime
// (missing data keys, type mismatches) count as no-match.
func (c *Condition) Evaluate(inst *workflow.Instance) string {
	env := envFor(inst)
	for _, r := range c.rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			continue
		}
		if b, ok := out.(bool); ok && b {
			return r.then
		}
	}
	return c.fallback
}

// LabelCondition evaluates a single expression whose result is the edge
// label itself. Runtime errors or non-string results yield an empty
// label, which the decision node treats as no matching route.
type LabelCondition struct {
	program *vm.Program
}

// Label compiles an expression whose result is the edge label.
func Label(expression string) (*LabelCondition, error) {
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("traverse/rules: compile %q: %w", expression, err)
	}
	return &LabelCondition{program: program}, nil
}

// MustLabel is like Label but panics on compile errors.
func MustLabel(expression string) *LabelCondition {
	c, err := Label(expression)
	if err != nil {
		panic(err)
	}
	return c
}

// Evaluate implements workflow.Condition.
func (c *LabelCondition) Evaluate(inst *workflow.Instance) string {
	out, err := expr.Run(c.program, envFor(inst))
	if err != nil {
		return ""
	}
	s, _ := out.(string)
	return s
}

// envFor builds the expression environment from an instance snapshot.
func envFor(inst *workflow.Instance) map[string]any {
	return map[string]any{
		"data":       inst.Data,
		"workflow":   inst.Definition,
		"node":       inst.CurrentNode,
		"checkpoint": inst.Checkpoint,
	}
}
