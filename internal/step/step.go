// Package step implements the six step kinds that make up an interview's
// control flow: Ask, Set, Eval, Exit, Block and Hook. Every step is gated
// by a `when` guard (a sequence of expressions ANDed together); an
// undefined variable encountered while evaluating `when` propagates out
// exactly like one encountered inside Handle, since the runner needs to
// turn either into a question.
package step

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Step is one node of an interview's step list.
type Step interface {
	// When returns the guard expressions, ANDed together. A nil or empty
	// slice means the step always runs.
	When() []tmpl.Expression
	// Handle executes the step against s, which Handle must not mutate in
	// place — it returns a replacement state on any change.
	Handle(ctx context.Context, s *state.InterviewState) (Result, error)
}

// Result is the outcome of handling one step.
type Result struct {
	State   *state.InterviewState
	Changed bool
	Content any // *AskResult, *ExitResult, a Hook response's decoded `content`, or nil
}

// AskResult is the content returned when an Ask step asks its question.
type AskResult struct {
	QuestionID string
	Schema     *jsonschema.Schema
}

// ExitResult is the content returned when an Exit step fires.
type ExitResult struct {
	Title       string
	Description *string
}

// evalWhen evaluates guard expressions in order, short-circuiting on the
// first falsy result. An error from any expression (including Undefined)
// propagates immediately — it is never treated as "false".
func evalWhen(guards []tmpl.Expression, ctx map[string]any) (bool, error) {
	for _, g := range guards {
		v, err := g.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		if !tmpl.Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// HandleSteps iterates steps in declared order. The first step whose
// `when` is truthy and which reports Changed=true terminates the pass;
// steps whose `when` is falsy are skipped silently. Block delegates to
// this same function over its nested steps.
func HandleSteps(ctx context.Context, s *state.InterviewState, steps []Step) (Result, error) {
	for _, st := range steps {
		ok, err := evalWhen(st.When(), s.MergedContext())
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		res, err := st.Handle(ctx, s)
		if err != nil {
			return Result{}, err
		}
		if res.Changed {
			return res, nil
		}
		s = res.State
	}
	return Result{State: s, Changed: false}, nil
}
