package step

import (
	"context"

	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Eval force-evaluates one or more expressions without ever changing
// state. Its only purpose is to trigger the Undefined error that the
// runner turns into a question — useful to ask for a variable that no
// other step happens to reference yet.
type Eval struct {
	Guards []tmpl.Expression
	Exprs  []tmpl.Expression
}

func (e *Eval) When() []tmpl.Expression { return e.Guards }

func (e *Eval) Handle(_ context.Context, s *state.InterviewState) (Result, error) {
	ctx := s.MergedContext()
	for _, expr := range e.Exprs {
		if _, err := expr.Evaluate(ctx); err != nil {
			return Result{}, err
		}
	}
	return Result{State: s, Changed: false}, nil
}
