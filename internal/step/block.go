package step

import (
	"context"

	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Block delegates to HandleSteps over its nested steps, propagating the
// first Changed=true result exactly like the top-level step loop.
type Block struct {
	Guards []tmpl.Expression
	Steps  []Step
}

func (b *Block) When() []tmpl.Expression { return b.Guards }

func (b *Block) Handle(ctx context.Context, s *state.InterviewState) (Result, error) {
	return HandleSteps(ctx, s, b.Steps)
}
