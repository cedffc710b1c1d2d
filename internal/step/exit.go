package step

import (
	"context"

	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Exit renders an abnormal terminal message. It does not mark the
// interview complete — an exit is content the client must display, not a
// successful finish.
type Exit struct {
	Guards      []tmpl.Expression
	Title       tmpl.Template
	Description tmpl.Template // nil when the step carries no description
}

func (e *Exit) When() []tmpl.Expression { return e.Guards }

func (e *Exit) Handle(_ context.Context, s *state.InterviewState) (Result, error) {
	ctx := s.MergedContext()
	title, err := e.Title.Render(ctx)
	if err != nil {
		return Result{}, err
	}
	var desc *string
	if e.Description != nil {
		d, err := e.Description.Render(ctx)
		if err != nil {
			return Result{}, err
		}
		desc = &d
	}
	return Result{
		State:   s,
		Changed: true,
		Content: &ExitResult{Title: title, Description: desc},
	}, nil
}
