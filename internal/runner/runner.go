// Package runner implements the outer interview driver from spec.md §4.7:
// apply a pending response (if any), then iterate the step loop until
// either content is produced or no step reports a change, resolving and
// asking a question whenever an Undefined locator surfaces. Grounded on
// the teacher's internal/pipeline.Pipeline.Process(ctx, issue, events)
// driver shape (a fixed orchestration entry point calling into
// sub-components and returning an updated domain object), generalized to
// the ask/resolve loop below.
package runner

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/resolver"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/step"
)

// Runner drives one Interview's step program against a state.
type Runner struct {
	Interview *interview.Interview
}

// New builds a Runner bound to iv.
func New(iv *interview.Interview) *Runner {
	return &Runner{Interview: iv}
}

// AskContent mirrors step.AskResult but with the schema already resolved
// for the question the runner picked — returned to the HTTP layer so it
// never has to reach back into internal/step.
type AskContent struct {
	QuestionID string
	Schema     *jsonschema.Schema
}

// ExitContent mirrors step.ExitResult, for the same reason.
type ExitContent struct {
	Title       string
	Description *string
}

// Run implements spec.md §4.7. responses is nil on an interview's first
// step (no question outstanding yet); otherwise it is the raw
// `{field_0: ..., field_1: ...}` payload for state.QuestionID.
//
// It never mutates s — every returned state is a fresh copy-on-write
// value — and it raises *ierr.InvalidInput on a bad response,
// *ierr.Interview on misconfiguration, and propagates any other step
// error (e.g. *ierr.Hook) unchanged. Undefined is the only error it
// swallows, converting it into a resolved question.
func (r *Runner) Run(ctx context.Context, s *state.InterviewState, responses map[string]any) (*state.InterviewState, any, error) {
	if s.QuestionID != nil {
		applied, err := r.applyResponse(s, responses)
		if err != nil {
			return nil, nil, err
		}
		s = applied
	}

	for {
		res, err := step.HandleSteps(ctx, s, r.Interview.Steps)
		if err != nil {
			var undef *ierr.Undefined
			if errors.As(err, &undef) {
				loc, ok := undef.Loc.(locator.Locator)
				if !ok {
					return nil, nil, err
				}
				return r.ask(s, loc)
			}
			return nil, nil, err
		}

		if res.Changed {
			if res.Content != nil {
				return r.translate(res.State, res.Content)
			}
			s = res.State
			continue
		}

		return s.Completed(), nil, nil
	}
}

// translate converts step.AskResult/step.ExitResult into our own content
// types so callers (the HTTP layer) never need to import internal/step.
func (r *Runner) translate(s *state.InterviewState, content any) (*state.InterviewState, any, error) {
	switch c := content.(type) {
	case *step.AskResult:
		return s, &AskContent{QuestionID: c.QuestionID, Schema: c.Schema}, nil
	case *step.ExitResult:
		return s, &ExitContent{Title: c.Title, Description: c.Description}, nil
	default:
		return s, content, nil
	}
}

// ask resolves loc to a question, marks it outstanding (exactly like an
// Ask step would) and returns the question for the caller to present.
func (r *Runner) ask(s *state.InterviewState, loc locator.Locator) (*state.InterviewState, any, error) {
	qid, schema, err := resolver.Resolve(r.Interview, s, loc)
	if err != nil {
		return nil, nil, err
	}
	next := s.WithQuestion(qid)
	return next, &AskContent{QuestionID: qid, Schema: schema}, nil
}

// applyResponse parses responses through the outstanding question and
// writes the resulting assignments into a deep copy of Data. A response
// targeting a locator whose parent collection doesn't exist yet surfaces
// as *ierr.Interview (collections are never auto-created).
func (r *Runner) applyResponse(s *state.InterviewState, responses map[string]any) (*state.InterviewState, error) {
	q, ok := r.Interview.Question(*s.QuestionID)
	if !ok {
		return nil, &ierr.Interview{Msg: "outstanding question id " + *s.QuestionID + " not found in interview"}
	}

	assignments, err := q.ParseResponse(responses)
	if err != nil {
		return nil, err
	}

	dataCopy, _ := state.DeepCopyData(s.Data).(map[string]any)
	for loc, val := range assignments {
		if err := loc.Set(val, dataCopy); err != nil {
			return nil, err
		}
	}
	return s.WithData(dataCopy).WithQuestionCleared(), nil
}
