package step

import (
	"context"

	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Ask asks its question once per interview: if AskID is already in
// AnsweredQuestionIDs it reports no change, otherwise it renders the
// question's schema and marks it outstanding.
type Ask struct {
	Guards   []tmpl.Expression
	AskID    string
	Question *question.Question
}

func (a *Ask) When() []tmpl.Expression { return a.Guards }

func (a *Ask) Handle(_ context.Context, s *state.InterviewState) (Result, error) {
	if s.Answered(a.AskID) {
		return Result{State: s, Changed: false}, nil
	}
	schema, err := a.Question.GetSchema(s.MergedContext())
	if err != nil {
		return Result{}, err
	}
	next := s.WithQuestion(a.AskID)
	return Result{
		State:   next,
		Changed: true,
		Content: &AskResult{QuestionID: a.AskID, Schema: schema},
	}, nil
}
