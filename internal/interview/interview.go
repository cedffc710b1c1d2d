// Package interview holds the Interview aggregate: a configured
// questionnaire of questions (indexed by id) and an ordered step program.
// It has no opinion about where the configuration came from — that is
// internal/config's job — so both internal/runner and internal/resolver
// can depend on it without pulling in a YAML parser.
package interview

import (
	"fmt"

	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/step"
)

// Interview is immutable once loaded.
type Interview struct {
	ID    string
	Title string

	// QuestionOrder preserves declaration order, which §4.6 of the
	// resolver contract relies on ("enumerate interview questions in
	// declared order").
	QuestionOrder []string
	Questions     map[string]*question.Question

	Steps []step.Step
}

// New builds an Interview from an ordered question list and validates the
// uniqueness invariant from spec.md §3 ("Question ids unique").
func New(id, title string, questions []*question.Question, steps []step.Step) (*Interview, error) {
	order := make([]string, 0, len(questions))
	byID := make(map[string]*question.Question, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		byID[q.ID] = q
		order = append(order, q.ID)
	}
	return &Interview{
		ID:            id,
		Title:         title,
		QuestionOrder: order,
		Questions:     byID,
		Steps:         steps,
	}, nil
}

// Question looks up a question by id.
func (iv *Interview) Question(id string) (*question.Question, bool) {
	q, ok := iv.Questions[id]
	return q, ok
}
