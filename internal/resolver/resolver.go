// Package resolver implements spec.md §4.6: given a locator an Eval or Set
// step found undefined, pick the question that provides it. Grounded on
// the teacher's internal/retriever package family (select a candidate from
// a filtered, ordered list), generalized from "retrieve matching code
// context" to "select the question that provides a missing locator."
package resolver

import (
	"errors"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Resolve implements the five-step filter from spec.md §4.6:
//  1. enumerate questions in declared order
//  2. drop already-answered ones
//  3. drop ones whose `when` isn't truthy (an Undefined while evaluating
//     `when` recurses the whole search onto that locator instead)
//  4. drop ones with no field targeting missing (via Compare, not Equal,
//     so a ParamIndex side is reduced against ctx first)
//  5. take the first survivor, rendering its schema; an Undefined hit while
//     rendering (e.g. its title template references another missing
//     variable) recurses the search onto that locator too.
//
// Returns the chosen question's id and its rendered schema, or
// *ierr.Interview if nothing provides missing.
func Resolve(iv *interview.Interview, s *state.InterviewState, missing locator.Locator) (string, *jsonschema.Schema, error) {
	ctx := s.MergedContext()

	for _, id := range iv.QuestionOrder {
		if s.Answered(id) {
			continue
		}
		q := iv.Questions[id]

		ok, err := whenSatisfied(q, ctx)
		if err != nil {
			if inner, isUndef := asLocator(err); isUndef {
				return Resolve(iv, s, inner)
			}
			return "", nil, err
		}
		if !ok {
			continue
		}

		if !provides(q, missing, ctx) {
			continue
		}

		schema, err := q.GetSchema(ctx)
		if err != nil {
			if inner, isUndef := asLocator(err); isUndef {
				return Resolve(iv, s, inner)
			}
			return "", nil, err
		}
		return id, schema, nil
	}

	return "", nil, &ierr.Interview{Msg: "no question providing " + missing.String()}
}

// whenSatisfied ANDs q.When together, short-circuiting on the first falsy
// expression — the same evaluation rule step.When guards use.
func whenSatisfied(q *question.Question, ctx map[string]any) (bool, error) {
	for _, expr := range q.When {
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		if !tmpl.Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// provides reports whether q has a field whose Set target compares equal
// ("in context") to missing. Fields with a nil Set (display-only,
// "collected but discarded") never provide anything.
func provides(q *question.Question, missing locator.Locator, ctx map[string]any) bool {
	for _, f := range q.Fields {
		target := f.Set()
		if target == nil {
			continue
		}
		if locator.Compare(target, missing, ctx) {
			return true
		}
	}
	return false
}

func asLocator(err error) (locator.Locator, bool) {
	var undef *ierr.Undefined
	if !errors.As(err, &undef) {
		return nil, false
	}
	loc, ok := undef.Loc.(locator.Locator)
	return loc, ok
}
