package step

import (
	"context"
	"reflect"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Set writes a computed value at a locator. It writes into a deep copy of
// the state's Data only — Context is client-provided and never mutated.
// A write through an undefined target prefix (a missing parent collection)
// surfaces as whatever error the locator's own Set reports: an
// *ierr.Interview, since collections are never auto-created.
type Set struct {
	Guards []tmpl.Expression
	Target locator.Locator
	Value  tmpl.Expression
}

func (st *Set) When() []tmpl.Expression { return st.Guards }

func (st *Set) Handle(_ context.Context, s *state.InterviewState) (Result, error) {
	ctx := s.MergedContext()
	val, err := st.Value.Evaluate(ctx)
	if err != nil {
		return Result{}, err
	}

	if current, currErr := st.Target.Evaluate(ctx); currErr == nil && reflect.DeepEqual(current, val) {
		return Result{State: s, Changed: false}, nil
	}

	dataCopy, _ := state.DeepCopyData(s.Data).(map[string]any)
	if err := st.Target.Set(val, dataCopy); err != nil {
		return Result{}, err
	}
	return Result{State: s.WithData(dataCopy), Changed: true}, nil
}
