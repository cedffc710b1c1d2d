// Package state implements the interview's state entity and the encrypted
// envelope that carries it between requests. The engine keeps no
// server-side session: every mutation produces a new immutable value, and
// the only persistence is the encrypted blob the client echoes back.
package state

import (
	"time"

	"github.com/google/uuid"
)

// InterviewState is immutable; every With* method returns a new value with
// the fields it names replaced (copy-on-write).
type InterviewState struct {
	InterviewID         string
	SubmissionID        uuid.UUID
	ExpirationDate      time.Time
	Complete            bool
	Context             map[string]any // client-provided, immutable for the life of the state
	Data                map[string]any // collected so far
	AnsweredQuestionIDs map[string]struct{}
	QuestionID          *string // set iff the last emitted content was a question

	// TargetURL is the client-supplied redirect echoed back verbatim in
	// the §6 "complete" response; nil when the start request left it
	// unset.
	TargetURL *string
}

// New creates a fresh state for an interview start. expiresIn defaults to
// 1800s when zero.
func New(interviewID string, ctx map[string]any, expiresIn time.Duration) *InterviewState {
	if expiresIn <= 0 {
		expiresIn = 1800 * time.Second
	}
	if ctx == nil {
		ctx = map[string]any{}
	}
	return &InterviewState{
		InterviewID:         interviewID,
		SubmissionID:        uuid.New(),
		ExpirationDate:      time.Now().Add(expiresIn),
		Context:             ctx,
		Data:                map[string]any{},
		AnsweredQuestionIDs: map[string]struct{}{},
	}
}

// MergedContext merges Data and Context for template/expression evaluation,
// with Context winning on key overlap.
func (s *InterviewState) MergedContext() map[string]any {
	merged := make(map[string]any, len(s.Data)+len(s.Context))
	for k, v := range s.Data {
		merged[k] = v
	}
	for k, v := range s.Context {
		merged[k] = v
	}
	return merged
}

// Answered reports whether id is in AnsweredQuestionIDs.
func (s *InterviewState) Answered(id string) bool {
	_, ok := s.AnsweredQuestionIDs[id]
	return ok
}

// WithData returns a copy with Data replaced.
func (s *InterviewState) WithData(data map[string]any) *InterviewState {
	next := *s
	next.Data = data
	return &next
}

// WithQuestion returns a copy with QuestionID set and id added to
// AnsweredQuestionIDs, matching the Ask step's effect.
func (s *InterviewState) WithQuestion(id string) *InterviewState {
	next := *s
	qid := id
	next.QuestionID = &qid
	next.AnsweredQuestionIDs = addAnswered(s.AnsweredQuestionIDs, id)
	return &next
}

// WithQuestionCleared returns a copy with QuestionID reset to nil, used
// once a pending response against it has been applied successfully.
func (s *InterviewState) WithQuestionCleared() *InterviewState {
	next := *s
	next.QuestionID = nil
	return &next
}

// Completed returns a copy with Complete set.
func (s *InterviewState) Completed() *InterviewState {
	next := *s
	next.Complete = true
	return &next
}

// WithTargetURL returns a copy with TargetURL set, used once at interview
// start; never mutated afterward.
func (s *InterviewState) WithTargetURL(url string) *InterviewState {
	next := *s
	if url == "" {
		next.TargetURL = nil
		return &next
	}
	next.TargetURL = &url
	return &next
}

func addAnswered(set map[string]struct{}, id string) map[string]struct{} {
	next := make(map[string]struct{}, len(set)+1)
	for k := range set {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

// DeepCopyData returns a recursive copy of Data suitable for the
// copy-on-write mutation Set steps perform.
func DeepCopyData(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopyData(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopyData(val)
		}
		return out
	default:
		return v
	}
}
