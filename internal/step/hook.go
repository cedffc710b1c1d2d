package step

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Hook posts the interview's unstructured state to an external URL. A 204
// means no change; a 200 carries a replacement state (and optional
// content) in its body; any other status is fatal.
type Hook struct {
	Guards []tmpl.Expression
	URL    string
	Client *http.Client
}

func (h *Hook) When() []tmpl.Expression { return h.Guards }

// hookPayload is the wire shape posted to, and read back from, a Hook
// step's URL.
type hookPayload struct {
	InterviewID         string         `json:"interview_id"`
	SubmissionID        string         `json:"submission_id"`
	ExpirationDate      string         `json:"expiration_date"`
	Complete            bool           `json:"complete"`
	Context             map[string]any `json:"context"`
	Data                map[string]any `json:"data"`
	AnsweredQuestionIDs []string       `json:"answered_question_ids"`
	QuestionID          *string        `json:"question_id"`
	TargetURL           *string        `json:"target_url,omitempty"`
}

type hookResponseBody struct {
	State   hookPayload `json:"state"`
	Content any         `json:"content,omitempty"`
}

func toHookPayload(s *state.InterviewState) hookPayload {
	answered := make([]string, 0, len(s.AnsweredQuestionIDs))
	for id := range s.AnsweredQuestionIDs {
		answered = append(answered, id)
	}
	return hookPayload{
		InterviewID:         s.InterviewID,
		SubmissionID:        s.SubmissionID.String(),
		ExpirationDate:      s.ExpirationDate.Format("2006-01-02T15:04:05Z07:00"),
		Complete:            s.Complete,
		Context:             s.Context,
		Data:                s.Data,
		AnsweredQuestionIDs: answered,
		QuestionID:          s.QuestionID,
		TargetURL:           s.TargetURL,
	}
}

func (h *Hook) Handle(ctx context.Context, s *state.InterviewState) (Result, error) {
	body, err := json.Marshal(toHookPayload(s))
	if err != nil {
		return Result{}, fmt.Errorf("marshal hook payload: %w", err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, &ierr.Hook{URL: h.URL, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, &ierr.Hook{URL: h.URL, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return Result{State: s, Changed: false}, nil
	case http.StatusOK:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, &ierr.Hook{URL: h.URL, StatusCode: resp.StatusCode, Reason: "reading body: " + err.Error()}
		}
		var parsed hookResponseBody
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return Result{}, &ierr.Hook{URL: h.URL, StatusCode: resp.StatusCode, Reason: "malformed response body: " + err.Error()}
		}
		next, err := fromHookPayload(s, parsed.State)
		if err != nil {
			return Result{}, &ierr.Hook{URL: h.URL, StatusCode: resp.StatusCode, Reason: err.Error()}
		}
		return Result{State: next, Changed: true, Content: parsed.Content}, nil
	default:
		return Result{}, &ierr.Hook{URL: h.URL, StatusCode: resp.StatusCode, Reason: "unexpected status"}
	}
}

func fromHookPayload(prev *state.InterviewState, p hookPayload) (*state.InterviewState, error) {
	expiration, err := parseHookTime(p.ExpirationDate, prev.ExpirationDate)
	if err != nil {
		return nil, err
	}
	answered := make(map[string]struct{}, len(p.AnsweredQuestionIDs))
	for _, id := range p.AnsweredQuestionIDs {
		answered[id] = struct{}{}
	}
	return &state.InterviewState{
		InterviewID:         firstNonEmpty(p.InterviewID, prev.InterviewID),
		SubmissionID:        prev.SubmissionID,
		ExpirationDate:      expiration,
		Complete:            p.Complete,
		Context:             p.Context,
		Data:                p.Data,
		AnsweredQuestionIDs: answered,
		QuestionID:          p.QuestionID,
		TargetURL:           firstNonEmptyPtr(p.TargetURL, prev.TargetURL),
	}, nil
}

func firstNonEmptyPtr(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func parseHookTime(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration_date in hook response: %w", err)
	}
	return t, nil
}
