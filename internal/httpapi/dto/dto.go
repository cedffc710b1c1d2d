// Package dto holds the wire-shape request/response structs for
// internal/httpapi, mirroring the teacher's internal/http/dto split:
// plain structs with json tags, translated to/from domain types by the
// handler layer.
package dto

import "github.com/invopop/jsonschema"

// InterviewSummary is one entry of the GET /interviews listing.
type InterviewSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InterviewConfig is the GET /interviews/{id} body: a structural summary
// of a loaded bundle. Per-question field schemas are not included here —
// spec.md §6 only calls this "interview config" without pinning a shape,
// and the detailed schema for any one question is already obtainable
// through the normal ask flow, so this endpoint stays a lightweight index
// rather than re-deriving every field's schema against no particular
// context.
type InterviewConfig struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	QuestionOrder []string          `json:"question_order"`
	StepCount     int               `json:"step_count"`
	Questions     []QuestionSummary `json:"questions"`
}

// QuestionSummary describes one question without rendering its templates.
type QuestionSummary struct {
	ID         string `json:"id"`
	FieldCount int    `json:"field_count"`
}

// StartRequest is the POST /interviews/{id} body.
type StartRequest struct {
	TargetURL      *string        `json:"target_url"`
	SubmissionID   *string        `json:"submission_id"`
	ExpirationDate *string        `json:"expiration_date"` // RFC3339; defaults per spec.md §4.8 when absent
	Context        map[string]any `json:"context"`
	Data           map[string]any `json:"data"`
}

// UpdateRequest is the POST /update JSON body. The multipart form variant
// (spec.md §6.2) carries the same two parts out of band.
type UpdateRequest struct {
	State     string         `json:"state"`
	Responses map[string]any `json:"responses"`
}

// ResultRequest is the POST /result body.
type ResultRequest struct {
	State string `json:"state"`
}

// ResultResponse is the completed state's contents.
type ResultResponse struct {
	InterviewID  string         `json:"interview_id"`
	SubmissionID string         `json:"submission_id"`
	Context      map[string]any `json:"context"`
	Data         map[string]any `json:"data"`
}

// Content is the polymorphic Ask|Exit payload embedded in an incomplete
// response, discriminated by Type.
type Content struct {
	Type        string             `json:"type"`
	Schema      *jsonschema.Schema `json:"schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
}

// Response is the shared envelope for start/update results: either
// Complete is true and TargetURL is populated, or Content carries the
// next question/exit and UpdateURL tells the client where to submit it.
type Response struct {
	Complete  bool     `json:"complete,omitempty"`
	TargetURL *string  `json:"target_url,omitempty"`
	Content   *Content `json:"content,omitempty"`
	UpdateURL string   `json:"update_url,omitempty"`
	State     string   `json:"state,omitempty"`
}

// ErrorResponse is the body of every non-2xx response except 422.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the 422 body for invalid responses.
type ValidationErrorResponse struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError is one entry of a 422 body.
type ValidationError struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}
