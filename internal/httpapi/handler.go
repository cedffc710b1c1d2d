package httpapi

import (
	"bytes"
	"context"
	"encoding/ascii85"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loopfield/interview-engine/common/logger"
	"github.com/loopfield/interview-engine/internal/httpapi/dto"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/runner"
	"github.com/loopfield/interview-engine/internal/state"
)

// Handler implements the five endpoints of spec.md §6, delegating every
// piece of interview logic to internal/state and internal/runner.
type Handler struct {
	svc *Service
}

// NewHandler builds a Handler bound to svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListInterviews serves GET /interviews.
func (h *Handler) ListInterviews(c *gin.Context) {
	out := make([]dto.InterviewSummary, 0, len(h.svc.Order))
	for _, id := range h.svc.Order {
		iv := h.svc.Interviews[id]
		out = append(out, dto.InterviewSummary{ID: iv.ID, Title: iv.Title})
	}
	c.JSON(http.StatusOK, out)
}

// GetInterview serves GET /interviews/{id}.
func (h *Handler) GetInterview(c *gin.Context) {
	iv, ok := h.svc.Interviews[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "interview not found"})
		return
	}
	questions := make([]dto.QuestionSummary, 0, len(iv.QuestionOrder))
	for _, qid := range iv.QuestionOrder {
		q := iv.Questions[qid]
		questions = append(questions, dto.QuestionSummary{ID: q.ID, FieldCount: len(q.Fields)})
	}
	c.JSON(http.StatusOK, dto.InterviewConfig{
		ID:            iv.ID,
		Title:         iv.Title,
		QuestionOrder: iv.QuestionOrder,
		StepCount:     len(iv.Steps),
		Questions:     questions,
	})
}

// StartInterview serves POST /interviews/{id}.
func (h *Handler) StartInterview(c *gin.Context) {
	iv, ok := h.svc.Interviews[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "interview not found"})
		return
	}

	var req dto.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}

	var expiresIn time.Duration
	if req.ExpirationDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpirationDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid expiration_date"})
			return
		}
		expiresIn = time.Until(t)
	}

	s := state.New(iv.ID, req.Context, expiresIn)
	if req.Data != nil {
		s = s.WithData(req.Data)
	}
	if req.SubmissionID != nil {
		if parsed, err := uuid.Parse(*req.SubmissionID); err == nil {
			s.SubmissionID = parsed
		}
	}
	if req.TargetURL != nil {
		s = s.WithTargetURL(*req.TargetURL)
	}

	ctx := h.requestContext(c, s)
	s, content, err := runner.New(iv).Run(ctx, s, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, s, content)
}

// Update serves POST /update. Authentication is the state envelope itself
// (spec.md §6: "none (state is self-auth)").
func (h *Handler) Update(c *gin.Context) {
	rawState, responses, err := h.decodeUpdateRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request"})
		return
	}

	s, err := state.Decrypt(rawState, h.svc.EncryptionKey)
	if err != nil {
		h.writeError(c, err)
		return
	}

	iv, ok := h.svc.Interviews[s.InterviewID]
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "state references an unknown interview"})
		return
	}

	ctx := h.requestContext(c, s)
	s, content, err := runner.New(iv).Run(ctx, s, responses)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, s, content)
}

// Result serves POST /result.
func (h *Handler) Result(c *gin.Context) {
	var req dto.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	raw, err := base85Decode(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed state"})
		return
	}
	s, err := state.Decrypt(raw, h.svc.EncryptionKey)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !s.Complete {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "interview is not complete"})
		return
	}
	c.JSON(http.StatusOK, dto.ResultResponse{
		InterviewID:  s.InterviewID,
		SubmissionID: s.SubmissionID.String(),
		Context:      s.Context,
		Data:         s.Data,
	})
}

// requestContext attaches the request's submission/interview ids to the
// logging context (common/logger's LogFields), the same enrichment the
// teacher's handlers get from its own auth middleware.
func (h *Handler) requestContext(c *gin.Context, s *state.InterviewState) context.Context {
	return logger.WithLogFields(c.Request.Context(), logger.LogFields{
		SubmissionID: logger.Ptr(s.SubmissionID.String()),
		InterviewID:  logger.Ptr(s.InterviewID),
		Component:    "httpapi",
	})
}

// respond encrypts s and writes either the incomplete or complete shape
// from spec.md §6, honoring Accept-based content negotiation.
func (h *Handler) respond(c *gin.Context, status int, s *state.InterviewState, content any) {
	blob, err := state.Encrypt(s, h.svc.EncryptionKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to seal state"})
		return
	}

	resp := dto.Response{Complete: s.Complete}
	if s.Complete {
		if s.TargetURL != nil {
			resp.TargetURL = s.TargetURL
		}
	} else {
		resp.UpdateURL = h.svc.UpdateURL
		resp.Content = toContentDTO(content)
	}

	if strings.Contains(c.GetHeader("Accept"), "application/octet-stream") {
		writeOctetStream(c, status, resp, blob)
		return
	}
	resp.State = base85Encode(blob)
	c.JSON(status, resp)
}

func toContentDTO(content any) *dto.Content {
	switch c := content.(type) {
	case *runner.AskContent:
		return &dto.Content{Type: "question", Schema: c.Schema}
	case *runner.ExitContent:
		return &dto.Content{Type: "exit", Title: c.Title, Description: c.Description}
	default:
		return nil
	}
}

// writeOctetStream implements spec.md §6's
// "json_metadata \r\n\r\n encrypted_state_bytes" wire shape. resp.State
// is left blank — the state bytes travel raw after the separator instead
// of base85-encoded inline.
func writeOctetStream(c *gin.Context, status int, resp dto.Response, blob []byte) {
	resp.State = ""
	meta, err := json.Marshal(resp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to encode metadata"})
		return
	}
	var body bytes.Buffer
	body.Write(meta)
	body.WriteString("\r\n\r\n")
	body.Write(blob)
	c.Data(status, "application/octet-stream", body.Bytes())
}

// decodeUpdateRequest reads the /update body, supporting the JSON shape
// ({state, responses}, state base85-encoded) and the multipart/form-data
// shape (spec.md §6.2: a `state` binary part plus an optional `responses`
// JSON part).
func (h *Handler) decodeUpdateRequest(c *gin.Context) ([]byte, map[string]any, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return decodeMultipartUpdate(c)
	}
	var req dto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, err
	}
	raw, err := base85Decode(req.State)
	if err != nil {
		return nil, nil, err
	}
	return raw, req.Responses, nil
}

func decodeMultipartUpdate(c *gin.Context) ([]byte, map[string]any, error) {
	fileHeader, err := c.FormFile("state")
	if err != nil {
		return nil, nil, err
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}

	var responses map[string]any
	if part := c.PostForm("responses"); part != "" {
		if err := json.Unmarshal([]byte(part), &responses); err != nil {
			return nil, nil, err
		}
	} else if respHeader, err := c.FormFile("responses"); err == nil {
		rf, err := respHeader.Open()
		if err != nil {
			return nil, nil, err
		}
		defer rf.Close()
		respBytes, err := io.ReadAll(rf)
		if err != nil {
			return nil, nil, err
		}
		if len(respBytes) > 0 {
			if err := json.Unmarshal(respBytes, &responses); err != nil {
				return nil, nil, err
			}
		}
	}
	return raw, responses, nil
}

// writeError maps the ierr taxonomy to the status codes spec.md §7 pins:
// 422 for invalid input, 400 for invalid state, 502 for a hook failure,
// 500 (opaque) for misconfiguration.
func (h *Handler) writeError(c *gin.Context, err error) {
	var invalidInput *ierr.InvalidInput
	if errors.As(err, &invalidInput) {
		errs := make([]dto.ValidationError, len(invalidInput.Errors))
		for i, fe := range invalidInput.Errors {
			errs[i] = dto.ValidationError{Loc: fe.Loc, Msg: fe.Msg}
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: errs})
		return
	}
	var invalidState *ierr.InvalidState
	if errors.As(err, &invalidState) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid state"})
		return
	}
	var hookErr *ierr.Hook
	if errors.As(err, &hookErr) {
		slog.ErrorContext(c.Request.Context(), "webhook step failed", "url", hookErr.URL, "status", hookErr.StatusCode, "reason", hookErr.Reason)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "webhook request failed"})
		return
	}
	var interviewErr *ierr.Interview
	if errors.As(err, &interviewErr) {
		slog.ErrorContext(c.Request.Context(), "interview misconfiguration", "error", interviewErr.Msg)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
		return
	}
	slog.ErrorContext(c.Request.Context(), "unhandled interview error", "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}

func base85Encode(raw []byte) string {
	buf := make([]byte, ascii85.MaxEncodedLen(len(raw)))
	n := ascii85.Encode(buf, raw)
	return string(buf[:n])
}

func base85Decode(encoded string) ([]byte, error) {
	buf := make([]byte, len(encoded))
	n, _, err := ascii85.Decode(buf, []byte(encoded), true)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
