package state

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/loopfield/interview-engine/internal/ierr"
)

const envelopeVersion = 1

// KeySize is the secretbox key length (XSalsa20 + Poly1305).
const KeySize = 32

// nonceSize is secretbox's fixed nonce length.
const nonceSize = 24

// envelopePart1 is every InterviewState field except Data — the half that
// is typically smaller and more repetitive than the data payload.
type envelopePart1 struct {
	InterviewID         string          `json:"interview_id"`
	SubmissionID        uuid.UUID       `json:"submission_id"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	Complete            bool            `json:"complete"`
	Context             map[string]any  `json:"context"`
	AnsweredQuestionIDs []string        `json:"answered_question_ids"`
	QuestionID          *string         `json:"question_id"`
	TargetURL           *string         `json:"target_url,omitempty"`
}

type envelopePart2 struct {
	Data map[string]any `json:"data"`
}

// Encrypt serializes state into the versioned envelope and seals it with
// key (must be KeySize bytes). part1 is always DEFLATE-compressed; part2
// (the `data` payload) never is: collected data is typically small and
// accessed fresh, so compressing it would cost more than it saves.
func Encrypt(s *InterviewState, key [KeySize]byte) ([]byte, error) {
	answered := make([]string, 0, len(s.AnsweredQuestionIDs))
	for id := range s.AnsweredQuestionIDs {
		answered = append(answered, id)
	}
	part1, err := json.Marshal(envelopePart1{
		InterviewID:         s.InterviewID,
		SubmissionID:        s.SubmissionID,
		ExpirationDate:      s.ExpirationDate,
		Complete:            s.Complete,
		Context:             s.Context,
		AnsweredQuestionIDs: answered,
		QuestionID:          s.QuestionID,
		TargetURL:           s.TargetURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope part1: %w", err)
	}
	part2, err := json.Marshal(envelopePart2{Data: s.Data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope part2: %w", err)
	}

	compressed1, err := deflate(part1)
	if err != nil {
		return nil, fmt.Errorf("compress envelope part1: %w", err)
	}

	var plain bytes.Buffer
	plain.WriteByte(envelopeVersion)
	writeLengthPrefixed(&plain, compressed1, true)
	writeLengthPrefixed(&plain, part2, false)

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], plain.Bytes(), &nonce, &key)
	return out, nil
}

// Decrypt authenticates and decodes an envelope produced by Encrypt.
// Any failure — authentication, truncation, unsupported version, or an
// expired state — is returned as *ierr.InvalidState.
func Decrypt(blob []byte, key [KeySize]byte) (*InterviewState, error) {
	if len(blob) < nonceSize {
		return nil, &ierr.InvalidState{Reason: "envelope shorter than nonce"}
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])

	plain, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &key)
	if !ok {
		return nil, &ierr.InvalidState{Reason: "authentication failed"}
	}

	r := bytes.NewReader(plain)
	version, err := r.ReadByte()
	if err != nil {
		return nil, &ierr.InvalidState{Reason: "truncated envelope: missing version byte"}
	}
	if version != envelopeVersion {
		return nil, &ierr.InvalidState{Reason: fmt.Sprintf("unsupported envelope version %d", version)}
	}

	body1, err := readLengthPrefixed(r)
	if err != nil {
		return nil, &ierr.InvalidState{Reason: fmt.Sprintf("reading part1: %s", err)}
	}
	body2, err := readLengthPrefixed(r)
	if err != nil {
		return nil, &ierr.InvalidState{Reason: fmt.Sprintf("reading part2: %s", err)}
	}

	var p1 envelopePart1
	if err := json.Unmarshal(body1, &p1); err != nil {
		return nil, &ierr.InvalidState{Reason: fmt.Sprintf("decoding part1: %s", err)}
	}
	var p2 envelopePart2
	if err := json.Unmarshal(body2, &p2); err != nil {
		return nil, &ierr.InvalidState{Reason: fmt.Sprintf("decoding part2: %s", err)}
	}

	answered := make(map[string]struct{}, len(p1.AnsweredQuestionIDs))
	for _, id := range p1.AnsweredQuestionIDs {
		answered[id] = struct{}{}
	}
	s := &InterviewState{
		InterviewID:         p1.InterviewID,
		SubmissionID:        p1.SubmissionID,
		ExpirationDate:      p1.ExpirationDate,
		Complete:            p1.Complete,
		Context:             p1.Context,
		Data:                p2.Data,
		AnsweredQuestionIDs: answered,
		QuestionID:          p1.QuestionID,
		TargetURL:           p1.TargetURL,
	}
	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// validate rejects a state past its expiration.
func validate(s *InterviewState) error {
	if time.Now().After(s.ExpirationDate) {
		return &ierr.InvalidState{Reason: "state expired"}
	}
	return nil
}

// writeLengthPrefixed appends a little-endian int32 length (per spec.md
// §4.8 and the original Python implementation's `Struct("<i")`) followed
// by body. A negative length marks a DEFLATE-compressed body, magnitude
// the compressed size.
func writeLengthPrefixed(buf *bytes.Buffer, body []byte, compressed bool) {
	n := int32(len(body))
	if compressed {
		n = -n
	}
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(n))
	buf.Write(lenBytes[:])
	buf.Write(body)
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return nil, fmt.Errorf("truncated length prefix")
	}
	n := int32(binary.LittleEndian.Uint32(lenBytes[:]))
	compressed := n < 0
	if compressed {
		n = -n
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("truncated body")
	}
	if compressed {
		return inflate(body)
	}
	return body, nil
}

func deflate(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(body []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}
