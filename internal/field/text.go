package field

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

const textMaxDefault = 300

// Text is a free-text field. Empty input (after trimming) converts to nil,
// so "" and absent are indistinguishable downstream.
type Text struct {
	SetLoc       locator.Locator
	OptionalFlag bool
	Min, Max     int // Max defaults to textMaxDefault when 0
	Pattern      string // Go-syntax regex; "" means no pattern constraint
	Format       string // "" or "email"
	InputMode    string
	Autocomplete string
	LabelTemplate tmpl.Template

	re *regexp.Regexp
}

// NewText compiles Pattern (if any) and applies the field's default max
// length.
func NewText(set locator.Locator, optional bool, min, max int, pattern, format, inputMode, autocomplete string) (*Text, error) {
	t := &Text{
		SetLoc:       set,
		OptionalFlag: optional,
		Min:          min,
		Max:          max,
		Pattern:      pattern,
		Format:       format,
		InputMode:    inputMode,
		Autocomplete: autocomplete,
	}
	if t.Max == 0 {
		t.Max = textMaxDefault
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		t.re = re
	}
	return t, nil
}

func (t *Text) Set() locator.Locator   { return t.SetLoc }
func (t *Text) Optional() bool         { return t.OptionalFlag }
func (t *Text) Label() tmpl.Template   { return t.LabelTemplate }

func (t *Text) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{Type: "string"}
	if t.Pattern != "" {
		s.Pattern = t.Pattern
	}
	s.Extras = map[string]any{"x-type": "text"}
	if t.OptionalFlag {
		s.Extras["nullable"] = true
	}
	if err := renderLabel(t.LabelTemplate, ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *Text) Parse(raw any) (any, error) {
	if raw == nil {
		return t.finishNil()
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(t.SetLoc, "expected a string value")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return t.finishNil()
	}
	if len(s) < t.Min {
		return nil, fieldErr(t.SetLoc, "value shorter than the minimum length")
	}
	if len(s) > t.Max {
		return nil, fieldErr(t.SetLoc, "value exceeds the maximum length")
	}
	if t.re != nil && !t.re.MatchString(s) {
		return nil, fieldErr(t.SetLoc, "value does not match the required pattern")
	}
	if t.Format == "email" {
		if err := validateEmail(s); err != nil {
			return nil, fieldErr(t.SetLoc, err.Error())
		}
	}
	return s, nil
}

func (t *Text) finishNil() (any, error) {
	if !t.OptionalFlag {
		return nil, fieldErr(t.SetLoc, "value is required")
	}
	return nil, nil
}

// validateEmail does a syntactic RFC 5322 check via net/mail and a bare
// public-suffix sanity check (the domain must contain at least one dot).
// No public-suffix list library appears anywhere in the retrieved corpus,
// so the full suffix-table lookup is approximated here; see DESIGN.md.
func validateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return &invalidEmail{reason: "not a syntactically valid email address"}
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 || !strings.Contains(addr.Address[at+1:], ".") {
		return &invalidEmail{reason: "email domain is missing a public suffix"}
	}
	return nil
}

type invalidEmail struct{ reason string }

func (e *invalidEmail) Error() string { return e.reason }
