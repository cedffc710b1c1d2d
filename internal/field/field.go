// Package field implements the five field kinds the engine supports:
// text, number, date, select and button. Each kind owns its own
// conversion -> optional-check -> type-check -> constraint-check pipeline
// and its own JSON-Schema fragment, built directly as *jsonschema.Schema
// values (never via jsonschema.Reflect, since these fragments describe
// config-driven runtime data, not a Go struct).
package field

import (
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Field is the common contract every field kind implements.
type Field interface {
	// Set is the locator a successfully parsed value is written to; nil
	// for a display-only field (set=null: collected but discarded).
	Set() locator.Locator
	// Optional reports whether a null/empty submission is accepted.
	Optional() bool
	// Label is the field's own rendered caption, distinct from the
	// owning question's title; nil when the config left it unset.
	Label() tmpl.Template
	// GetSchema renders this field's JSON-Schema fragment. ctx is the
	// template context the field's Label template is rendered against;
	// option labels and bounds are copied into the schema as plain values.
	GetSchema(ctx map[string]any) (*jsonschema.Schema, error)
	// Parse runs the validation pipeline over one raw wire value
	// (already JSON-decoded: string, float64, []any, or nil) and
	// returns the value to write at Set(), or a *ierr.FieldError.
	Parse(raw any) (any, error)
}

// renderLabel renders label into schema.Title when label is set, replacing
// any Title already present; a nil label leaves schema untouched.
func renderLabel(label tmpl.Template, ctx map[string]any, schema *jsonschema.Schema) error {
	if label == nil {
		return nil
	}
	title, err := label.Render(ctx)
	if err != nil {
		return err
	}
	schema.Title = title
	return nil
}

// Option is one entry of a select or button field's option list.
type Option struct {
	ID      string
	Label   string
	Value   any
	Default bool
	Primary bool // button only
}

// assignOptionIDs fills in missing option ids by 1-based position when the
// config leaves them blank.
func assignOptionIDs(opts []Option) []Option {
	out := make([]Option, len(opts))
	for i, o := range opts {
		if o.ID == "" {
			o.ID = strconv.Itoa(i + 1)
		}
		out[i] = o
	}
	return out
}

func optionByID(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// fieldErr builds the validation error a field's Parse returns. set is
// nil for a display-only field (set=null); that's a legitimate,
// reachable configuration (a required display-only field submitted
// blank), not a programming error, so this must not call set.String()
// unconditionally.
func fieldErr(set locator.Locator, msg string) error {
	if set == nil {
		return &ierr.FieldError{Loc: "", Msg: msg}
	}
	return &ierr.FieldError{Loc: set.String(), Msg: msg}
}
