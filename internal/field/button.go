package field

import (
	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Button is a single-choice action field; an answer is always one option's
// id, resolved to that option's value. Buttons are never optional in
// practice (there is no "no button pressed" submission) but the flag is
// still honored for symmetry with the other kinds.
type Button struct {
	SetLoc        locator.Locator
	OptionalFlag  bool
	Options       []Option
	LabelTemplate tmpl.Template
}

// NewButton auto-assigns missing option ids by 1-based position.
func NewButton(set locator.Locator, optional bool, opts []Option) *Button {
	return &Button{SetLoc: set, OptionalFlag: optional, Options: assignOptionIDs(opts)}
}

func (b *Button) Set() locator.Locator { return b.SetLoc }
func (b *Button) Optional() bool       { return b.OptionalFlag }
func (b *Button) Label() tmpl.Template { return b.LabelTemplate }

func (b *Button) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{OneOf: optionConsts(b.Options)}
	extras := map[string]any{"x-type": "button"}
	for _, o := range b.Options {
		if o.Primary {
			extras["x-primary"] = o.ID
			break
		}
	}
	schema.Extras = extras
	if err := renderLabel(b.LabelTemplate, ctx, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func (b *Button) Parse(raw any) (any, error) {
	if raw == nil {
		return b.finishNil()
	}
	id, ok := raw.(string)
	if !ok {
		return nil, fieldErr(b.SetLoc, "expected a single option id")
	}
	if id == "" {
		return b.finishNil()
	}
	opt, found := optionByID(b.Options, id)
	if !found {
		return nil, fieldErr(b.SetLoc, "unknown option id")
	}
	return opt.Value, nil
}

func (b *Button) finishNil() (any, error) {
	if !b.OptionalFlag {
		return nil, fieldErr(b.SetLoc, "value is required")
	}
	return nil, nil
}
