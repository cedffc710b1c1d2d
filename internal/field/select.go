package field

import (
	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Select presents a fixed option list; Multi switches between a single
// selected id and an array of ids.
type Select struct {
	SetLoc        locator.Locator
	OptionalFlag  bool
	Component     string // "dropdown", "radio", "checkbox"
	Multi         bool
	Min, Max      int // cardinality bounds when Multi
	Options       []Option
	LabelTemplate tmpl.Template
}

// NewSelect auto-assigns missing option ids by 1-based position.
func NewSelect(set locator.Locator, optional bool, component string, multi bool, min, max int, opts []Option) *Select {
	return &Select{
		SetLoc:       set,
		OptionalFlag: optional,
		Component:    component,
		Multi:        multi,
		Min:          min,
		Max:          max,
		Options:      assignOptionIDs(opts),
	}
}

func (s *Select) Set() locator.Locator { return s.SetLoc }
func (s *Select) Optional() bool       { return s.OptionalFlag }
func (s *Select) Label() tmpl.Template { return s.LabelTemplate }

func optionConsts(opts []Option) []*jsonschema.Schema {
	out := make([]*jsonschema.Schema, len(opts))
	for i, o := range opts {
		out[i] = &jsonschema.Schema{Const: o.Value, Title: o.Label}
	}
	return out
}

func (s *Select) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	consts := optionConsts(s.Options)
	if !s.Multi {
		schema := &jsonschema.Schema{OneOf: consts}
		schema.Extras = map[string]any{"x-type": "select", "x-component": s.Component}
		if s.OptionalFlag {
			schema.Extras["nullable"] = true
		}
		if err := renderLabel(s.LabelTemplate, ctx, schema); err != nil {
			return nil, err
		}
		return schema, nil
	}
	schema := &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{OneOf: consts},
		UniqueItems: true,
	}
	if s.Min > 0 {
		min := uint64(s.Min)
		schema.MinItems = &min
	}
	if s.Max > 0 {
		max := uint64(s.Max)
		schema.MaxItems = &max
	}
	schema.Extras = map[string]any{"x-type": "select", "x-component": s.Component}
	if err := renderLabel(s.LabelTemplate, ctx, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func (s *Select) Parse(raw any) (any, error) {
	if raw == nil {
		return s.finishNil()
	}
	if !s.Multi {
		id, ok := raw.(string)
		if !ok {
			return nil, fieldErr(s.SetLoc, "expected a single option id")
		}
		if id == "" {
			return s.finishNil()
		}
		opt, found := optionByID(s.Options, id)
		if !found {
			return nil, fieldErr(s.SetLoc, "unknown option id")
		}
		return opt.Value, nil
	}

	ids, ok := raw.([]any)
	if !ok {
		return nil, fieldErr(s.SetLoc, "expected an array of option ids")
	}
	if len(ids) == 0 {
		return s.finishNil()
	}
	if s.Min > 0 && len(ids) < s.Min {
		return nil, fieldErr(s.SetLoc, "too few options selected")
	}
	if s.Max > 0 && len(ids) > s.Max {
		return nil, fieldErr(s.SetLoc, "too many options selected")
	}
	values := make([]any, len(ids))
	for i, raw := range ids {
		id, ok := raw.(string)
		if !ok {
			return nil, fieldErr(s.SetLoc, "expected option ids to be strings")
		}
		opt, found := optionByID(s.Options, id)
		if !found {
			return nil, fieldErr(s.SetLoc, "unknown option id")
		}
		values[i] = opt.Value
	}
	return values, nil
}

func (s *Select) finishNil() (any, error) {
	if !s.OptionalFlag {
		return nil, fieldErr(s.SetLoc, "value is required")
	}
	return nil, nil
}
