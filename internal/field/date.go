package field

import (
	"time"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

const isoDateLayout = "2006-01-02"

// Date is an ISO-8601 calendar-date field (no time-of-day component).
type Date struct {
	SetLoc        locator.Locator
	OptionalFlag  bool
	Min, Max      *time.Time // nil means unbounded
	LabelTemplate tmpl.Template
}

func (d *Date) Set() locator.Locator { return d.SetLoc }
func (d *Date) Optional() bool       { return d.OptionalFlag }
func (d *Date) Label() tmpl.Template { return d.LabelTemplate }

func (d *Date) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{Type: "string", Format: "date"}
	s.Extras = map[string]any{"x-type": "date"}
	if d.Min != nil {
		s.Extras["x-minimum"] = d.Min.Format(isoDateLayout)
	}
	if d.Max != nil {
		s.Extras["x-maximum"] = d.Max.Format(isoDateLayout)
	}
	if err := renderLabel(d.LabelTemplate, ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Date) Parse(raw any) (any, error) {
	if raw == nil {
		return d.finishNil()
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(d.SetLoc, "expected an ISO date string")
	}
	if s == "" {
		return d.finishNil()
	}
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return nil, fieldErr(d.SetLoc, "expected an ISO date in YYYY-MM-DD form")
	}
	if d.Min != nil && t.Before(*d.Min) {
		return nil, fieldErr(d.SetLoc, "date is before the minimum")
	}
	if d.Max != nil && t.After(*d.Max) {
		return nil, fieldErr(d.SetLoc, "date is after the maximum")
	}
	return s, nil
}

func (d *Date) finishNil() (any, error) {
	if !d.OptionalFlag {
		return nil, fieldErr(d.SetLoc, "value is required")
	}
	return nil, nil
}
