package field

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Number is a numeric field; Integer selects int vs. float value typing.
type Number struct {
	SetLoc        locator.Locator
	OptionalFlag  bool
	Integer       bool
	Min, Max      *float64 // nil means unbounded
	LabelTemplate tmpl.Template
}

func (n *Number) Set() locator.Locator { return n.SetLoc }
func (n *Number) Optional() bool       { return n.OptionalFlag }
func (n *Number) Label() tmpl.Template { return n.LabelTemplate }

func (n *Number) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{Type: "number"}
	if n.Integer {
		s.Type = "integer"
	}
	if n.Min != nil {
		s.Minimum = json.Number(strconv.FormatFloat(*n.Min, 'g', -1, 64))
	}
	if n.Max != nil {
		s.Maximum = json.Number(strconv.FormatFloat(*n.Max, 'g', -1, 64))
	}
	s.Extras = map[string]any{"x-type": "number"}
	if err := renderLabel(n.LabelTemplate, ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (n *Number) Parse(raw any) (any, error) {
	if raw == nil {
		return n.finishNil()
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		if v == "" {
			return n.finishNil()
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fieldErr(n.SetLoc, "expected a number")
		}
		f = parsed
	default:
		return nil, fieldErr(n.SetLoc, fmt.Sprintf("expected a number, got %T", raw))
	}
	if n.Min != nil && f < *n.Min {
		return nil, fieldErr(n.SetLoc, "value is below the minimum")
	}
	if n.Max != nil && f > *n.Max {
		return nil, fieldErr(n.SetLoc, "value is above the maximum")
	}
	if n.Integer {
		i := int64(f)
		if float64(i) != f {
			return nil, fieldErr(n.SetLoc, "expected an integer value")
		}
		return int(i), nil
	}
	return f, nil
}

func (n *Number) finishNil() (any, error) {
	if !n.OptionalFlag {
		return nil, fieldErr(n.SetLoc, "value is required")
	}
	return nil, nil
}
