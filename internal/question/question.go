// Package question aggregates an ordered list of fields into one
// JSON-Schema object and parses a positionally-named response
// (`field_0`, `field_1`, ...) back into locator assignments.
package question

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// Question is a single step of user-facing input. Equality at the
// interview level is by ID alone (IDs key the interview's question map and
// the runner's answered-question set); nothing in this package compares
// two Questions structurally.
type Question struct {
	ID          string
	Title       tmpl.Template // may be nil (no title)
	Description tmpl.Template // may be nil (no description)
	Fields      []field.Field
	When        []tmpl.Expression // ANDed together; nil/empty means always asked
}

func fieldKey(i int) string { return fmt.Sprintf("field_%d", i) }

// GetSchema renders this question's object schema. A field is listed in
// `required` iff it is not optional; titles/descriptions are rendered
// against ctx at schema time.
func (q *Question) GetSchema(ctx map[string]any) (*jsonschema.Schema, error) {
	props := orderedmap.New[string, *jsonschema.Schema]()
	var required []string
	for i, f := range q.Fields {
		fs, err := f.GetSchema(ctx)
		if err != nil {
			return nil, err
		}
		key := fieldKey(i)
		props.Set(key, fs)
		if !f.Optional() {
			required = append(required, key)
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
	if q.Title != nil {
		title, err := q.Title.Render(ctx)
		if err != nil {
			return nil, err
		}
		schema.Title = title
	}
	if q.Description != nil {
		desc, err := q.Description.Render(ctx)
		if err != nil {
			return nil, err
		}
		schema.Description = desc
	}
	return schema, nil
}

// ParseResponse parses a raw `{field_0: raw, field_1: raw, ...}` payload
// into `{Locator -> parsed value}`, collecting every field's validation
// error before returning (rather than failing on the first) so the caller
// can report all of them in one InvalidInput. Fields that parse to nil
// (optional and left blank) are omitted entirely rather than written as
// an explicit null.
func (q *Question) ParseResponse(raw map[string]any) (map[locator.Locator]any, error) {
	result := make(map[locator.Locator]any, len(q.Fields))
	var fieldErrs []ierr.FieldError

	for i, f := range q.Fields {
		v, err := f.Parse(raw[fieldKey(i)])
		if err != nil {
			var fe *ierr.FieldError
			if errors.As(err, &fe) {
				fieldErrs = append(fieldErrs, *fe)
				continue
			}
			return nil, err
		}
		if v == nil || f.Set() == nil {
			continue
		}
		result[f.Set()] = v
	}

	if len(fieldErrs) > 0 {
		return nil, &ierr.InvalidInput{Errors: fieldErrs}
	}
	return result, nil
}
