package tmpl

import (
	"fmt"
	"reflect"
	"text/template"
)

// callFunc invokes a sprig (or other FuncMap) entry via reflection, after
// evaluating each argument expression against ctx. sprig's helpers are
// ordinary Go functions (string/number/slice helpers, no variadic template
// machinery needed), so a direct reflect.Call is sufficient here.
func callFunc(fn any, args []node, ctx map[string]any, funcs template.FuncMap) (any, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("registered function is not callable: %T", fn)
	}
	ft := fv.Type()

	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		val, err := a.eval(ctx, funcs)
		if err != nil {
			return nil, err
		}
		var want reflect.Type
		switch {
		case ft.IsVariadic() && i >= ft.NumIn()-1:
			want = ft.In(ft.NumIn() - 1).Elem()
		case i < ft.NumIn():
			want = ft.In(i)
		default:
			return nil, fmt.Errorf("too many arguments in call")
		}
		in = append(in, coerce(val, want))
	}

	out := fv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		// Convention used by sprig/text-template helpers: (value, error).
		last := out[len(out)-1]
		if last.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
			return out[0].Interface(), nil
		}
		return out[0].Interface(), nil
	}
}

// coerce adapts a dynamically-typed expression result to the static type a
// FuncMap entry expects, covering the common string/int/float mismatches
// that arise when every locator value decodes from JSON as float64.
func coerce(val any, want reflect.Type) reflect.Value {
	if val == nil {
		return reflect.Zero(want)
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(want) {
		return rv
	}
	if rv.Type().ConvertibleTo(want) {
		switch want.Kind() {
		case reflect.String, reflect.Int, reflect.Int64, reflect.Float64, reflect.Float32, reflect.Bool:
			return rv.Convert(want)
		}
	}
	if want.Kind() == reflect.Interface {
		return rv
	}
	return rv
}
