// Package locator implements the variable path language: parsing,
// evaluation against a context, writing, and structural comparison that
// resolves parametric indices lazily.
package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/loopfield/interview-engine/internal/ierr"
)

// Locator is the sum type over Variable, Index, ParamIndex and Literal.
// All four are immutable values once constructed.
type Locator interface {
	fmt.Stringer

	// Evaluate walks the chain against ctx, returning the deepest
	// resolvable failure as *ierr.Undefined when a key is missing.
	Evaluate(ctx map[string]any) (any, error)

	// Set writes value into ctx through this locator. The target prefix
	// must already be indexable; collections are never auto-created.
	Set(value any, ctx map[string]any) error

	// Writable reports whether this locator can ever be a Set target.
	Writable() bool

	// Equal reports plain structural equality (no context resolution).
	Equal(other Locator) bool
}

// Variable is a bare name, e.g. "person".
type Variable struct {
	Name string
}

// Index is a property or bracket access, e.g. "person.name" or
// `person["name"]` or "items[0]".
type Index struct {
	Target Locator
	Key    any // string or int
}

// ParamIndex is a bracket access whose key is itself a locator to be
// evaluated first, e.g. "person[attr]".
type ParamIndex struct {
	Target Locator
	Index  Locator
}

// Literal is a constant value. It is never produced by Parse — the grammar
// has no literal-locator production — but is available for programmatic
// construction (e.g. synthesizing a comparison target). It is never
// writable.
type Literal struct {
	Value any // string or int
}

var (
	_ Locator = (*Variable)(nil)
	_ Locator = (*Index)(nil)
	_ Locator = (*ParamIndex)(nil)
	_ Locator = (*Literal)(nil)
)

// --- Variable ---

func (v *Variable) String() string { return v.Name }

func (v *Variable) Writable() bool { return true }

func (v *Variable) Equal(other Locator) bool {
	o, ok := other.(*Variable)
	return ok && o.Name == v.Name
}

func (v *Variable) Evaluate(ctx map[string]any) (any, error) {
	val, ok := ctx[v.Name]
	if !ok {
		return nil, &ierr.Undefined{Loc: v}
	}
	return val, nil
}

func (v *Variable) Set(value any, ctx map[string]any) error {
	ctx[v.Name] = value
	return nil
}

// --- Index ---

func (i *Index) String() string {
	if key, ok := i.Key.(string); ok && isBareKey(key) {
		return i.Target.String() + "." + key
	}
	return i.Target.String() + "[" + printKey(i.Key) + "]"
}

func (i *Index) Writable() bool { return true }

func (i *Index) Equal(other Locator) bool {
	o, ok := other.(*Index)
	if !ok {
		return false
	}
	return i.Target.Equal(o.Target) && i.Key == o.Key
}

func (i *Index) Evaluate(ctx map[string]any) (any, error) {
	target, err := i.Target.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	val, found, indexable := indexInto(target, i.Key)
	if !indexable {
		return nil, &ierr.TypeError{Loc: i, Target: target}
	}
	if !found {
		return nil, &ierr.Undefined{Loc: i}
	}
	return val, nil
}

func (i *Index) Set(value any, ctx map[string]any) error {
	target, err := i.Target.Evaluate(ctx)
	if err != nil {
		return &ierr.Interview{Msg: fmt.Sprintf("set through undefined prefix %s: %v", i.Target, err)}
	}
	return assignInto(target, i.Key, value, i.String())
}

// --- ParamIndex ---

func (p *ParamIndex) String() string {
	return p.Target.String() + "[" + p.Index.String() + "]"
}

func (p *ParamIndex) Writable() bool { return true }

func (p *ParamIndex) Equal(other Locator) bool {
	o, ok := other.(*ParamIndex)
	if !ok {
		return false
	}
	return p.Target.Equal(o.Target) && p.Index.Equal(o.Index)
}

func (p *ParamIndex) Evaluate(ctx map[string]any) (any, error) {
	key, err := p.Index.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	target, err := p.Target.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	val, found, indexable := indexInto(target, key)
	if !indexable {
		return nil, &ierr.TypeError{Loc: p, Target: target}
	}
	if !found {
		return nil, &ierr.Undefined{Loc: p}
	}
	return val, nil
}

func (p *ParamIndex) Set(value any, ctx map[string]any) error {
	key, err := p.Index.Evaluate(ctx)
	if err != nil {
		return &ierr.Interview{Msg: fmt.Sprintf("set through undefined index %s: %v", p.Index, err)}
	}
	target, err := p.Target.Evaluate(ctx)
	if err != nil {
		return &ierr.Interview{Msg: fmt.Sprintf("set through undefined prefix %s: %v", p.Target, err)}
	}
	return assignInto(target, key, value, p.String())
}

// --- Literal ---

func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }

func (l *Literal) Writable() bool { return false }

func (l *Literal) Equal(other Locator) bool {
	o, ok := other.(*Literal)
	return ok && o.Value == l.Value
}

func (l *Literal) Evaluate(map[string]any) (any, error) { return l.Value, nil }

func (l *Literal) Set(any, map[string]any) error {
	return &ierr.Interview{Msg: "literal locators are never assignable"}
}

// --- shared helpers ---

// indexInto keys into target, distinguishing "not indexable at all"
// (a string/number/bool/nil target — spec.md §4.1's TypeError case) from
// "indexable but the key is missing" (spec.md §4.1's Undefined case).
// found is only meaningful when indexable is true.
func indexInto(target any, key any) (val any, found bool, indexable bool) {
	switch t := target.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, false, true
		}
		val, ok := t[k]
		return val, ok, true
	case []any:
		idx, ok := toInt(key)
		if !ok || idx < 0 || idx >= len(t) {
			return nil, false, true
		}
		return t[idx], true, true
	default:
		return nil, false, false
	}
}

func assignInto(target any, key any, value any, locatorDesc string) error {
	switch t := target.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return &ierr.Interview{Msg: fmt.Sprintf("cannot index object with non-string key in %s", locatorDesc)}
		}
		t[k] = value
		return nil
	case []any:
		idx, ok := toInt(key)
		if !ok || idx < 0 || idx >= len(t) {
			return &ierr.Interview{Msg: fmt.Sprintf("index out of range in %s", locatorDesc)}
		}
		t[idx] = value
		return nil
	default:
		return &ierr.Interview{Msg: fmt.Sprintf("non-indexable target in %s", locatorDesc)}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}

func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func printKey(key any) string {
	switch k := key.(type) {
	case string:
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(k) + `"`
	case int:
		return strconv.Itoa(k)
	default:
		return fmt.Sprintf("%v", k)
	}
}

// Compare implements comparison "in context": any ParamIndex on
// either side is first reduced to an Index by evaluating its inner locator.
// If reduction fails anywhere, Compare returns false rather than an error —
// this is an intentional, documented limitation (see DESIGN.md's Open
// Question on parametric locator equality): a question whose `set` target
// depends on a still-missing variable is skipped, not selected to provide
// it.
func Compare(a, b Locator, ctx map[string]any) bool {
	ra, oka := reduce(a, ctx)
	rb, okb := reduce(b, ctx)
	if !oka || !okb {
		return false
	}
	return structEqual(ra, rb)
}

func reduce(l Locator, ctx map[string]any) (Locator, bool) {
	switch t := l.(type) {
	case *Variable:
		return t, true
	case *Literal:
		return t, true
	case *Index:
		target, ok := reduce(t.Target, ctx)
		if !ok {
			return nil, false
		}
		return &Index{Target: target, Key: t.Key}, true
	case *ParamIndex:
		target, ok := reduce(t.Target, ctx)
		if !ok {
			return nil, false
		}
		key, err := t.Index.Evaluate(ctx)
		if err != nil {
			return nil, false
		}
		switch key.(type) {
		case string, int:
		default:
			if f, ok := key.(float64); ok && f == float64(int(f)) {
				key = int(f)
			} else {
				return nil, false
			}
		}
		return &Index{Target: target, Key: key}, true
	default:
		return nil, false
	}
}

// structEqual compares two already-reduced (ParamIndex-free) locators.
// When both sides are Index nodes the
// Target is compared before the Key.
func structEqual(a, b Locator) bool {
	switch x := a.(type) {
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Value == y.Value
	case *Index:
		y, ok := b.(*Index)
		if !ok {
			return false
		}
		return structEqual(x.Target, y.Target) && x.Key == y.Key
	default:
		return false
	}
}
