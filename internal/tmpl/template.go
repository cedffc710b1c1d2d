// Package tmpl is the template/expression adapter: the core only ever
// talks to the Template and Expression interfaces, never to a concrete
// engine. Engine is the concrete implementation this repository ships —
// text/template-flavored interpolation with sprig's function library,
// built on the same expression grammar (package-private in expr.go) used
// for step `when`/`eval`/`set` expressions.
package tmpl

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template renders to a string against a merged template context.
type Template interface {
	Render(ctx map[string]any) (string, error)
}

// Expression evaluates to a typed value against the same context.
type Expression interface {
	Evaluate(ctx map[string]any) (any, error)
}

// Engine compiles Template and Expression values. It is constructed once at
// startup and passed explicitly to the config loader that compiles a
// bundle's templates, rather than stashed in a package-level "current
// template engine" global.
type Engine struct {
	funcs template.FuncMap
}

// NewEngine builds an Engine with sprig's function library registered,
// exactly as a text/template-based renderer would in the wider Go
// ecosystem (e.g. Helm).
func NewEngine() *Engine {
	return &Engine{funcs: sprig.FuncMap()}
}

type segment struct {
	literal string
	expr    node // nil for a literal-only segment
}

type compiledTemplate struct {
	engine   *Engine
	segments []segment
}

// Compile parses src into a Template. `{{ expr }}` actions are evaluated
// through the expression grammar in expr.go; everything else is copied
// verbatim.
func (e *Engine) Compile(src string) (Template, error) {
	segments, err := splitActions(src)
	if err != nil {
		return nil, err
	}
	return &compiledTemplate{engine: e, segments: segments}, nil
}

// CompileExpr parses src as a single expression (no surrounding literal
// text, no `{{ }}` delimiters) — the form used for step `when`/`eval`/`set`
// values.
func (e *Engine) CompileExpr(src string) (Expression, error) {
	n, err := parseExpr(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}
	return &compiledExpr{engine: e, node: n}, nil
}

type compiledExpr struct {
	engine *Engine
	node   node
}

func (c *compiledExpr) Evaluate(ctx map[string]any) (any, error) {
	return c.node.eval(ctx, c.engine.funcs)
}

// Truthy applies the same truthiness rules the `&&`/`||`/`!` operators use
// (nil, empty string, zero, and empty collections are false) to an
// arbitrary Evaluate/Render result, for callers that need to coerce a
// `when`/`eval` result to a boolean.
func Truthy(v any) bool { return truthy(v) }

func (c *compiledTemplate) Render(ctx map[string]any) (string, error) {
	var b strings.Builder
	for _, seg := range c.segments {
		if seg.expr == nil {
			b.WriteString(seg.literal)
			continue
		}
		val, err := seg.expr.eval(ctx, c.engine.funcs)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprint(val))
	}
	return b.String(), nil
}

// splitActions scans src for `{{ ... }}` actions, parsing each as an
// expression and leaving everything else as literal text.
func splitActions(src string) ([]segment, error) {
	var segments []segment
	rest := src
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			segments = append(segments, segment{literal: rest})
			return segments, nil
		}
		if start > 0 {
			segments = append(segments, segment{literal: rest[:start]})
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("unclosed template action in %q", src)
		}
		inner := rest[start+2 : start+end]
		n, err := parseExpr(inner)
		if err != nil {
			return nil, fmt.Errorf("parsing template action %q: %w", inner, err)
		}
		segments = append(segments, segment{expr: n})
		rest = rest[start+end+2:]
	}
}
