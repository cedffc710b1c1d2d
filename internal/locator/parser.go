package locator

import (
	"fmt"
	"strings"

	"github.com/loopfield/interview-engine/internal/ierr"
)

// Parse compiles a source string into a Locator.
// Parsing fails on a leading zero in a multi-digit integer literal, an
// unclosed string literal, a name with a leading digit/underscore/hyphen or
// trailing hyphen, or any stray trailing token.
func Parse(src string) (Locator, error) {
	loc, n, err := ParsePrefix(src)
	if err != nil {
		return nil, err
	}
	if n != len(src) {
		return nil, &ierr.InvalidLocator{Source: src, Reason: fmt.Sprintf("stray token at offset %d", n)}
	}
	return loc, nil
}

// ParsePrefix parses as much of src as forms a valid locator, returning the
// locator and the number of bytes consumed. It is exported so that larger
// grammars (e.g. the expression adapter in package tmpl) can embed a locator
// reference without requiring it to consume the whole input.
func ParsePrefix(src string) (Locator, int, error) {
	p := &parser{src: src}
	loc, err := p.parseLocator()
	if err != nil {
		return nil, 0, err
	}
	return loc, p.pos, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseLocator() (Locator, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	var loc Locator = &Variable{Name: name}

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '.':
			p.pos++
			prop, err := p.parseName()
			if err != nil {
				return nil, err
			}
			loc = &Index{Target: loc, Key: prop}
		case '[':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, &ierr.InvalidLocator{Source: p.src, Reason: "unclosed bracket"}
			}
			switch {
			case p.src[p.pos] == '"':
				s, err := p.parseString()
				if err != nil {
					return nil, err
				}
				if err := p.expect(']'); err != nil {
					return nil, err
				}
				loc = &Index{Target: loc, Key: s}
			case isDigit(p.src[p.pos]):
				n, err := p.parseInt()
				if err != nil {
					return nil, err
				}
				if err := p.expect(']'); err != nil {
					return nil, err
				}
				loc = &Index{Target: loc, Key: n}
			default:
				inner, err := p.parseLocator()
				if err != nil {
					return nil, err
				}
				if err := p.expect(']'); err != nil {
					return nil, err
				}
				loc = &ParamIndex{Target: loc, Index: inner}
			}
		default:
			return loc, nil
		}
	}
	return loc, nil
}

func (p *parser) expect(c byte) error {
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return &ierr.InvalidLocator{Source: p.src, Reason: fmt.Sprintf("expected %q at offset %d", c, p.pos)}
	}
	p.pos++
	return nil
}

// parseName reads a bare name and validates it against the
// invariant: no leading digit/underscore/hyphen, no trailing hyphen.
func (p *parser) parseName() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if !validName(name) {
		return "", &ierr.InvalidLocator{Source: p.src, Reason: fmt.Sprintf("invalid name %q", name)}
	}
	return name, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if isDigit(first) || first == '_' || first == '-' {
		return false
	}
	if s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_' || c == '-'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseInt reads "0" or [1-9][0-9]*; a leading zero on a multi-digit number
// is rejected.
func (p *parser) parseInt() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	digits := p.src[start:p.pos]
	if len(digits) > 1 && digits[0] == '0' {
		return 0, &ierr.InvalidLocator{Source: p.src, Reason: fmt.Sprintf("leading zero in %q", digits)}
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return n, nil
}

// parseString reads a double-quoted string with \" and \\ escapes.
func (p *parser) parseString() (string, error) {
	if p.src[p.pos] != '"' {
		return "", &ierr.InvalidLocator{Source: p.src, Reason: "expected string literal"}
	}
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", &ierr.InvalidLocator{Source: p.src, Reason: "unclosed string literal"}
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			if p.pos+1 >= len(p.src) || (p.src[p.pos+1] != '"' && p.src[p.pos+1] != '\\') {
				return "", &ierr.InvalidLocator{Source: p.src, Reason: "invalid escape sequence"}
			}
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
}
