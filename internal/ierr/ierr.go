// Package ierr collects the engine-wide error taxonomy so that every other
// package can raise and the HTTP layer can classify failures without string
// matching.
package ierr

import "fmt"

// Undefined signals that a locator had no value during evaluation. It is the
// only error the runner catches and turns into a question; it must never
// reach the HTTP boundary.
type Undefined struct {
	Loc fmt.Stringer
}

func (e *Undefined) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Loc)
}

// TypeError means a locator's evaluation walked into a non-indexable
// target — a string, number, bool, or nil where an Index or ParamIndex
// expected a map or list. Distinct from Undefined (a missing key):
// spec.md §4.1 requires the two be told apart, since only Undefined is
// caught and turned into a question.
type TypeError struct {
	Loc    fmt.Stringer
	Target any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot index non-indexable value (%T) at %s", e.Target, e.Loc)
}

// InvalidLocator means a path string failed to parse. Fatal at interview
// load time; a 400 if it somehow surfaces from a request.
type InvalidLocator struct {
	Source string
	Reason string
}

func (e *InvalidLocator) Error() string {
	return fmt.Sprintf("invalid locator %q: %s", e.Source, e.Reason)
}

// FieldError is one entry in an InvalidInput's Errors slice. It also
// implements error itself so a single field's Parse can return it directly
// and callers can errors.As it out of a wrapped error.
type FieldError struct {
	Loc string
	Msg string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Msg) }

// InvalidInput means response parsing/validation failed. Converted to a 422
// with per-field detail.
type InvalidInput struct {
	Errors []FieldError
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid input (%d errors)", len(e.Errors))
}

// Interview means misconfiguration: a missing question id, no question
// providing a variable, or a set through an undefined prefix. Surfaces as a
// 500 with an opaque message; callers should log the detail themselves.
type Interview struct {
	Msg string
}

func (e *Interview) Error() string { return e.Msg }

// InvalidState means the envelope failed to decrypt, authenticate, parse its
// version, or passed its expiration. A 400.
type InvalidState struct {
	Reason string
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// Hook means a webhook step got a non-2xx status or a malformed 200 body.
// Surfaces as a 502.
type Hook struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *Hook) Error() string {
	return fmt.Sprintf("hook %s failed: %s (status %d)", e.URL, e.Reason, e.StatusCode)
}
