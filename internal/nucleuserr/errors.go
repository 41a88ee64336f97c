// Package nucleuserr defines the closed set of error kinds the engine can
// report across a package boundary (spec section 7). Every failure that
// crosses out of the parser, evaluator, synthesizer, or session is one of
// these kinds; nothing else escapes Evaluator.EvalTopLevel or
// Session.Execute.
package nucleuserr

import "fmt"

// Kind is the closed set of error kinds. Unlike devcmd's open, stringly
// typed error categories, Kind is a fixed enum: the spec defines an
// exhaustive error surface and adding a new member is a spec change, not a
// routine extension.
type Kind int

const (
	_ Kind = iota
	ParseError
	ArityError
	TypeError
	RegexError
	LineOutOfRange
	NoDocument
	ReservedName
	TimeoutError
	NeedsMoreExamples
	NoCandidate
	InternalError
)

var kindNames = [...]string{
	"",
	"ParseError",
	"ArityError",
	"TypeError",
	"RegexError",
	"LineOutOfRange",
	"NoDocument",
	"ReservedName",
	"TimeoutError",
	"NeedsMoreExamples",
	"NoCandidate",
	"InternalError",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fatal reports whether the kind poisons the owning Session. Only
// InternalError is fatal; every other kind is recoverable at the turn
// boundary.
func (k Kind) Fatal() bool {
	return k == InternalError
}

// Span locates an error in source text, 1-indexed, matching the Parser's
// node spans (spec section 4.C).
type Span struct {
	Line   int
	Column int
	Token  string
}

// NucleusError is the structured error returned by the parser, evaluator,
// synthesizer, and session. It mirrors the teacher's DevCmdError shape
// (Type/Message/Cause/Context) with Type narrowed to Kind and Context
// renamed to Meta for brevity.
type NucleusError struct {
	Kind    Kind
	Message string
	Cause   error
	Span    *Span
	Meta    map[string]interface{}
}

func (e *NucleusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *NucleusError) Unwrap() error {
	return e.Cause
}

// New creates a NucleusError with no cause.
func New(kind Kind, message string) *NucleusError {
	return &NucleusError{Kind: kind, Message: message, Meta: make(map[string]interface{})}
}

// Wrap creates a NucleusError chaining an underlying cause.
func Wrap(kind Kind, message string, cause error) *NucleusError {
	return &NucleusError{Kind: kind, Message: message, Cause: cause, Meta: make(map[string]interface{})}
}

// WithSpan attaches a source span and returns the receiver for chaining.
func (e *NucleusError) WithSpan(span Span) *NucleusError {
	e.Span = &span
	return e
}

// WithMeta attaches a structured metadata key/value and returns the
// receiver for chaining.
func (e *NucleusError) WithMeta(key string, value interface{}) *NucleusError {
	e.Meta[key] = value
	return e
}

// Is reports whether err is a *NucleusError of the given kind.
func Is(err error, kind Kind) bool {
	ne, ok := err.(*NucleusError)
	return ok && ne.Kind == kind
}

// Arity builds an ArityError with the expected and received argument counts.
func Arity(form string, expected, received int) *NucleusError {
	return New(ArityError, fmt.Sprintf("%s: expected %d argument(s), got %d", form, expected, received)).
		WithMeta("form", form).
		WithMeta("expected", expected).
		WithMeta("received", received)
}

// Type builds a TypeError naming the mismatched argument position.
func Type(form string, position int, expected, gotKind string) *NucleusError {
	return New(TypeError, fmt.Sprintf("%s: argument %d: expected %s, got %s", form, position, expected, gotKind)).
		WithMeta("form", form).
		WithMeta("position", position).
		WithMeta("expected", expected).
		WithMeta("got", gotKind)
}
