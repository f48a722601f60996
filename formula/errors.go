package formula

import (
	"fmt"
	"strings"
)

// LexError is returned by Tokenize
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error @ %d: %s", e.Pos, e.Msg)
}

type ParseErrorKind byte

const (
	UnexpectedToken ParseErrorKind = iota
	UnknownFunction
	UnknownIdentifier
	ArityMismatch
	LimitExceeded
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnknownFunction:
		return "UnknownFunction"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	case ArityMismatch:
		return "ArityMismatch"
	case LimitExceeded:
		return "LimitExceeded"
	}
	return fmt.Sprintf("ParseErrorKind(%d)", byte(k))
}

// ParseError is returned by Parse. Expected and Got are set for ArityMismatch only.
type ParseError struct {
	Kind     ParseErrorKind
	Pos      int
	Msg      string
	Expected Arity
	Got      int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s @ %d: %s", e.Kind, e.Pos, e.Msg)
}

// Is makes errors.Is(err, &ParseError{Kind: k}) match on kind
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

type EvalErrorKind byte

const (
	TypeMismatch EvalErrorKind = iota
	DivisionByZero
	InvalidRange
	InvalidArgument
)

func (k EvalErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case DivisionByZero:
		return "DivisionByZero"
	case InvalidRange:
		return "InvalidRange"
	case InvalidArgument:
		return "InvalidArgument"
	}
	return fmt.Sprintf("EvalErrorKind(%d)", byte(k))
}

// EvalError is returned by Formula.Evaluate. Pos points to the node which failed.
type EvalError struct {
	Kind EvalErrorKind
	Pos  int
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s @ %d: %s", e.Kind, e.Pos, e.Msg)
}

func (e *EvalError) Is(target error) bool {
	t, ok := target.(*EvalError)
	return ok && t.Kind == e.Kind
}

func evalErrorf(kind EvalErrorKind, pos int, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type CompileErrorKind byte

const (
	CompileLexical CompileErrorKind = iota
	CompileSyntax
)

func (k CompileErrorKind) String() string {
	if k == CompileLexical {
		return "LexError"
	}
	return "ParseError"
}

// CompileError is returned by Compile. It wraps either *LexError or *ParseError
// and keeps the source for inline diagnostics.
type CompileError struct {
	Kind   CompileErrorKind
	Msg    string
	Pos    int
	Source string
	err    error
}

func newCompileError(source string, err error) *CompileError {
	ret := &CompileError{Source: source, err: err}
	switch e := err.(type) {
	case *LexError:
		ret.Kind, ret.Pos, ret.Msg = CompileLexical, e.Pos, e.Msg
	case *ParseError:
		ret.Kind, ret.Pos, ret.Msg = CompileSyntax, e.Pos, e.Msg
	default:
		ret.Kind, ret.Msg = CompileSyntax, err.Error()
	}
	return ret
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("can't compile '%s': %v", e.Source, e.err)
}

func (e *CompileError) Unwrap() error {
	return e.err
}

// Reason returns the kind name of the wrapped error, e.g. "UnknownFunction"
func (e *CompileError) Reason() string {
	if pe, ok := e.err.(*ParseError); ok {
		return pe.Kind.String()
	}
	return e.Kind.String()
}

// Snippet renders the source with a caret under the error position:
//
//	clamp(value, 0)
//	^
func (e *CompileError) Snippet() string {
	line := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(e.Source)
	pos := e.Pos
	if pos < 0 {
		pos = 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	return line + "\n" + strings.Repeat(" ", pos) + "^"
}
