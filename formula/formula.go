// Package formula compiles and evaluates user-authored widget formulas such as
//
//	value > 10 ? "high" : "low"
//	helpers.round(value, 2)
//
// The grammar is a whitelist: literals, the single placeholder of the bound
// input value, operators, the ternary and calls of the fixed helper library.
// Calls are resolved when the formula is compiled and the parser bounds the
// number of tokens and the depth of the tree, so evaluation cost of any formula
// is bounded and evaluation has no access to anything but the bound value.
//
// A compiled Formula is immutable and can be evaluated concurrently.
package formula

import (
	"fmt"
	"regexp"
)

const (
	DefaultMaxTokens   = 256
	DefaultMaxDepth    = 64
	DefaultPlaceholder = "value"
)

// Limits bound the size of a formula. Zero fields mean defaults
type Limits struct {
	MaxTokens int
	MaxDepth  int
}

func DefaultLimits() Limits {
	return Limits{MaxTokens: DefaultMaxTokens, MaxDepth: DefaultMaxDepth}
}

type options struct {
	limits           Limits
	placeholder      string
	legacyTruthiness bool
}

type Option func(o *options)

// WithLimits overrides default token and depth limits
func WithLimits(l Limits) Option {
	return func(o *options) {
		if l.MaxTokens > 0 {
			o.limits.MaxTokens = l.MaxTokens
		}
		if l.MaxDepth > 0 {
			o.limits.MaxDepth = l.MaxDepth
		}
	}
}

// WithPlaceholder changes the name of the bound input. Names which are not
// valid identifiers are ignored
func WithPlaceholder(name string) Option {
	return func(o *options) {
		if ValidPlaceholder(name) {
			o.placeholder = name
		}
	}
}

// WithLegacyTruthiness makes conditions of && || ! and ?: accept any value:
// Number is true when not 0 (NaN is false), String when not empty, Null is false.
// Without it conditions must be Boolean.
func WithLegacyTruthiness() Option {
	return func(o *options) {
		o.legacyTruthiness = true
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidPlaceholder checks if name can designate the bound input
func ValidPlaceholder(name string) bool {
	switch name {
	case "true", "false", "null", helpersNamespace:
		return false
	}
	return identRe.MatchString(name) && LookupHelper(name) == nil
}

func makeOptions(opts []Option) *options {
	ret := &options{
		limits:      DefaultLimits(),
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// fingerprint identifies options which change the result of compilation or evaluation
func (o *options) fingerprint() string {
	return fmt.Sprintf("%d/%d/%s/%v", o.limits.MaxTokens, o.limits.MaxDepth, o.placeholder, o.legacyTruthiness)
}

// Formula is a compiled formula, ready for repeated evaluation
type Formula struct {
	source string
	root   Node
	opts   *options
}

// Compile tokenizes and parses the source. The error is always *CompileError
func Compile(source string, opts ...Option) (*Formula, error) {
	return compileWith(source, makeOptions(opts))
}

func compileWith(source string, o *options) (*Formula, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, newCompileError(source, err)
	}
	root, err := parseTokens(tokens, o)
	if err != nil {
		return nil, newCompileError(source, err)
	}
	return &Formula{
		source: source,
		root:   root,
		opts:   o,
	}, nil
}

func MustCompile(source string, opts ...Option) *Formula {
	ret, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return ret
}

// Evaluate computes the formula with the bound value. The error is always *EvalError
func (f *Formula) Evaluate(v Value) (Value, error) {
	ret, err := newEvalContext(v, f.opts).eval(f.root)
	if err != nil {
		return Null(), err
	}
	return ret, nil
}

func (f *Formula) Source() string {
	return f.source
}

func (f *Formula) Root() Node {
	return f.root
}

// String returns canonical, fully parenthesized form of the formula
func (f *Formula) String() string {
	return NodeString(f.root)
}

// EvaluateOrFallback compiles (or takes from the default cache) and evaluates the formula.
// Any compile or evaluation error results in fallback.
func EvaluateOrFallback(source string, v, fallback Value) Value {
	return defaultCache.EvaluateOrFallback(source, v, fallback)
}
