package formula

import (
	"fmt"
	"math"

	"github.com/lunfardo314/unitrie/common"
)

// EvalContext lives for one evaluation: the bound value and the condition mode.
// Helpers come from the process-wide read-only library.
type EvalContext struct {
	bound            Value
	legacyTruthiness bool
}

func newEvalContext(bound Value, o *options) *EvalContext {
	return &EvalContext{
		bound:            bound,
		legacyTruthiness: o.legacyTruthiness,
	}
}

// Eval evaluates the tree with the bound value. The tree is not modified
func Eval(n Node, bound Value, opts ...Option) (Value, error) {
	ret, err := newEvalContext(bound, makeOptions(opts)).eval(n)
	if err != nil {
		return Null(), err
	}
	return ret, nil
}

func (ctx *EvalContext) eval(n Node) (Value, *EvalError) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil
	case *VariableRef:
		return ctx.bound, nil
	case *Unary:
		return ctx.evalUnary(n)
	case *Binary:
		return ctx.evalBinary(n)
	case *Ternary:
		cond, err := ctx.condition(n.Cond, "condition of '?:'")
		if err != nil {
			return Null(), err
		}
		if cond {
			return ctx.eval(n.Then)
		}
		return ctx.eval(n.Else)
	case *Call:
		return ctx.evalCall(n)
	}
	panic(fmt.Errorf("unexpected node type %T", n))
}

// condition evaluates operand of && || ! and ?:
func (ctx *EvalContext) condition(n Node, what string) (bool, *EvalError) {
	v, err := ctx.eval(n)
	if err != nil {
		return false, err
	}
	if b, ok := v.Boolean(); ok {
		return b, nil
	}
	if ctx.legacyTruthiness {
		return truthy(v), nil
	}
	return false, evalErrorf(TypeMismatch, n.Pos(), "%s must be Boolean, got %s", what, v.Kind())
}

// truthy is the coercion of the compatibility mode
func truthy(v Value) bool {
	switch v.Kind() {
	case KindBoolean:
		b, _ := v.Boolean()
		return b
	case KindNumber:
		n, _ := v.Number()
		return n != 0 && !math.IsNaN(n)
	case KindString:
		s, _ := v.Text()
		return s != ""
	}
	return false
}

func (ctx *EvalContext) number(n Node, op string) (float64, *EvalError) {
	v, err := ctx.eval(n)
	if err != nil {
		return 0, err
	}
	ret, ok := v.Number()
	if !ok {
		return 0, evalErrorf(TypeMismatch, n.Pos(), "operand of '%s' must be Number, got %s", op, v.Kind())
	}
	return ret, nil
}

func (ctx *EvalContext) evalUnary(n *Unary) (Value, *EvalError) {
	if n.Op == "!" {
		b, err := ctx.condition(n.Operand, "operand of '!'")
		if err != nil {
			return Null(), err
		}
		return Bool(!b), nil
	}
	v, err := ctx.number(n.Operand, n.Op)
	if err != nil {
		return Null(), err
	}
	if n.Op == "-" {
		return Num(-v), nil
	}
	return Num(v), nil
}

func (ctx *EvalContext) evalBinary(n *Binary) (Value, *EvalError) {
	switch n.Op {
	case "&&", "||":
		left, err := ctx.condition(n.Left, "operand of '"+n.Op+"'")
		if err != nil {
			return Null(), err
		}
		if (n.Op == "&&" && !left) || (n.Op == "||" && left) {
			return Bool(left), nil
		}
		right, err := ctx.condition(n.Right, "operand of '"+n.Op+"'")
		if err != nil {
			return Null(), err
		}
		return Bool(right), nil
	case "==", "!=":
		left, err := ctx.eval(n.Left)
		if err != nil {
			return Null(), err
		}
		right, err := ctx.eval(n.Right)
		if err != nil {
			return Null(), err
		}
		eq := left.Equal(right)
		if n.Op == "!=" {
			return Bool(!eq), nil
		}
		return Bool(eq), nil
	}

	left, err := ctx.number(n.Left, n.Op)
	if err != nil {
		return Null(), err
	}
	right, err := ctx.number(n.Right, n.Op)
	if err != nil {
		return Null(), err
	}
	switch n.Op {
	case "+":
		return Num(left + right), nil
	case "-":
		return Num(left - right), nil
	case "*":
		return Num(left * right), nil
	case "/":
		if right == 0 {
			return Null(), evalErrorf(DivisionByZero, n.Pos(), "division by zero")
		}
		return Num(left / right), nil
	case "%":
		if right == 0 {
			return Null(), evalErrorf(DivisionByZero, n.Pos(), "modulo by zero")
		}
		return Num(math.Mod(left, right)), nil
	case "<":
		return Bool(left < right), nil
	case "<=":
		return Bool(left <= right), nil
	case ">":
		return Bool(left > right), nil
	case ">=":
		return Bool(left >= right), nil
	}
	panic(fmt.Errorf("unexpected binary operator '%s'", n.Op))
}

func (ctx *EvalContext) evalCall(n *Call) (Value, *EvalError) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ctx.eval(a)
		if err != nil {
			return Null(), err
		}
		args[i] = v
	}
	var ret Value
	var helperErr *EvalError
	err := common.CatchPanicOrError(func() error {
		ret, helperErr = n.helper.impl(args)
		return nil
	})
	if err != nil {
		return Null(), evalErrorf(InvalidArgument, n.Pos(), "%s: %v", n.Name, err)
	}
	if helperErr != nil {
		e := *helperErr
		e.Pos = n.Pos()
		return Null(), &e
	}
	return ret, nil
}
