package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lunfardo314/unitrie/common"
)

// Arity is the accepted number of arguments, Min == Max for exact arity
type Arity struct {
	Min int
	Max int
}

func (a Arity) Accepts(n int) bool {
	return a.Min <= n && n <= a.Max
}

func (a Arity) String() string {
	if a.Min == a.Max {
		return strconv.Itoa(a.Min)
	}
	return fmt.Sprintf("%d-%d", a.Min, a.Max)
}

// HelperFunction receives already evaluated arguments, their number is within the declared arity.
// Returned *EvalError must not carry position, the evaluator sets it.
type HelperFunction func(args []Value) (Value, *EvalError)

type HelperEntry struct {
	Name  string
	Arity Arity
	Doc   string
	impl  HelperFunction
}

// MaxDecimals is the largest number of decimal places accepted by round and toFixed
const MaxDecimals = 20

// process-wide helper table. It is only written during init
var theLibrary = make(map[string]*HelperEntry)

func init() {
	embed("clamp", 3, 3, "clamp(v, lo, hi): v limited to [lo, hi]", evalClamp)
	embed("round", 1, 2, "round(v, decimals=0): rounded half away from zero", evalRound)
	embed("toFixed", 1, 2, "toFixed(v, decimals=0): rounded and formatted with fixed decimals", evalToFixed)
	embed("toF", 1, 1, "toF(celsius): degrees Fahrenheit", evalToF)
	embed("toC", 1, 1, "toC(fahrenheit): degrees Celsius", evalToC)
	embed("abs", 1, 1, "abs(v): absolute value", evalAbs)
	embed("between", 3, 3, "between(v, lo, hi): lo <= v <= hi", evalBetween)
}

func embed(name string, minArgs, maxArgs int, doc string, fun HelperFunction) {
	_, exists := theLibrary[name]
	common.Assert(!exists, "repeating helper '%s'", name)
	common.Assert(0 <= minArgs && minArgs <= maxArgs, "wrong arity of helper '%s'", name)
	theLibrary[name] = &HelperEntry{
		Name:  name,
		Arity: Arity{Min: minArgs, Max: maxArgs},
		Doc:   doc,
		impl:  fun,
	}
}

// LookupHelper returns nil if helper does not exist
func LookupHelper(name string) *HelperEntry {
	return theLibrary[name]
}

// Helpers returns all helpers sorted by name
func Helpers() []*HelperEntry {
	ret := make([]*HelperEntry, 0, len(theLibrary))
	for _, h := range theLibrary {
		ret = append(ret, h)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})
	return ret
}

// Call invokes the helper directly, bypassing formula compilation
func (h *HelperEntry) Call(args ...Value) (Value, error) {
	if !h.Arity.Accepts(len(args)) {
		return Null(), evalErrorf(InvalidArgument, 0, "'%s' expects %s argument(s), got %d", h.Name, h.Arity, len(args))
	}
	ret, err := h.impl(args)
	if err != nil {
		return Null(), err
	}
	return ret, nil
}

func numberArgs(fun string, args []Value) ([]float64, *EvalError) {
	ret := make([]float64, len(args))
	for i, a := range args {
		n, ok := a.Number()
		if !ok {
			return nil, evalErrorf(TypeMismatch, 0, "%s: argument %d must be Number, got %s", fun, i+1, a.Kind())
		}
		ret[i] = n
	}
	return ret, nil
}

func decimalsArg(fun string, nums []float64) (int, *EvalError) {
	if len(nums) < 2 {
		return 0, nil
	}
	d := nums[1]
	if d != math.Trunc(d) || d < 0 || d > MaxDecimals {
		return 0, evalErrorf(InvalidArgument, 0, "%s: decimals must be an integer from 0 to %d, got %v", fun, MaxDecimals, d)
	}
	return int(d), nil
}

// roundHalfAway rounds to the decimal places, half away from zero. Zero result is always +0
// roundHalfAway rounds the shortest decimal form of v, the one the user sees,
// so round(1.005, 2) is 1.01 even if the nearest double is slightly below 1.005
func roundHalfAway(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ".")
	if len(frac) <= decimals {
		if v == 0 {
			return 0
		}
		return v
	}
	digits := []byte(intPart + frac[:decimals])
	if frac[decimals] >= '5' {
		i := len(digits) - 1
		for ; i >= 0 && digits[i] == '9'; i-- {
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		} else {
			digits[i]++
		}
	}
	text := string(digits)
	if decimals > 0 {
		point := len(digits) - decimals
		text = text[:point] + "." + text[point:]
	}
	ret, err := strconv.ParseFloat(text, 64)
	common.AssertNoError(err)
	if ret == 0 {
		return 0
	}
	return math.Copysign(ret, v)
}

func evalClamp(args []Value) (Value, *EvalError) {
	n, err := numberArgs("clamp", args)
	if err != nil {
		return Null(), err
	}
	v, lo, hi := n[0], n[1], n[2]
	if lo > hi {
		return Null(), evalErrorf(InvalidRange, 0, "clamp: lower bound %v is greater than upper bound %v", lo, hi)
	}
	return Num(math.Min(math.Max(v, lo), hi)), nil
}

func evalRound(args []Value) (Value, *EvalError) {
	n, err := numberArgs("round", args)
	if err != nil {
		return Null(), err
	}
	d, err := decimalsArg("round", n)
	if err != nil {
		return Null(), err
	}
	return Num(roundHalfAway(n[0], d)), nil
}

func evalToFixed(args []Value) (Value, *EvalError) {
	n, err := numberArgs("toFixed", args)
	if err != nil {
		return Null(), err
	}
	d, err := decimalsArg("toFixed", n)
	if err != nil {
		return Null(), err
	}
	return Str(strconv.FormatFloat(roundHalfAway(n[0], d), 'f', d, 64)), nil
}

func evalToF(args []Value) (Value, *EvalError) {
	n, err := numberArgs("toF", args)
	if err != nil {
		return Null(), err
	}
	return Num(n[0]*9/5 + 32), nil
}

func evalToC(args []Value) (Value, *EvalError) {
	n, err := numberArgs("toC", args)
	if err != nil {
		return Null(), err
	}
	return Num((n[0] - 32) * 5 / 9), nil
}

func evalAbs(args []Value) (Value, *EvalError) {
	n, err := numberArgs("abs", args)
	if err != nil {
		return Null(), err
	}
	return Num(math.Abs(n[0])), nil
}

func evalBetween(args []Value) (Value, *EvalError) {
	n, err := numberArgs("between", args)
	if err != nil {
		return Null(), err
	}
	return Bool(n[1] <= n[0] && n[0] <= n[2]), nil
}
