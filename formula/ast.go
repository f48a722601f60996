package formula

import (
	"strconv"
	"strings"
)

// Node is an immutable AST node. The set of implementations is closed.
type Node interface {
	Pos() int
	// Depth is the height of the subtree, 1 for leaves
	Depth() int
	writeTo(w *strings.Builder)
}

type nodeBase struct {
	pos   int
	depth int
}

func (n nodeBase) Pos() int   { return n.pos }
func (n nodeBase) Depth() int { return n.depth }

type Literal struct {
	nodeBase
	Value Value
}

// VariableRef designates the bound input value
type VariableRef struct {
	nodeBase
	Name string
}

type Unary struct {
	nodeBase
	Op      string
	Operand Node
}

type Binary struct {
	nodeBase
	Op          string
	Left, Right Node
}

type Ternary struct {
	nodeBase
	Cond, Then, Else Node
}

// Call is a call of a helper resolved at parse time
type Call struct {
	nodeBase
	Name   string
	Args   []Node
	helper *HelperEntry
}

func maxDepth(nodes ...Node) int {
	ret := 0
	for _, n := range nodes {
		if d := n.Depth(); d > ret {
			ret = d
		}
	}
	return ret
}

func newLiteral(pos int, v Value) *Literal {
	return &Literal{nodeBase: nodeBase{pos: pos, depth: 1}, Value: v}
}

func newVariableRef(pos int, name string) *VariableRef {
	return &VariableRef{nodeBase: nodeBase{pos: pos, depth: 1}, Name: name}
}

func newUnary(pos int, op string, operand Node) *Unary {
	return &Unary{nodeBase: nodeBase{pos: pos, depth: operand.Depth() + 1}, Op: op, Operand: operand}
}

func newBinary(pos int, op string, left, right Node) *Binary {
	return &Binary{nodeBase: nodeBase{pos: pos, depth: maxDepth(left, right) + 1}, Op: op, Left: left, Right: right}
}

func newTernary(pos int, cond, then, els Node) *Ternary {
	return &Ternary{nodeBase: nodeBase{pos: pos, depth: maxDepth(cond, then, els) + 1}, Cond: cond, Then: then, Else: els}
}

func newCall(pos int, h *HelperEntry, args []Node) *Call {
	return &Call{nodeBase: nodeBase{pos: pos, depth: maxDepth(args...) + 1}, Name: h.Name, Args: args, helper: h}
}

func (n *Literal) writeTo(w *strings.Builder) {
	if s, ok := n.Value.Text(); ok {
		w.WriteString(strconv.Quote(s))
		return
	}
	w.WriteString(n.Value.String())
}

func (n *VariableRef) writeTo(w *strings.Builder) {
	w.WriteString(n.Name)
}

func (n *Unary) writeTo(w *strings.Builder) {
	w.WriteString("(")
	w.WriteString(n.Op)
	n.Operand.writeTo(w)
	w.WriteString(")")
}

func (n *Binary) writeTo(w *strings.Builder) {
	w.WriteString("(")
	n.Left.writeTo(w)
	w.WriteString(" " + n.Op + " ")
	n.Right.writeTo(w)
	w.WriteString(")")
}

func (n *Ternary) writeTo(w *strings.Builder) {
	w.WriteString("(")
	n.Cond.writeTo(w)
	w.WriteString(" ? ")
	n.Then.writeTo(w)
	w.WriteString(" : ")
	n.Else.writeTo(w)
	w.WriteString(")")
}

func (n *Call) writeTo(w *strings.Builder) {
	w.WriteString(n.Name)
	w.WriteString("(")
	for i, a := range n.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		a.writeTo(w)
	}
	w.WriteString(")")
}

// NodeString prints the AST in fully parenthesized form
func NodeString(n Node) string {
	var w strings.Builder
	n.writeTo(&w)
	return w.String()
}
