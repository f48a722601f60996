package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// helpersNamespace is accepted as a qualifier of helper names: helpers.round(value, 2)
const helpersNamespace = "helpers"

// parser is a recursive descent over the token stream. Every descent step consumes
// a token, so recursion is bounded by the token limit, and the tree depth limit
// is checked on every node which adds a level
type parser struct {
	tokens []Token
	cur    int
	opts   *options
}

// Parse builds the AST from the token stream produced by Tokenize.
// All calls are resolved against the helper library here, so the returned
// tree only references known helpers with accepted number of arguments.
func Parse(tokens []Token, opts ...Option) (Node, error) {
	return parseTokens(tokens, makeOptions(opts))
}

func parseTokens(tokens []Token, o *options) (Node, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		end := 0
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			end = last.Pos + len(last.Lexeme)
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{Kind: EOF, Pos: end})
	}
	if numTokens := len(tokens) - 1; numTokens > o.limits.MaxTokens {
		return nil, &ParseError{
			Kind: LimitExceeded,
			Pos:  tokens[o.limits.MaxTokens].Pos,
			Msg:  fmt.Sprintf("formula has %d tokens, maximum is %d", numTokens, o.limits.MaxTokens),
		}
	}
	p := &parser{tokens: tokens, opts: o}
	if p.peek().Kind == EOF {
		return nil, &ParseError{Kind: UnexpectedToken, Pos: 0, Msg: "empty formula"}
	}
	ret, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, unexpected(tok, "end of formula")
	}
	return ret, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.cur]
}

func (p *parser) next() Token {
	ret := p.tokens[p.cur]
	if ret.Kind != EOF {
		p.cur++
	}
	return ret
}

func (p *parser) peekOp(ops ...string) bool {
	tok := p.peek()
	if tok.Kind != Operator {
		return false
	}
	for _, op := range ops {
		if tok.Lexeme == op {
			return true
		}
	}
	return false
}

func (p *parser) peekIs(kind TokenKind, lexeme string) bool {
	tok := p.peek()
	return tok.Kind == kind && tok.Lexeme == lexeme
}

func (p *parser) expect(kind TokenKind, lexeme string) error {
	tok := p.next()
	if tok.Kind != kind || tok.Lexeme != lexeme {
		return unexpected(tok, "'"+lexeme+"'")
	}
	return nil
}

func unexpected(tok Token, expected string) *ParseError {
	return &ParseError{
		Kind: UnexpectedToken,
		Pos:  tok.Pos,
		Msg:  fmt.Sprintf("unexpected %s, expected %s", tok, expected),
	}
}

func (p *parser) checkDepth(n Node) (Node, error) {
	if n.Depth() > p.opts.limits.MaxDepth {
		return nil, &ParseError{
			Kind: LimitExceeded,
			Pos:  n.Pos(),
			Msg:  fmt.Sprintf("formula tree is deeper than %d", p.opts.limits.MaxDepth),
		}
	}
	return n, nil
}

// ternary := logicalOr [ '?' ternary ':' ternary ]
func (p *parser) ternary() (Node, error) {
	cond, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if !p.peekOp("?") {
		return cond, nil
	}
	q := p.next()
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if !p.peekOp(":") {
		return nil, unexpected(p.peek(), "':'")
	}
	p.next()
	els, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return p.checkDepth(newTernary(q.Pos, cond, then, els))
}

func (p *parser) logicalOr() (Node, error) {
	return p.binaryLevel(p.logicalAnd, "||")
}

func (p *parser) logicalAnd() (Node, error) {
	return p.binaryLevel(p.equality, "&&")
}

func (p *parser) equality() (Node, error) {
	return p.binaryLevel(p.relational, "==", "!=")
}

func (p *parser) relational() (Node, error) {
	return p.binaryLevel(p.additive, "<", "<=", ">", ">=")
}

func (p *parser) additive() (Node, error) {
	return p.binaryLevel(p.multiplicative, "+", "-")
}

func (p *parser) multiplicative() (Node, error) {
	return p.binaryLevel(p.unary, "*", "/", "%")
}

// binaryLevel parses left associative chain of operand (op operand)*
func (p *parser) binaryLevel(operand func() (Node, error), ops ...string) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for p.peekOp(ops...) {
		op := p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		if left, err = p.checkDepth(newBinary(op.Pos, op.Lexeme, left, right)); err != nil {
			return nil, err
		}
	}
	return left, nil
}

// unary := ('!' | '-' | '+') unary | primary
func (p *parser) unary() (Node, error) {
	if !p.peekOp("!", "-", "+") {
		return p.primary()
	}
	op := p.next()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return p.checkDepth(newUnary(op.Pos, op.Lexeme, operand))
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.Kind {
	case Number:
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &ParseError{Kind: UnexpectedToken, Pos: tok.Pos, Msg: fmt.Sprintf("invalid number '%s'", tok.Lexeme)}
		}
		return newLiteral(tok.Pos, Num(n)), nil
	case String:
		return newLiteral(tok.Pos, Str(tok.Lexeme)), nil
	case Paren:
		if tok.Lexeme != "(" {
			return nil, unexpected(tok, "operand")
		}
		ret, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if err = p.expect(Paren, ")"); err != nil {
			return nil, err
		}
		return ret, nil
	case Ident:
		return p.identOrCall(tok)
	}
	return nil, unexpected(tok, "operand")
}

func (p *parser) identOrCall(first Token) (Node, error) {
	segments := []string{first.Lexeme}
	for p.peekOp(".") {
		p.next()
		tok := p.next()
		if tok.Kind != Ident || tok.Lexeme == LegacyPlaceholder {
			return nil, unexpected(tok, "name after '.'")
		}
		segments = append(segments, tok.Lexeme)
	}
	name := strings.Join(segments, ".")
	if p.peekIs(Paren, "(") {
		return p.call(first.Pos, segments)
	}
	if len(segments) == 1 {
		switch name {
		case "true":
			return newLiteral(first.Pos, Bool(true)), nil
		case "false":
			return newLiteral(first.Pos, Bool(false)), nil
		case "null":
			return newLiteral(first.Pos, Null()), nil
		case p.opts.placeholder, LegacyPlaceholder:
			return newVariableRef(first.Pos, p.opts.placeholder), nil
		}
	}
	return nil, &ParseError{
		Kind: UnknownIdentifier,
		Pos:  first.Pos,
		Msg:  fmt.Sprintf("unknown identifier '%s', the input value is '%s'", name, p.opts.placeholder),
	}
}

func (p *parser) call(pos int, segments []string) (Node, error) {
	name := strings.Join(segments, ".")
	var h *HelperEntry
	switch {
	case len(segments) == 1:
		h = LookupHelper(segments[0])
	case len(segments) == 2 && segments[0] == helpersNamespace:
		h = LookupHelper(segments[1])
	}
	if h == nil {
		return nil, &ParseError{Kind: UnknownFunction, Pos: pos, Msg: fmt.Sprintf("unknown function '%s'", name)}
	}
	p.next() // '('
	args := make([]Node, 0, h.Arity.Max)
	if !p.peekIs(Paren, ")") {
		for {
			arg, err := p.ternary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.peekIs(Comma, ",") {
				break
			}
			p.next()
		}
	}
	if err := p.expect(Paren, ")"); err != nil {
		return nil, err
	}
	if !h.Arity.Accepts(len(args)) {
		return nil, &ParseError{
			Kind:     ArityMismatch,
			Pos:      pos,
			Msg:      fmt.Sprintf("'%s' expects %s argument(s), got %d", h.Name, h.Arity, len(args)),
			Expected: h.Arity,
			Got:      len(args),
		}
	}
	return p.checkDepth(newCall(pos, h, args))
}
