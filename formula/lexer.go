package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type TokenKind byte

const (
	EOF TokenKind = iota
	Number
	String
	Ident
	Operator
	Paren
	Comma
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Number:
		return "Number"
	case String:
		return "String"
	case Ident:
		return "Ident"
	case Operator:
		return "Operator"
	case Paren:
		return "Paren"
	case Comma:
		return "Comma"
	}
	return fmt.Sprintf("TokenKind(%d)", byte(k))
}

// Token is a lexical token. For String tokens Lexeme holds the unquoted text.
// Pos is the byte offset of the token in the source.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Pos    int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of formula"
	}
	if t.Kind == String {
		return fmt.Sprintf("string '%s'", t.Lexeme)
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}

// LegacyPlaceholder is the placeholder used by formulas written for the
// string-substitution engine
const LegacyPlaceholder = "$VALUE$"

// operators, longest first
var operators = []string{"==", "!=", "<=", ">=", "&&", "||", "+", "-", "*", "/", "%", "<", ">", "!", "?", ":", "."}

// Tokenize scans the whole source. The last token is always EOF.
func Tokenize(source string) ([]Token, error) {
	ret := make([]Token, 0, len(source)/2+1)
	pos := 0
	for pos < len(source) {
		c := source[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
		case isDigit(c) || (c == '.' && pos+1 < len(source) && isDigit(source[pos+1])):
			end, err := scanNumber(source, pos)
			if err != nil {
				return nil, err
			}
			ret = append(ret, Token{Kind: Number, Lexeme: source[pos:end], Pos: pos})
			pos = end
		case c == '"' || c == '\'':
			text, end, err := scanString(source, pos)
			if err != nil {
				return nil, err
			}
			ret = append(ret, Token{Kind: String, Lexeme: text, Pos: pos})
			pos = end
		case isIdentStart(c):
			end := pos + 1
			for end < len(source) && isIdentChar(source[end]) {
				end++
			}
			ret = append(ret, Token{Kind: Ident, Lexeme: source[pos:end], Pos: pos})
			pos = end
		case strings.HasPrefix(source[pos:], LegacyPlaceholder):
			ret = append(ret, Token{Kind: Ident, Lexeme: LegacyPlaceholder, Pos: pos})
			pos += len(LegacyPlaceholder)
		case c == '(' || c == ')':
			ret = append(ret, Token{Kind: Paren, Lexeme: source[pos : pos+1], Pos: pos})
			pos++
		case c == ',':
			ret = append(ret, Token{Kind: Comma, Lexeme: ",", Pos: pos})
			pos++
		default:
			op := matchOperator(source[pos:])
			if op == "" {
				r, _ := utf8.DecodeRuneInString(source[pos:])
				return nil, &LexError{Pos: pos, Msg: fmt.Sprintf("unrecognized character %q", r)}
			}
			ret = append(ret, Token{Kind: Operator, Lexeme: op, Pos: pos})
			pos += len(op)
		}
	}
	ret = append(ret, Token{Kind: EOF, Pos: len(source)})
	return ret, nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

// scanNumber returns end offset of the numeric literal starting at pos
func scanNumber(source string, pos int) (int, error) {
	end := pos
	for end < len(source) && isDigit(source[end]) {
		end++
	}
	if end < len(source) && source[end] == '.' {
		end++
		fracStart := end
		for end < len(source) && isDigit(source[end]) {
			end++
		}
		if end == fracStart {
			return 0, &LexError{Pos: pos, Msg: fmt.Sprintf("malformed number '%s'", source[pos:end])}
		}
	}
	if end < len(source) && (isIdentChar(source[end]) || source[end] == '.') {
		bad := end + 1
		for bad < len(source) && (isIdentChar(source[bad]) || source[bad] == '.') {
			bad++
		}
		return 0, &LexError{Pos: pos, Msg: fmt.Sprintf("malformed number '%s'", source[pos:bad])}
	}
	if _, err := strconv.ParseFloat(source[pos:end], 64); err != nil {
		return 0, &LexError{Pos: pos, Msg: fmt.Sprintf("malformed number '%s': out of range", source[pos:end])}
	}
	return end, nil
}

// scanString returns unquoted text and end offset past the closing quote
func scanString(source string, pos int) (string, int, error) {
	quote := source[pos]
	var buf strings.Builder
	for i := pos + 1; i < len(source); i++ {
		c := source[i]
		switch {
		case c == quote:
			return buf.String(), i + 1, nil
		case c == '\\' && i+1 < len(source) && (source[i+1] == '"' || source[i+1] == '\''):
			buf.WriteByte(source[i+1])
			i++
		default:
			buf.WriteByte(c)
		}
	}
	return "", 0, &LexError{Pos: pos, Msg: "unterminated string literal"}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
