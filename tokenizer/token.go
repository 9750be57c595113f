package tokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrUnterminatedRegex   = errors.New("unterminated regular expression literal")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE

	// Comments
	LINE_COMMENT  // // line comment
	BLOCK_COMMENT // /* block comment */

	// Punctuation
	DB             // db
	DOT            // .
	OPENED_PARENS  // (
	CLOSED_PARENS  // )
	OPENED_BRACE   // {
	CLOSED_BRACE   // }
	OPENED_BRACKET // [
	CLOSED_BRACKET // ]
	COMMA          // ,
	COLON          // :
	SEMICOLON      // ;

	// Names and literals
	IDENTIFIER
	STRING  // 'text', "text"
	NUMBER  // -1.5e3
	BOOLEAN // true, false
	NULL    // null
	REGEX   // /pattern/flags
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	case DB:
		return "DB"
	case DOT:
		return "DOT"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case OPENED_BRACE:
		return "OPENED_BRACE"
	case CLOSED_BRACE:
		return "CLOSED_BRACE"
	case OPENED_BRACKET:
		return "OPENED_BRACKET"
	case CLOSED_BRACKET:
		return "CLOSED_BRACKET"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case SEMICOLON:
		return "SEMICOLON"
	case IDENTIFIER:
		return "IDENTIFIER"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case BOOLEAN:
		return "BOOLEAN"
	case NULL:
		return "NULL"
	case REGEX:
		return "REGEX"
	default:
		return "UNKNOWN"
	}
}

// IsComment reports whether the type is a line or block comment.
func (t TokenType) IsComment() bool {
	return t == LINE_COMMENT || t == BLOCK_COMMENT
}

// Position represents a position in the source code.
// Line and Column are 0-based, Column counts runes, Offset counts bytes.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Before reports whether p is strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// String returns "line:column" using 1-based numbers for humans.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
	End      Position // position right after the last rune of the token
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// LexError is reported for input the tokenizer cannot classify.
type LexError struct {
	Pos  Position
	Text string
	Err  error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s %q at line %d, column %d", e.Err.Error(), e.Text, e.Pos.Line+1, e.Pos.Column+1)
}

func (e *LexError) Unwrap() error {
	return e.Err
}

// ErrorListener receives lexical and syntax errors instead of aborting the scan.
type ErrorListener interface {
	SyntaxError(pos Position, offending string, err error)
}
