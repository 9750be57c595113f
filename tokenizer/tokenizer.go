package tokenizer

import (
	"iter"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// MongoTokenizer is a tokenizer for MongoDB shell scripts that returns an iterator
type MongoTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewMongoTokenizer creates a new MongoTokenizer
func NewMongoTokenizer(input string, options ...TokenizerOptions) *MongoTokenizer {
	opts := TokenizerOptions{
		SkipWhitespace: false,
		SkipComments:   false,
	}
	if len(options) > 0 {
		opts = options[0]
	}

	return &MongoTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens. Lexical errors are yielded with an
// empty token and scanning continues after the offending input.
func (t *MongoTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input: t.input,
			prev:  EOF,
		}

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				if !yield(Token{}, err) {
					return
				}
				continue
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			// Filtering based on options
			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}
			if t.options.SkipComments && token.Type.IsComment() {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice together with every lexical error
func (t *MongoTokenizer) AllTokens() ([]Token, []error) {
	tokens := make([]Token, 0, 64)
	var errs []error

	for token, err := range t.Tokens() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tokens = append(tokens, token)
		if token.Type == EOF {
			break
		}
	}

	return tokens, errs
}

// Tokenize returns the significant tokens (comments included, whitespace
// dropped, EOF last) and reports lexical errors to listener.
func Tokenize(input string, listener ErrorListener) []Token {
	t := NewMongoTokenizer(input, TokenizerOptions{SkipWhitespace: true})
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			if listener != nil {
				reportLexError(listener, err)
			}
			continue
		}
		tokens = append(tokens, token)
	}

	return tokens
}

func reportLexError(listener ErrorListener, err error) {
	if lexErr, ok := err.(*LexError); ok {
		listener.SyntaxError(lexErr.Pos, lexErr.Text, lexErr)
		return
	}
	listener.SyntaxError(Position{}, "", err)
}

const eof rune = -1

// Internal tokenizer implementation
type tokenizer struct {
	input  string
	offset int
	line   int
	column int

	// last significant token type, decides whether '/' starts a regex
	prev TokenType
}

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	start := t.pos()
	current := t.peek(0)

	switch current {
	case eof:
		return Token{Type: EOF, Position: start, End: start}, nil
	case '(':
		return t.single(OPENED_PARENS, start), nil
	case ')':
		return t.single(CLOSED_PARENS, start), nil
	case '{':
		return t.single(OPENED_BRACE, start), nil
	case '}':
		return t.single(CLOSED_BRACE, start), nil
	case '[':
		return t.single(OPENED_BRACKET, start), nil
	case ']':
		return t.single(CLOSED_BRACKET, start), nil
	case ',':
		return t.single(COMMA, start), nil
	case ':':
		return t.single(COLON, start), nil
	case ';':
		return t.single(SEMICOLON, start), nil
	case '.':
		return t.single(DOT, start), nil
	case '\'', '"':
		return t.readString(current, start)
	case '/':
		switch t.peek(1) {
		case '/':
			return t.readLineComment(start), nil
		case '*':
			return t.readBlockComment(start)
		}
		if t.regexAllowed() {
			return t.readRegex(start)
		}
		return t.unexpected(start)
	}

	if unicode.IsSpace(current) {
		return t.readWhitespace(start), nil
	}

	rest := t.input[t.offset:]
	numLen := scanNumber(rest)
	identLen := scanIdentifier(rest)

	switch {
	case numLen > 0 && numLen >= identLen:
		t.advanceBytes(numLen)
		return t.emit(NUMBER, start), nil
	case identLen > 0:
		t.advanceBytes(identLen)
		return t.emit(keywordType(rest[:identLen]), start), nil
	}

	return t.unexpected(start)
}

func (t *tokenizer) pos() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.offset}
}

// peek looks ahead n runes without consuming
func (t *tokenizer) peek(n int) rune {
	offset := t.offset
	for {
		if offset >= len(t.input) {
			return eof
		}
		r, w := utf8.DecodeRuneInString(t.input[offset:])
		if n == 0 {
			return r
		}
		offset += w
		n--
	}
}

// advance consumes one rune
func (t *tokenizer) advance() {
	if t.offset >= len(t.input) {
		return
	}
	r, w := utf8.DecodeRuneInString(t.input[t.offset:])
	t.offset += w
	if r == '\n' {
		t.line++
		t.column = 0
	} else {
		t.column++
	}
}

func (t *tokenizer) advanceBytes(n int) {
	end := t.offset + n
	for t.offset < end {
		t.advance()
	}
}

func (t *tokenizer) skipToLineEnd() {
	for r := t.peek(0); r != eof && r != '\n'; r = t.peek(0) {
		t.advance()
	}
}

func (t *tokenizer) emit(tokenType TokenType, start Position) Token {
	if tokenType != WHITESPACE && !tokenType.IsComment() {
		t.prev = tokenType
	}

	return Token{
		Type:     tokenType,
		Value:    t.input[start.Offset:t.offset],
		Position: start,
		End:      t.pos(),
	}
}

func (t *tokenizer) single(tokenType TokenType, start Position) Token {
	t.advance()
	return t.emit(tokenType, start)
}

func (t *tokenizer) unexpected(start Position) (Token, error) {
	t.advance()
	return Token{}, &LexError{Pos: start, Text: t.input[start.Offset:t.offset], Err: ErrUnexpectedCharacter}
}

// regexAllowed reports whether a value can start at the current position
func (t *tokenizer) regexAllowed() bool {
	switch t.prev {
	case OPENED_PARENS, COMMA, COLON, OPENED_BRACKET:
		return true
	}
	return false
}

// readWhitespace reads whitespace characters
func (t *tokenizer) readWhitespace(start Position) Token {
	for unicode.IsSpace(t.peek(0)) {
		t.advance()
	}
	return t.emit(WHITESPACE, start)
}

// readString reads string literals; the quotes stay in the token value
func (t *tokenizer) readString(delimiter rune, start Position) (Token, error) {
	t.advance() // opening quote

	for {
		switch t.peek(0) {
		case eof, '\n':
			t.skipToLineEnd()
			return Token{}, &LexError{Pos: start, Text: t.input[start.Offset:t.offset], Err: ErrUnterminatedString}
		case '\\':
			t.advance()
			if t.peek(0) != eof {
				t.advance()
			}
		case delimiter:
			t.advance()
			return t.emit(STRING, start), nil
		default:
			t.advance()
		}
	}
}

// readRegex reads /pattern/flags
func (t *tokenizer) readRegex(start Position) (Token, error) {
	t.advance() // opening slash

	inClass := false
	for {
		switch r := t.peek(0); {
		case r == eof || r == '\n':
			t.skipToLineEnd()
			return Token{}, &LexError{Pos: start, Text: t.input[start.Offset:t.offset], Err: ErrUnterminatedRegex}
		case r == '\\':
			t.advance()
			if next := t.peek(0); next != eof && next != '\n' {
				t.advance()
			}
		case r == '[':
			inClass = true
			t.advance()
		case r == ']':
			inClass = false
			t.advance()
		case r == '/' && !inClass:
			t.advance()
			for isIdentifierPart(t.peek(0)) {
				t.advance()
			}
			return t.emit(REGEX, start), nil
		default:
			t.advance()
		}
	}
}

// readLineComment reads line comments
func (t *tokenizer) readLineComment(start Position) Token {
	t.skipToLineEnd()
	return t.emit(LINE_COMMENT, start)
}

// readBlockComment reads block comments
func (t *tokenizer) readBlockComment(start Position) (Token, error) {
	t.advance()
	t.advance()

	for {
		switch t.peek(0) {
		case eof:
			return Token{}, &LexError{Pos: start, Text: "/*", Err: ErrUnterminatedComment}
		case '*':
			if t.peek(1) == '/' {
				t.advance()
				t.advance()
				return t.emit(BLOCK_COMMENT, start), nil
			}
		}
		t.advance()
	}
}

// keywordType returns the TokenType corresponding to a word
func keywordType(word string) TokenType {
	switch word {
	case "db":
		return DB
	case "true", "false":
		return BOOLEAN
	case "null":
		return NULL
	default:
		return IDENTIFIER
	}
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// scanNumber returns the byte length of the numeric literal at the head of s:
// optional sign, integer part, optional fraction, optional exponent.
func scanNumber(s string) int {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}

	digits := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == digits {
		return 0
	}

	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}

	return i
}

// scanIdentifier returns the byte length of the identifier at the head of s.
// A leading digit is accepted so that "1abc" lexes as one identifier.
func scanIdentifier(s string) int {
	i := 0
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if i == 0 && !isIdentifierStart(r) && !unicode.IsDigit(r) {
			return 0
		}
		if !isIdentifierPart(r) {
			break
		}
		i += w
	}
	return i
}
