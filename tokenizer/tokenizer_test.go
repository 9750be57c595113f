package tokenizer

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func tokenTypes(t *testing.T, input string, options ...TokenizerOptions) []TokenType {
	t.Helper()

	tokenizer := NewMongoTokenizer(input, options...)

	var actualTypes []TokenType
	for token, err := range tokenizer.Tokens() {
		assert.NoError(t, err)
		actualTypes = append(actualTypes, token.Type)
		if token.Type == EOF {
			break
		}
	}

	return actualTypes
}

func TestTokenIterator(t *testing.T) {
	script := "db.foo.find({a:1});"

	expectedTypes := []TokenType{
		DB, DOT, IDENTIFIER, DOT, IDENTIFIER, OPENED_PARENS, OPENED_BRACE, IDENTIFIER, COLON,
		NUMBER, CLOSED_BRACE, CLOSED_PARENS, SEMICOLON, EOF,
	}

	assert.Equal(t, expectedTypes, tokenTypes(t, script))
}

func TestTokenIteratorWithOptions(t *testing.T) {
	script := "// header\ndb.foo.find() /* trailing */\n"

	t.Run("keep comments", func(t *testing.T) {
		expected := []TokenType{
			LINE_COMMENT, DB, DOT, IDENTIFIER, DOT, IDENTIFIER, OPENED_PARENS, CLOSED_PARENS, BLOCK_COMMENT, EOF,
		}
		assert.Equal(t, expected, tokenTypes(t, script, TokenizerOptions{SkipWhitespace: true}))
	})

	t.Run("skip comments", func(t *testing.T) {
		expected := []TokenType{
			DB, DOT, IDENTIFIER, DOT, IDENTIFIER, OPENED_PARENS, CLOSED_PARENS, EOF,
		}
		assert.Equal(t, expected, tokenTypes(t, script, TokenizerOptions{SkipWhitespace: true, SkipComments: true}))
	})

	t.Run("keep whitespace", func(t *testing.T) {
		expected := []TokenType{
			LINE_COMMENT, WHITESPACE, DB, DOT, IDENTIFIER, DOT, IDENTIFIER, OPENED_PARENS, CLOSED_PARENS,
			WHITESPACE, BLOCK_COMMENT, WHITESPACE, EOF,
		}
		assert.Equal(t, expected, tokenTypes(t, script))
	})
}

func TestIteratorEarlyTermination(t *testing.T) {
	tokenizer := NewMongoTokenizer("db.foo.find({a: 1, b: 2});")

	count := 0
	for _, err := range tokenizer.Tokens() {
		assert.NoError(t, err)

		count++

		if count >= 5 {
			break
		}
	}

	assert.Equal(t, 5, count)
}

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "db keyword",
			input:    "db",
			expected: []TokenType{DB, EOF},
		},
		{
			name:     "db prefix is an identifier",
			input:    "dbx",
			expected: []TokenType{IDENTIFIER, EOF},
		},
		{
			name:     "literal keywords",
			input:    "true false null",
			expected: []TokenType{BOOLEAN, BOOLEAN, NULL, EOF},
		},
		{
			name:     "operator names",
			input:    "$gt _id a1",
			expected: []TokenType{IDENTIFIER, IDENTIFIER, IDENTIFIER, EOF},
		},
		{
			name:     "numbers",
			input:    "1 -1 2.5 3e10 -4.5E-3 +7",
			expected: []TokenType{NUMBER, NUMBER, NUMBER, NUMBER, NUMBER, NUMBER, EOF},
		},
		{
			name:     "digits followed by letters is one identifier",
			input:    "1abc",
			expected: []TokenType{IDENTIFIER, EOF},
		},
		{
			name:     "number then dot",
			input:    "1.x",
			expected: []TokenType{NUMBER, DOT, IDENTIFIER, EOF},
		},
		{
			name:     "single quoted string",
			input:    `'abc'`,
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "double quoted string with escaped quote",
			input:    `"a\"b"`,
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "single quote with double inside",
			input:    `'a"b'`,
			expected: []TokenType{STRING, EOF},
		},
		{
			name:     "punctuation",
			input:    "(){}[],:;.",
			expected: []TokenType{OPENED_PARENS, CLOSED_PARENS, OPENED_BRACE, CLOSED_BRACE, OPENED_BRACKET, CLOSED_BRACKET, COMMA, COLON, SEMICOLON, DOT, EOF},
		},
		{
			name:     "regex after colon",
			input:    `{a: /ab\/c[/]d/gi}`,
			expected: []TokenType{OPENED_BRACE, IDENTIFIER, COLON, REGEX, CLOSED_BRACE, EOF},
		},
		{
			name:     "regex as argument",
			input:    `find(/x/, [/y/])`,
			expected: []TokenType{IDENTIFIER, OPENED_PARENS, REGEX, COMMA, OPENED_BRACKET, REGEX, CLOSED_BRACKET, CLOSED_PARENS, EOF},
		},
		{
			name:     "empty regex is a line comment",
			input:    "(//)",
			expected: []TokenType{OPENED_PARENS, LINE_COMMENT, EOF},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, tokenTypes(t, test.input, TokenizerOptions{SkipWhitespace: true}))
		})
	}
}

func TestTokenValues(t *testing.T) {
	tokenizer := NewMongoTokenizer(`db.c.find({'k': "v", r: /ab\b/i, n: -1.5e2})`, TokenizerOptions{SkipWhitespace: true})
	tokens, errs := tokenizer.AllTokens()
	assert.Equal(t, 0, len(errs))

	var values []string
	for _, token := range tokens {
		switch token.Type {
		case STRING, REGEX, NUMBER:
			values = append(values, token.Value)
		}
	}

	assert.Equal(t, []string{`'k'`, `"v"`, `/ab\b/i`, `-1.5e2`}, values)
}

func TestTokenPositions(t *testing.T) {
	tokenizer := NewMongoTokenizer("db.foo\n  .find()", TokenizerOptions{SkipWhitespace: true})
	tokens, errs := tokenizer.AllTokens()
	assert.Equal(t, 0, len(errs))

	// db . foo . find ( ) EOF
	assert.Equal(t, 8, len(tokens))

	assert.Equal(t, Position{Line: 0, Column: 0, Offset: 0}, tokens[0].Position)
	assert.Equal(t, Position{Line: 0, Column: 2, Offset: 2}, tokens[0].End)

	find := tokens[4]
	assert.Equal(t, "find", find.Value)
	assert.Equal(t, Position{Line: 1, Column: 3, Offset: 10}, find.Position)
	assert.Equal(t, Position{Line: 1, Column: 7, Offset: 14}, find.End)

	eof := tokens[7]
	assert.Equal(t, EOF, eof.Type)
	assert.Equal(t, Position{Line: 1, Column: 9, Offset: 16}, eof.Position)
}

func TestMultibyteColumns(t *testing.T) {
	tokenizer := NewMongoTokenizer(`db.c.find({"名前": 1})`, TokenizerOptions{SkipWhitespace: true})
	tokens, errs := tokenizer.AllTokens()
	assert.Equal(t, 0, len(errs))

	colon := tokens[8]
	assert.Equal(t, COLON, colon.Type)
	assert.Equal(t, 15, colon.Position.Column)
	assert.Equal(t, 19, colon.Position.Offset)
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		err       error
		pos       Position
		lastTypes []TokenType
	}{
		{
			name:      "unexpected character",
			input:     "db.c.find(#)",
			err:       ErrUnexpectedCharacter,
			pos:       Position{Line: 0, Column: 10, Offset: 10},
			lastTypes: []TokenType{OPENED_PARENS, CLOSED_PARENS, EOF},
		},
		{
			name:      "division is not part of the language",
			input:     "db.c/2",
			err:       ErrUnexpectedCharacter,
			pos:       Position{Line: 0, Column: 4, Offset: 4},
			lastTypes: []TokenType{IDENTIFIER, NUMBER, EOF},
		},
		{
			name:      "unterminated string stops at line end",
			input:     "db.c.find('abc\ndb.d.drop()",
			err:       ErrUnterminatedString,
			pos:       Position{Line: 0, Column: 10, Offset: 10},
			lastTypes: []TokenType{IDENTIFIER, OPENED_PARENS, CLOSED_PARENS, EOF},
		},
		{
			name:      "unterminated regex",
			input:     "db.c.find(/abc",
			err:       ErrUnterminatedRegex,
			pos:       Position{Line: 0, Column: 10, Offset: 10},
			lastTypes: []TokenType{IDENTIFIER, OPENED_PARENS, EOF},
		},
		{
			name:      "unterminated block comment",
			input:     "db.c.find() /* abc",
			err:       ErrUnterminatedComment,
			pos:       Position{Line: 0, Column: 12, Offset: 12},
			lastTypes: []TokenType{OPENED_PARENS, CLOSED_PARENS, EOF},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokenizer := NewMongoTokenizer(test.input, TokenizerOptions{SkipWhitespace: true})
			tokens, errs := tokenizer.AllTokens()

			assert.Equal(t, 1, len(errs))
			assert.True(t, errors.Is(errs[0], test.err))

			var lexErr *LexError
			assert.True(t, errors.As(errs[0], &lexErr))
			assert.Equal(t, test.pos, lexErr.Pos)

			var types []TokenType
			for _, token := range tokens[len(tokens)-len(test.lastTypes):] {
				types = append(types, token.Type)
			}
			assert.Equal(t, test.lastTypes, types)
		})
	}
}

type recordingListener struct {
	positions []Position
	errs      []error
}

func (r *recordingListener) SyntaxError(pos Position, offending string, err error) {
	r.positions = append(r.positions, pos)
	r.errs = append(r.errs, err)
}

func TestTokenizeReportsToListener(t *testing.T) {
	listener := &recordingListener{}
	tokens := Tokenize("db.c.find(@)\n// note\ndb.d.drop(~)", listener)

	assert.Equal(t, []Position{
		{Line: 0, Column: 10, Offset: 10},
		{Line: 2, Column: 10, Offset: 31},
	}, listener.positions)

	comments := 0
	for _, token := range tokens {
		assert.NotEqual(t, WHITESPACE, token.Type)
		if token.Type == LINE_COMMENT {
			comments++
		}
	}
	assert.Equal(t, 1, comments)
	assert.Equal(t, EOF, tokens[len(tokens)-1].Type)
}
