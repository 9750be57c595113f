package parsercommon

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	pc "github.com/shibukawa/parsercombinator"
	tok "github.com/shibukawa/scrapbook/tokenizer"
)

func tokens(t *testing.T, src string) []pc.Token[tok.Token] {
	t.Helper()

	return ToParserToken(tok.Tokenize(src, nil))
}

func newContext() *pc.ParseContext[tok.Token] {
	pctx := &pc.ParseContext[tok.Token]{}
	pctx.OrMode = pc.OrModeTryFast

	return pctx
}

func TestToParserToken(t *testing.T) {
	result := tokens(t, "db\n  .foo")
	assert.Equal(t, 4, len(result))

	assert.Equal(t, "db", result[0].Raw)
	assert.Equal(t, tok.DOT, result[1].Val.Type)
	assert.Equal(t, &pc.Pos{Line: 1, Col: 2, Index: 5}, result[1].Pos)
	assert.Equal(t, tok.EOF, result[3].Val.Type)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		parser pc.Parser[tok.Token]
		src    string
		skip   int
		match  bool
	}{
		{name: "literal string", parser: Literal, src: `"a"`, match: true},
		{name: "literal regex", parser: Literal, src: `(/a/i`, skip: 1, match: true},
		{name: "literal regex after colon", parser: Literal, src: `a: /^x$/`, skip: 2, match: true},
		{name: "literal identifier", parser: Literal, src: `a`, match: false},
		{name: "db as identifier", parser: Identifier, src: `db`, match: true},
		{name: "quoted property name", parser: PropertyName, src: `'key'`, match: true},
		{name: "number is not a property name", parser: PropertyName, src: `1`, match: false},
		{name: "call start", parser: CallStart, src: `find(`, match: true},
		{name: "call start without paren", parser: CallStart, src: `find`, match: false},
		{name: "collection segment", parser: CollectionSegment, src: `.users.find()`, match: true},
		{name: "call is not a collection segment", parser: CollectionSegment, src: `.find()`, match: false},
		{name: "boundary semicolon", parser: StatementBoundary, src: `;`, match: true},
		{name: "boundary db", parser: StatementBoundary, src: `db`, match: true},
		{name: "boundary end", parser: StatementBoundary, src: ``, match: true},
		{name: "boundary brace", parser: StatementBoundary, src: `}`, match: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.match, Matches(newContext(), test.parser, tokens(t, test.src)[test.skip:]))
		})
	}
}

func TestFindStatementBoundary(t *testing.T) {
	skipped, match, _, _, found := pc.Find(newContext(), StatementBoundary, tokens(t, "a ) } ; db"))
	assert.True(t, found)
	assert.Equal(t, 3, len(skipped))
	assert.Equal(t, tok.SEMICOLON, match[0].Val.Type)
}
