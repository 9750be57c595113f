package parsercommon

import (
	"slices"

	pc "github.com/shibukawa/parsercombinator"
	tok "github.com/shibukawa/scrapbook/tokenizer"
)

var (
	// DB parses the db keyword.
	DB = PrimitiveType("db", tok.DB)
	// Dot parses a dot token.
	Dot = PrimitiveType("dot", tok.DOT)
	// ParenOpen parses an opening parenthesis.
	ParenOpen = PrimitiveType("parenOpen", tok.OPENED_PARENS)
	// ParenClose parses a closing parenthesis.
	ParenClose = PrimitiveType("parenClose", tok.CLOSED_PARENS)
	// BraceOpen parses an opening brace.
	BraceOpen = PrimitiveType("braceOpen", tok.OPENED_BRACE)
	// BraceClose parses a closing brace.
	BraceClose = PrimitiveType("braceClose", tok.CLOSED_BRACE)
	// BracketOpen parses an opening bracket.
	BracketOpen = PrimitiveType("bracketOpen", tok.OPENED_BRACKET)
	// BracketClose parses a closing bracket.
	BracketClose = PrimitiveType("bracketClose", tok.CLOSED_BRACKET)
	// Comma parses a comma delimiter.
	Comma = PrimitiveType("comma", tok.COMMA)
	// Colon parses a colon.
	Colon = PrimitiveType("colon", tok.COLON)
	// Semicolon parses a statement terminator.
	Semicolon = PrimitiveType("semicolon", tok.SEMICOLON)

	// Number parses a numeric literal.
	Number = PrimitiveType("number", tok.NUMBER)
	// String parses a string literal.
	String = PrimitiveType("string", tok.STRING)
	// Boolean parses a boolean literal.
	Boolean = PrimitiveType("boolean", tok.BOOLEAN)
	// Null parses a null literal.
	Null = PrimitiveType("null", tok.NULL)
	// Regex parses a regular expression literal.
	Regex = PrimitiveType("regex", tok.REGEX)
	// Literal parses any primitive literal.
	Literal = pc.Or(String, Null, Boolean, Number, Regex)

	// Identifier parses a name. db is accepted as a name where a name is expected.
	Identifier = PrimitiveType("identifier", tok.IDENTIFIER, tok.DB)
	// PropertyName parses the key part of a property assignment.
	PropertyName = PrimitiveType("propertyName", tok.IDENTIFIER, tok.DB, tok.STRING)

	// CallStart parses the head of a function call: name '('.
	CallStart = pc.Seq(Identifier, ParenOpen)
	// CollectionSegment parses '.' name when the name does not start a call.
	CollectionSegment = collectionSegment

	// StatementBoundary parses the tokens a broken statement resynchronizes on.
	StatementBoundary = PrimitiveType("statementBoundary", tok.SEMICOLON, tok.DB, tok.EOF)

	// EOS matches end of stream.
	EOS = pc.EOS[tok.Token]()
)

func collectionSegment(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
	consumed, matched, err := pc.Seq(Dot, Identifier)(pctx, tokens)
	if err != nil {
		return 0, nil, err
	}

	if _, _, err := CallStart(pctx, tokens[1:]); err == nil {
		return 0, nil, pc.ErrNotMatch
	}

	return consumed, matched, nil
}

// PrimitiveType parses one token of the given types.
func PrimitiveType(typeName string, types ...tok.TokenType) pc.Parser[tok.Token] {
	return func(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
		if len(tokens) > 0 && slices.Contains(types, tokens[0].Val.Type) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

// Matches runs parser at the head of tokens and reports whether it succeeded.
func Matches(pctx *pc.ParseContext[tok.Token], parser pc.Parser[tok.Token], tokens []pc.Token[tok.Token]) bool {
	_, _, err := parser(pctx, tokens)
	return err == nil
}

func ToParserToken(tokens []tok.Token) []pc.Token[tok.Token] {
	results := make([]pc.Token[tok.Token], len(tokens))

	for i, token := range tokens {
		pcToken := pc.Token[tok.Token]{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  token.Position.Line,
				Col:   token.Position.Column,
				Index: token.Position.Offset,
			},
			Val: token,
			Raw: token.Value,
		}
		results[i] = pcToken
	}

	return results
}
