package parser

import (
	"fmt"

	pc "github.com/shibukawa/parsercombinator"
	cmn "github.com/shibukawa/scrapbook/parser/parsercommon"
	"github.com/shibukawa/scrapbook/tokenizer"
)

// Parser is a recursive descent parser for MongoDB shell scripts.
// It does not stop at the first error. Each syntax error is reported once to
// the listener and parsing resumes at the next argument or statement.
type Parser struct {
	tokens   []pc.Token[tokenizer.Token] // significant tokens, EOF last
	current  int
	comments []tokenizer.Token
	comment  int
	listener tokenizer.ErrorListener
	pctx     *pc.ParseContext[tokenizer.Token]
}

// NewParser creates a parser over tokens as returned by tokenizer.Tokenize.
// Whitespace is dropped and comments are kept aside for COMMENT nodes.
func NewParser(tokens []tokenizer.Token, listener tokenizer.ErrorListener) *Parser {
	significant := make([]tokenizer.Token, 0, len(tokens)+1)

	var comments []tokenizer.Token

	for _, token := range tokens {
		switch {
		case token.Type == tokenizer.WHITESPACE:
		case token.Type.IsComment():
			comments = append(comments, token)
		default:
			significant = append(significant, token)
		}
	}

	if len(significant) == 0 || significant[len(significant)-1].Type != tokenizer.EOF {
		var end tokenizer.Position
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}

		significant = append(significant, tokenizer.Token{Type: tokenizer.EOF, Position: end, End: end})
	}

	if listener == nil {
		listener = NewErrorCollector()
	}

	pctx := &pc.ParseContext[tokenizer.Token]{}
	pctx.OrMode = pc.OrModeTryFast

	return &Parser{
		tokens:   cmn.ToParserToken(significant),
		comments: comments,
		listener: listener,
		pctx:     pctx,
	}
}

// Parse tokenizes and parses source. Lexical and syntax errors are returned
// together, ordered by position.
func Parse(source string) (*Tree, []SyntaxError) {
	lexErrors := NewErrorCollector()
	tokens := tokenizer.Tokenize(source, lexErrors)

	parseErrors := NewErrorCollector()
	root := NewParser(tokens, parseErrors).Parse()

	return &Tree{Root: root, Source: source}, MergeErrors(lexErrors, parseErrors)
}

// Parse parses the whole token stream into a COMMANDS node.
//
//	commands : (command | emptyCommand | comment)* EOF
func (p *Parser) Parse() *Node {
	root := &Node{Type: COMMANDS}

	for {
		p.flushComments(root, p.currentToken().Position.Offset)

		switch p.currentToken().Type {
		case tokenizer.EOF:
			if root.Empty() {
				eof := p.currentToken()
				root.Start, root.Stop, root.spanned = eof, eof, true
			}

			return root
		case tokenizer.SEMICOLON:
			empty := &Node{Type: EMPTY_COMMAND}
			empty.Add(p.terminal())
			root.Add(empty)
		case tokenizer.DB:
			command := p.parseCommand()
			p.skipComments(command.EndPosition().Offset)
			root.Add(command)
		default:
			p.unexpected("'db' or ';'")
			root.Add(p.skipStray())
		}
	}
}

// parseCommand parses one statement.
//
//	command : DB ('.' collection)? ('.' functionCall)+ ';'?
func (p *Parser) parseCommand() *Node {
	command := &Node{Type: COMMAND}
	command.Add(p.terminal()) // db

	if p.matches(cmn.CollectionSegment) {
		command.Add(p.terminal()) // '.'
		command.Add(p.parseCollection())
	}

	calls := 0

	for {
		if !p.check(tokenizer.DOT) {
			if calls > 0 {
				break
			}

			p.unexpected("'.'")
			p.recoverStatement(command)

			return command
		}

		command.Add(p.terminal()) // '.'

		call, err := p.parseFunctionCall()
		command.Add(call)

		if err != nil {
			p.recoverStatement(command)
			return command
		}

		calls++
	}

	if p.check(tokenizer.SEMICOLON) {
		command.Add(p.terminal())
	}

	return command
}

// parseCollection parses a possibly dotted collection name.
//
//	collection : IDENT ('.' IDENT)*
func (p *Parser) parseCollection() *Node {
	collection := &Node{Type: COLLECTION}
	collection.Add(p.terminal())

	for p.matches(cmn.CollectionSegment) {
		collection.Add(p.terminal()) // '.'
		collection.Add(p.terminal())
	}

	return collection
}

// parseFunctionCall parses name '(' arguments ')'.
func (p *Parser) parseFunctionCall() (*Node, error) {
	if !p.matches(cmn.Identifier) {
		return nil, p.unexpected("function name")
	}

	call := &Node{Type: FUNCTION_CALL}
	call.Add(p.terminal())

	if !p.check(tokenizer.OPENED_PARENS) {
		call.Incomplete = true
		return call, p.unexpected("'('")
	}

	arguments, err := p.parseArguments()
	call.Add(arguments)

	if err != nil {
		call.Incomplete = true
		return call, err
	}

	return call, nil
}

// parseArguments parses '(' (argument (',' argument)*)? ')'. A malformed
// argument is skipped up to the next ',' or ')' and kept as an ERROR node.
func (p *Parser) parseArguments() (*Node, error) {
	arguments := &Node{Type: ARGUMENTS}
	arguments.Add(p.terminal()) // '('

	if p.check(tokenizer.CLOSED_PARENS) {
		arguments.Add(p.terminal())
		return arguments, nil
	}

	for {
		start := p.current

		argument, err := p.parseArgument()
		if err != nil {
			skipped, resumed := p.skipArgument(start)
			if skipped != nil {
				argument = &Node{Type: ARGUMENT}
				argument.Add(skipped)
			}

			if !resumed {
				arguments.Add(argument)
				arguments.Incomplete = true

				return arguments, errRecover
			}
		}

		arguments.Add(argument)

		switch {
		case p.check(tokenizer.COMMA):
			arguments.Add(p.terminal())
		case p.check(tokenizer.CLOSED_PARENS):
			arguments.Add(p.terminal())
			return arguments, nil
		default:
			arguments.Incomplete = true
			return arguments, p.unexpected("',' or ')'")
		}
	}
}

//	argument : objectLiteral | arrayLiteral | literal
func (p *Parser) parseArgument() (*Node, error) {
	var (
		value *Node
		err   error
	)

	switch {
	case p.check(tokenizer.OPENED_BRACE):
		value, err = p.parseObjectLiteral()
	case p.check(tokenizer.OPENED_BRACKET):
		value, err = p.parseArrayLiteral()
	case p.matches(cmn.Literal):
		value = p.parseLiteral()
	default:
		return nil, p.unexpected("a value")
	}

	if err != nil {
		return nil, err
	}

	argument := &Node{Type: ARGUMENT}
	argument.Add(value)

	return argument, nil
}

//	objectLiteral : '{' (propertyAssignment (',' propertyAssignment)* ','?)? '}'
func (p *Parser) parseObjectLiteral() (*Node, error) {
	object := &Node{Type: OBJECT_LITERAL}
	object.Add(p.terminal()) // '{'

	if p.check(tokenizer.CLOSED_BRACE) {
		object.Add(p.terminal())
		return object, nil
	}

	for {
		assignment, err := p.parsePropertyAssignment()
		object.Add(assignment)

		if err != nil {
			object.Incomplete = true
			return object, err
		}

		switch {
		case p.check(tokenizer.COMMA):
			object.Add(p.terminal())

			if p.check(tokenizer.CLOSED_BRACE) {
				object.Add(p.terminal())
				return object, nil
			}
		case p.check(tokenizer.CLOSED_BRACE):
			object.Add(p.terminal())
			return object, nil
		default:
			object.Incomplete = true
			return object, p.unexpected("',' or '}'")
		}
	}
}

//	propertyAssignment : propertyName ':' propertyValue
func (p *Parser) parsePropertyAssignment() (*Node, error) {
	if !p.matches(cmn.PropertyName) {
		return nil, p.unexpected("property name or '}'")
	}

	assignment := &Node{Type: PROPERTY_ASSIGNMENT}

	name := &Node{Type: PROPERTY_NAME}
	name.Add(p.terminal())
	assignment.Add(name)

	if !p.check(tokenizer.COLON) {
		assignment.Incomplete = true
		return assignment, p.unexpected("':'")
	}

	assignment.Add(p.terminal())

	value, err := p.parsePropertyValue()
	assignment.Add(value)

	if err != nil {
		assignment.Incomplete = true
		return assignment, err
	}

	return assignment, nil
}

//	propertyValue : literal | objectLiteral | arrayLiteral | functionCall
func (p *Parser) parsePropertyValue() (*Node, error) {
	var (
		inner *Node
		err   error
	)

	switch {
	case p.check(tokenizer.OPENED_BRACE):
		inner, err = p.parseObjectLiteral()
	case p.check(tokenizer.OPENED_BRACKET):
		inner, err = p.parseArrayLiteral()
	case p.matches(cmn.CallStart):
		inner, err = p.parseFunctionCall()
	case p.matches(cmn.Literal):
		inner = p.parseLiteral()
	default:
		return nil, p.unexpected("a value")
	}

	if inner == nil {
		return nil, err
	}

	value := &Node{Type: PROPERTY_VALUE}
	value.Add(inner)
	value.Incomplete = err != nil

	return value, err
}

//	arrayLiteral : '[' elementList? ']'
//	elementList  : propertyValue (',' propertyValue)* ','?
func (p *Parser) parseArrayLiteral() (*Node, error) {
	array := &Node{Type: ARRAY_LITERAL}
	array.Add(p.terminal()) // '['

	if p.check(tokenizer.CLOSED_BRACKET) {
		array.Add(p.terminal())
		return array, nil
	}

	elements := &Node{Type: ELEMENT_LIST}
	array.Add(elements)

	for {
		value, err := p.parsePropertyValue()
		elements.Add(value)

		if err != nil {
			elements.Incomplete = true
			array.Incomplete = true

			return array, err
		}

		if p.check(tokenizer.COMMA) {
			elements.Add(p.terminal())

			if !p.check(tokenizer.CLOSED_BRACKET) {
				continue
			}
		}

		if p.check(tokenizer.CLOSED_BRACKET) {
			array.Add(p.terminal())
			return array, nil
		}

		array.Incomplete = true

		return array, p.unexpected("',' or ']'")
	}
}

func (p *Parser) parseLiteral() *Node {
	literal := &Node{Type: LITERAL}
	literal.Add(p.terminal())

	return literal
}

// skipArgument skips the rest of a malformed argument that began at start.
// Scanning stops before a ',' or ')' at bracket depth zero; resumed is false
// when a statement boundary or EOF came first.
func (p *Parser) skipArgument(start int) (skipped *Node, resumed bool) {
	p.current = max(p.current, start)

	// brackets the failed rule already consumed are still open
	depth := 0
	for _, token := range p.tokens[start:p.current] {
		switch token.Val.Type {
		case tokenizer.OPENED_PARENS, tokenizer.OPENED_BRACE, tokenizer.OPENED_BRACKET:
			depth++
		case tokenizer.CLOSED_PARENS, tokenizer.CLOSED_BRACE, tokenizer.CLOSED_BRACKET:
			depth = max(depth-1, 0)
		}
	}

scan:
	for {
		switch p.currentToken().Type {
		case tokenizer.EOF, tokenizer.SEMICOLON, tokenizer.DB:
			break scan
		case tokenizer.OPENED_PARENS, tokenizer.OPENED_BRACE, tokenizer.OPENED_BRACKET:
			depth++
		case tokenizer.CLOSED_BRACE, tokenizer.CLOSED_BRACKET:
			depth = max(depth-1, 0)
		case tokenizer.CLOSED_PARENS:
			if depth == 0 {
				resumed = true
				break scan
			}

			depth--
		case tokenizer.COMMA:
			if depth == 0 {
				resumed = true
				break scan
			}
		}

		p.current++
	}

	return p.errorNode(start, p.current), resumed
}

// recoverStatement resynchronizes on the next statement boundary. A ';' is
// consumed into the broken command, a 'db' is left for the next statement.
// A command cut off by EOF spans up to the end of input.
func (p *Parser) recoverStatement(command *Node) {
	command.Incomplete = true

	skipped, match, _, _, found := pc.Find(p.pctx, cmn.StatementBoundary, p.tokens[p.current:])
	if !found {
		command.Add(p.errorNode(p.current, len(p.tokens)-1))
		p.current = len(p.tokens) - 1

		return
	}

	start := p.current
	p.current += len(skipped)
	command.Add(p.errorNode(start, p.current))

	switch match[0].Val.Type {
	case tokenizer.SEMICOLON:
		command.Add(p.terminal())
	case tokenizer.EOF:
		command.Add(newTerminal(TERMINAL, match[0].Val))
	}
}

// skipStray skips tokens that cannot start a statement.
func (p *Parser) skipStray() *Node {
	start := p.current
	p.current++

	skipped, _, _, _, found := pc.Find(p.pctx, cmn.StatementBoundary, p.tokens[p.current:])
	if found {
		p.current += len(skipped)
	} else {
		p.current = len(p.tokens) - 1
	}

	return p.errorNode(start, p.current)
}

func (p *Parser) errorNode(start, end int) *Node {
	if start >= end {
		return nil
	}

	node := &Node{Type: ERROR}
	for _, token := range p.tokens[start:end] {
		node.Add(newTerminal(TERMINAL, token.Val))
	}

	return node
}

// unexpected reports the current token as a syntax error.
func (p *Parser) unexpected(expected string) error {
	token := p.currentToken()

	var err error
	if token.Type == tokenizer.EOF {
		err = fmt.Errorf("%w, expected %s", ErrUnexpectedEOF, expected)
	} else {
		err = fmt.Errorf("%w '%s', expected %s", ErrUnexpectedToken, token.Value, expected)
	}

	p.listener.SyntaxError(token.Position, token.Value, err)

	return errRecover
}

func (p *Parser) flushComments(parent *Node, before int) {
	for p.comment < len(p.comments) && p.comments[p.comment].Position.Offset < before {
		parent.Add(newTerminal(COMMENT, p.comments[p.comment]))
		p.comment++
	}
}

func (p *Parser) skipComments(before int) {
	for p.comment < len(p.comments) && p.comments[p.comment].Position.Offset < before {
		p.comment++
	}
}

// Helper methods

func (p *Parser) currentToken() tokenizer.Token {
	return p.tokens[min(p.current, len(p.tokens)-1)].Val
}

func (p *Parser) isAtEnd() bool {
	return p.currentToken().Type == tokenizer.EOF
}

// terminal consumes the current token as a TERMINAL node. EOF is never consumed.
func (p *Parser) terminal() *Node {
	node := newTerminal(TERMINAL, p.currentToken())
	if !p.isAtEnd() {
		p.current++
	}

	return node
}

func (p *Parser) check(tokenType tokenizer.TokenType) bool {
	return p.currentToken().Type == tokenType
}

func (p *Parser) matches(parser pc.Parser[tokenizer.Token]) bool {
	return cmn.Matches(p.pctx, parser, p.tokens[p.current:])
}
