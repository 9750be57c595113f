package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shibukawa/scrapbook/parser"
	"github.com/shibukawa/scrapbook/tokenizer"
)

// materializer turns argument subtrees into plain Go values:
// map[string]any, []any, string, float64, bool and nil.
type materializer struct {
	tree *parser.Tree
	now  func() time.Time
}

func (m *materializer) value(n *parser.Node) (any, error) {
	switch n.Type {
	case parser.ARGUMENT, parser.PROPERTY_VALUE:
		if len(n.Children) == 0 || n.Incomplete {
			return nil, m.unparseable(n)
		}

		return m.value(n.Children[0])
	case parser.LITERAL:
		return m.literal(n)
	case parser.OBJECT_LITERAL:
		return m.object(n)
	case parser.ARRAY_LITERAL:
		return m.array(n)
	case parser.FUNCTION_CALL:
		return m.constructor(n)
	default:
		return nil, m.unparseable(n)
	}
}

func (m *materializer) object(n *parser.Node) (any, error) {
	if n.Incomplete {
		return nil, m.unparseable(n)
	}

	result := map[string]any{}

	for _, assignment := range n.All(parser.PROPERTY_ASSIGNMENT) {
		name := assignment.First(parser.PROPERTY_NAME)
		value := assignment.First(parser.PROPERTY_VALUE)

		if name == nil || value == nil || assignment.Incomplete {
			return nil, m.unparseable(assignment)
		}

		v, err := m.value(value)
		if err != nil {
			return nil, err
		}

		result[stripQuotes(name.Children[0].Token().Value)] = v
	}

	return result, nil
}

func (m *materializer) array(n *parser.Node) (any, error) {
	if n.Incomplete {
		return nil, m.unparseable(n)
	}

	result := []any{}

	elements := n.First(parser.ELEMENT_LIST)
	if elements == nil {
		return result, nil
	}

	for _, element := range elements.All(parser.PROPERTY_VALUE) {
		v, err := m.value(element)
		if err != nil {
			return nil, err
		}

		result = append(result, v)
	}

	return result, nil
}

func (m *materializer) literal(n *parser.Node) (any, error) {
	token := n.Children[0].Token()

	switch token.Type {
	case tokenizer.STRING:
		return unescapeString(token.Value), nil
	case tokenizer.REGEX:
		value, err := regexValue(token.Value)
		if err != nil {
			return nil, m.fail(n, err)
		}

		return value, nil
	default:
		var value any
		if err := json.Unmarshal([]byte(token.Value), &value); err != nil {
			return nil, m.fail(n, fmt.Errorf("%w '%s'", ErrInvalidLiteral, token.Value))
		}

		return value, nil
	}
}

func (m *materializer) unparseable(n *parser.Node) error {
	start := n.StartPosition()
	return m.fail(n, fmt.Errorf("%w '%s' at line %d, column %d", ErrUnparseable, m.tree.Text(n), start.Line+1, start.Column+1))
}

func (m *materializer) fail(n *parser.Node, err error) error {
	return &ValueError{Range: nodeRange(n), Err: err}
}

func nodeRange(n *parser.Node) Range {
	return Range{Start: fromToken(n.StartPosition()), End: fromToken(n.EndPosition())}
}

// stripQuotes removes one pair of surrounding quotes, leaving escapes as written.
func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}

// unescapeString strips the quotes of a string literal and resolves its escape
// sequences. Unknown escapes stand for the escaped character itself.
func unescapeString(raw string) string {
	body := stripQuotes(raw)
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder

	b.Grow(len(body))

	for i := 0; i < len(body); {
		if body[i] != '\\' || i+1 == len(body) {
			b.WriteByte(body[i])
			i++

			continue
		}

		r, width := utf8.DecodeRuneInString(body[i+1:])
		i += 1 + width

		switch r {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			// line continuation
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case '\n', '\u2028', '\u2029':
		case 'x':
			if code, ok := parseHex(body, i, 2); ok {
				b.WriteRune(rune(code))
				i += 2
			} else {
				b.WriteRune(r)
			}
		case 'u':
			code, consumed, ok := parseUnicodeEscape(body, i)
			if ok {
				b.WriteRune(rune(code))
				i += consumed
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func parseHex(s string, start, length int) (uint64, bool) {
	if start+length > len(s) {
		return 0, false
	}

	code, err := strconv.ParseUint(s[start:start+length], 16, 32)

	return code, err == nil
}

// parseUnicodeEscape reads XXXX or {X...} after \u.
func parseUnicodeEscape(s string, start int) (code uint64, consumed int, ok bool) {
	if start < len(s) && s[start] == '{' {
		end := strings.IndexByte(s[start:], '}')
		if end < 2 {
			return 0, 0, false
		}

		code, ok = parseHex(s, start+1, end-1)
		if !ok || code > utf8.MaxRune {
			return 0, 0, false
		}

		return code, end + 1, true
	}

	code, ok = parseHex(s, start, 4)

	return code, 4, ok
}
