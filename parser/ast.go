package parser

import (
	"strings"

	"github.com/shibukawa/scrapbook/tokenizer"
)

// NodeType identifies a grammar rule of the shell script syntax tree.
type NodeType int

const (
	COMMANDS NodeType = iota
	COMMAND
	EMPTY_COMMAND
	COLLECTION
	FUNCTION_CALL
	ARGUMENTS
	ARGUMENT
	OBJECT_LITERAL
	ARRAY_LITERAL
	ELEMENT_LIST
	PROPERTY_ASSIGNMENT
	PROPERTY_NAME
	PROPERTY_VALUE
	LITERAL
	COMMENT
	TERMINAL
	ERROR // tokens skipped during error recovery
)

func (n NodeType) String() string {
	switch n {
	case COMMANDS:
		return "COMMANDS"
	case COMMAND:
		return "COMMAND"
	case EMPTY_COMMAND:
		return "EMPTY_COMMAND"
	case COLLECTION:
		return "COLLECTION"
	case FUNCTION_CALL:
		return "FUNCTION_CALL"
	case ARGUMENTS:
		return "ARGUMENTS"
	case ARGUMENT:
		return "ARGUMENT"
	case OBJECT_LITERAL:
		return "OBJECT_LITERAL"
	case ARRAY_LITERAL:
		return "ARRAY_LITERAL"
	case ELEMENT_LIST:
		return "ELEMENT_LIST"
	case PROPERTY_ASSIGNMENT:
		return "PROPERTY_ASSIGNMENT"
	case PROPERTY_NAME:
		return "PROPERTY_NAME"
	case PROPERTY_VALUE:
		return "PROPERTY_VALUE"
	case LITERAL:
		return "LITERAL"
	case COMMENT:
		return "COMMENT"
	case TERMINAL:
		return "TERMINAL"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Node is a syntax tree node. Start and Stop are the first and last tokens
// the node spans; for TERMINAL and COMMENT nodes they are the same token.
type Node struct {
	Type       NodeType
	Children   []*Node
	Start      tokenizer.Token
	Stop       tokenizer.Token
	Incomplete bool // the rule was cut short by a syntax error

	spanned bool
}

func newTerminal(nodeType NodeType, token tokenizer.Token) *Node {
	return &Node{Type: nodeType, Start: token, Stop: token, spanned: true}
}

// Add appends child and widens the node's token span.
func (n *Node) Add(child *Node) {
	if child == nil {
		return
	}

	n.Children = append(n.Children, child)

	if !child.spanned {
		return
	}

	if !n.spanned {
		n.Start = child.Start
		n.spanned = true
	}

	n.Stop = child.Stop
}

// Empty reports whether the node spans no tokens.
func (n *Node) Empty() bool {
	return !n.spanned
}

// Token returns the token of a TERMINAL or COMMENT node.
func (n *Node) Token() tokenizer.Token {
	return n.Start
}

// StartPosition is where the first token of the node begins.
func (n *Node) StartPosition() tokenizer.Position {
	return n.Start.Position
}

// EndPosition is right after the last token of the node.
func (n *Node) EndPosition() tokenizer.Position {
	return n.Stop.End
}

// First returns the first direct child of the given type.
func (n *Node) First(nodeType NodeType) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}

	return nil
}

// All returns the direct children of the given type.
func (n *Node) All(nodeType NodeType) []*Node {
	var result []*Node

	for _, child := range n.Children {
		if child.Type == nodeType {
			result = append(result, child)
		}
	}

	return result
}

// HasError reports whether the subtree holds an ERROR node or an incomplete rule.
func (n *Node) HasError() bool {
	found := false

	Walk(n, func(node *Node) bool {
		if node.Type == ERROR || node.Incomplete {
			found = true
		}

		return !found
	})

	return found
}

// Walk visits the subtree in pre-order. Returning false from fn skips the
// children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// Tree is the parse result together with the source it was built from.
type Tree struct {
	Root   *Node
	Source string
}

// Text returns the exact source text the node spans.
func (t *Tree) Text(n *Node) string {
	if n == nil || n.Empty() {
		return ""
	}

	start := n.Start.Position.Offset
	end := n.Stop.End.Offset

	if start < 0 || end > len(t.Source) || start > end {
		return ""
	}

	return t.Source[start:end]
}

// Dump renders the tree as an indented outline, one node per line.
func (t *Tree) Dump() string {
	var b strings.Builder

	var dump func(n *Node, depth int)
	dump = func(n *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Type.String())

		if n.Type == TERMINAL || n.Type == COMMENT {
			b.WriteString(" ")
			b.WriteString(n.Token().Value)
		}

		if n.Incomplete {
			b.WriteString(" (incomplete)")
		}

		b.WriteString("\n")

		for _, child := range n.Children {
			dump(child, depth+1)
		}
	}

	if t.Root != nil {
		dump(t.Root, 0)
	}

	return b.String()
}
