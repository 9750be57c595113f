package command

import (
	"errors"
	"slices"
	"strings"

	"github.com/shibukawa/scrapbook/parser"
)

// builder accumulates commands while walking a tree. current is the command
// the visited nodes belong to.
type builder struct {
	tree     *parser.Tree
	values   *materializer
	commands []Command
	current  *Command
}

// Extract walks the parse tree and returns its commands in source order,
// with errs attached to the command that contains each error position.
func Extract(tree *parser.Tree, errs []parser.SyntaxError, opts ...Option) []Command {
	if tree == nil || tree.Root == nil {
		panic("command: Extract called with nil tree")
	}

	o := newOptions(opts)

	b := &builder{
		tree:   tree,
		values: &materializer{tree: tree, now: o.now},
	}

	for _, node := range tree.Root.Children {
		if node.Type == parser.COMMAND {
			b.visitCommand(node)
		}
	}

	b.mergeErrors(errs)

	o.logger.Debug("extracted commands", "commands", len(b.commands), "syntaxErrors", len(errs))

	return b.commands
}

func (b *builder) visitCommand(node *parser.Node) {
	start, end := node.StartPosition(), node.EndPosition()

	b.commands = append(b.commands, Command{
		Range:   Range{Start: fromToken(start), End: fromToken(end)},
		Text:    b.tree.Source[start.Offset:end.Offset],
		Chained: len(node.All(parser.FUNCTION_CALL)) > 1,
	})
	b.current = &b.commands[len(b.commands)-1]

	for _, child := range node.Children {
		switch child.Type {
		case parser.COLLECTION:
			b.visitCollection(child)
		case parser.FUNCTION_CALL:
			b.visitFunctionCall(child)
		}
	}

	b.current = nil
}

func (b *builder) visitCollection(node *parser.Node) {
	var name strings.Builder
	for _, terminal := range node.Children {
		name.WriteString(terminal.Token().Value)
	}

	b.current.Collection = name.String()
}

// visitFunctionCall records the first call of a statement. Arguments of later
// calls in a chain are still materialized, but only their errors are kept.
func (b *builder) visitFunctionCall(node *parser.Node) {
	first := b.current.Name == ""
	if first {
		b.current.Name = node.Children[0].Token().Value
	}

	arguments := node.First(parser.ARGUMENTS)
	if arguments == nil {
		return
	}

	for _, argument := range arguments.All(parser.ARGUMENT) {
		value := b.visitArgument(argument)
		if first {
			b.current.Arguments = append(b.current.Arguments, b.tree.Text(argument))
			b.current.ArgumentObjects = append(b.current.ArgumentObjects, value)
		}
	}
}

// visitArgument never fails: a value that cannot be materialized becomes an
// error on the command and an empty document.
func (b *builder) visitArgument(node *parser.Node) any {
	value, err := b.values.value(node)
	if err != nil {
		r := nodeRange(node)

		var valueErr *ValueError
		if errors.As(err, &valueErr) {
			r = valueErr.Range
		}

		b.current.addError(r, err.Error())

		return map[string]any{}
	}

	return value
}

// mergeErrors attaches each lexical or syntax error to the command whose range
// contains it. Errors outside every command get a zero-width command of their own.
func (b *builder) mergeErrors(errs []parser.SyntaxError) {
	for _, err := range errs {
		pos := fromToken(err.Position)
		description := ErrorDescription{Range: Range{Start: pos, End: pos}, Message: err.Message}

		if command := b.owner(pos); command != nil {
			command.Errors = append(command.Errors, description)
			continue
		}

		index, _ := slices.BinarySearchFunc(b.commands, pos, func(c Command, p Position) int {
			switch {
			case c.Range.Start.Before(p):
				return -1
			case p.Before(c.Range.Start):
				return 1
			default:
				return 0
			}
		})

		b.commands = slices.Insert(b.commands, index, Command{
			Range:  description.Range,
			Errors: []ErrorDescription{description},
		})
	}
}

// owner finds the command containing pos. The end position only counts when
// no command starts there, which keeps errors at EOF with the statement they cut off.
func (b *builder) owner(pos Position) *Command {
	for i := range b.commands {
		if b.commands[i].Range.containsHalfOpen(pos) {
			return &b.commands[i]
		}
	}

	for i := range b.commands {
		if b.commands[i].Range.Contains(pos) {
			return &b.commands[i]
		}
	}

	return nil
}
