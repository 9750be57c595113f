package command

import (
	"github.com/shibukawa/scrapbook/parser"
)

// Parse parses a scrapbook and returns its commands in source order.
// Malformed input never fails the call; lexical, syntax and value errors are
// attached to the commands they occur in.
func Parse(text string, opts ...Option) []Command {
	o := newOptions(opts)

	tree, errs := parser.Parse(text)

	o.logger.Debug("parsed scrapbook", "bytes", len(text), "syntaxErrors", len(errs))

	return Extract(tree, errs, opts...)
}

// CommandAt parses text and returns the command at pos, as Locate does.
func CommandAt(text string, pos Position, opts ...Option) *Command {
	commands := Parse(text, opts...)
	return Locate(commands, &pos)
}

// Diagnostics flattens the errors of all commands in command order.
func Diagnostics(commands []Command) []ErrorDescription {
	var result []ErrorDescription
	for _, command := range commands {
		result = append(result, command.Errors...)
	}

	return result
}

// Shift moves the commands and their errors down by lines, for scripts
// embedded at an offset in a larger document.
func Shift(commands []Command, lines int) {
	for i := range commands {
		command := &commands[i]
		command.Range = command.Range.shift(lines)

		for j := range command.Errors {
			command.Errors[j].Range = command.Errors[j].Range.shift(lines)
		}
	}
}
