// Package filter selects commands with CEL expressions.
//
// An expression sees these variables for each command:
//
//	name        string  first function called ("find")
//	collection  string  collection name, empty for db-level calls
//	kind        string  read, write, admin or unknown
//	chained     bool    further calls follow the first one
//	errors      int     number of attached errors
//	line        int     1-based start line
//	text        string  source text of the command
//	arguments   list    materialized arguments
package filter

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/shibukawa/scrapbook/command"
	"github.com/shibukawa/scrapbook/dispatch"
)

// Sentinel errors
var (
	ErrInvalidFilter    = errors.New("invalid filter expression")
	ErrNotBoolean       = errors.New("filter expression must evaluate to bool")
	ErrFilterEvaluation = errors.New("filter evaluation error")
)

// Filter is a compiled filter expression. It is safe for concurrent use.
type Filter struct {
	expression string
	program    cel.Program
}

// New compiles expression.
func New(expression string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
		cel.Variable("name", cel.StringType),
		cel.Variable("collection", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("chained", cel.BoolType),
		cel.Variable("errors", cel.IntType),
		cel.Variable("line", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("arguments", cel.ListType(cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, issues.Err())
	}

	output := ast.OutputType()
	if !output.IsExactType(cel.BoolType) && !output.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: '%s' is %s", ErrNotBoolean, expression, output)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Filter{expression: expression, program: program}, nil
}

func (f *Filter) String() string {
	return f.expression
}

// Match reports whether cmd satisfies the expression.
func (f *Filter) Match(cmd *command.Command) (bool, error) {
	arguments := cmd.ArgumentObjects
	if arguments == nil {
		arguments = []any{}
	}

	result, _, err := f.program.Eval(map[string]any{
		"name":       cmd.Name,
		"collection": cmd.Collection,
		"kind":       string(dispatch.KindOf(cmd.Name)),
		"chained":    cmd.Chained,
		"errors":     len(cmd.Errors),
		"line":       cmd.Range.Start.Line + 1,
		"text":       cmd.Text,
		"arguments":  arguments,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrFilterEvaluation, err)
	}

	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %v", ErrNotBoolean, result.Value())
	}

	return matched, nil
}

// Apply returns the commands matching the expression, in order.
func (f *Filter) Apply(commands []command.Command) ([]command.Command, error) {
	var result []command.Command

	for i := range commands {
		matched, err := f.Match(&commands[i])
		if err != nil {
			return nil, fmt.Errorf("command at %s: %w", commands[i].Range.Start, err)
		}

		if matched {
			result = append(result, commands[i])
		}
	}

	return result, nil
}
