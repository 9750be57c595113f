package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shibukawa/scrapbook/command"
)

// Executor performs operations against a database. Implementations live
// outside this module; the scrapbook itself never connects anywhere.
type Executor interface {
	Execute(ctx context.Context, op *Operation) (any, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, op *Operation) (any, error)

func (f ExecutorFunc) Execute(ctx context.Context, op *Operation) (any, error) {
	return f(ctx, op)
}

// DryRun is an Executor that returns the Extended JSON of each operation.
var DryRun Executor = ExecutorFunc(func(ctx context.Context, op *Operation) (any, error) {
	return op.ExtJSON()
})

// Result is the outcome of one command.
type Result struct {
	Command   *command.Command
	Operation *Operation
	Value     any
	Duration  time.Duration
	Err       error
}

// Skipped reports whether the command was refused before execution.
func (r Result) Skipped() bool {
	return r.Operation == nil
}

// Run plans and executes one command.
func Run(ctx context.Context, executor Executor, cmd *command.Command, options Options) Result {
	result := Result{Command: cmd}

	op, err := Plan(cmd, options)
	if err != nil {
		result.Err = err
		return result
	}

	result.Operation = op

	execCtx := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc

		execCtx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	value, err := executor.Execute(execCtx, op)
	result.Duration = time.Since(startTime)

	if err != nil {
		result.Err = fmt.Errorf("%w: %s.%s: %w", ErrExecution, op.Collection, op.Method, err)
		return result
	}

	result.Value = value

	options.logger().Debug("executed operation", "id", op.ID, "duration", result.Duration)

	return result
}

// RunAll runs every command in order. Commands with errors are reported as
// skipped and do not stop the run; a cancelled context does.
func RunAll(ctx context.Context, executor Executor, commands []command.Command, options Options) ([]Result, error) {
	results := make([]Result, 0, len(commands))

	for i := range commands {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := Run(ctx, executor, &commands[i], options)
		results = append(results, result)

		if result.Err != nil && errors.Is(result.Err, context.Canceled) {
			return results, result.Err
		}
	}

	return results, nil
}
