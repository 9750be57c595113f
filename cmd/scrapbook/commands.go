package main

import (
	"fmt"

	"github.com/shibukawa/scrapbook"
	"github.com/shibukawa/scrapbook/command"
	"github.com/shibukawa/scrapbook/dispatch"
)

// ParseCmd represents the parse command
type ParseCmd struct {
	Input    string `arg:"" optional:"" help:"Scrapbook file, .md files are read as Markdown (default: stdin)"`
	Markdown bool   `help:"Read the input as Markdown"`
	Filter   string `help:"CEL expression selecting commands, e.g. kind == \"write\""`
}

// Run executes the parse command
func (cmd *ParseCmd) Run(ctx *Context) error {
	in, err := loadInput(ctx, cmd.Input, cmd.Markdown)
	if err != nil {
		return err
	}

	commands, err := selectCommands(in.commands, cmd.Filter)
	if err != nil {
		return err
	}

	return ctx.Formatter.Commands(ctx.Stdout, in.name, commands)
}

// CheckCmd represents the check command
type CheckCmd struct {
	Input    string `arg:"" optional:"" help:"Scrapbook file, .md files are read as Markdown (default: stdin)"`
	Markdown bool   `help:"Read the input as Markdown"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	in, err := loadInput(ctx, cmd.Input, cmd.Markdown)
	if err != nil {
		return err
	}

	if err := ctx.Formatter.Diagnostics(ctx.Stdout, in.name, in.commands); err != nil {
		return err
	}

	count := len(command.Diagnostics(in.commands))

	ctx.Logger.Info("checked scrapbook", "source", in.name, "commands", len(in.commands), "errors", count)

	if count > 0 && ctx.Config.FailOnError() {
		return fmt.Errorf("%w: %d error(s) in %s", scrapbook.ErrScrapbookHasErrors, count, in.name)
	}

	return nil
}

// LocateCmd represents the locate command
type LocateCmd struct {
	Input    string `arg:"" optional:"" help:"Scrapbook file, .md files are read as Markdown (default: stdin)"`
	Markdown bool   `help:"Read the input as Markdown"`
	Line     int    `required:"" short:"l" help:"1-based line"`
	Column   int    `short:"c" default:"1" help:"1-based column"`
}

// Run executes the locate command
func (cmd *LocateCmd) Run(ctx *Context) error {
	if cmd.Line < 1 || cmd.Column < 1 {
		return fmt.Errorf("%w: got %d:%d", ErrInvalidPosition, cmd.Line, cmd.Column)
	}

	in, err := loadInput(ctx, cmd.Input, cmd.Markdown)
	if err != nil {
		return err
	}

	pos := command.Position{Line: cmd.Line - 1, Column: cmd.Column - 1}

	var located *command.Command
	if in.document != nil {
		located = in.document.CommandAt(pos)
	} else {
		located = command.Locate(in.commands, &pos)
	}

	if located == nil {
		return fmt.Errorf("%w %s in %s", scrapbook.ErrNoCommandAtPosition, pos, in.name)
	}

	return ctx.Formatter.Commands(ctx.Stdout, in.name, []command.Command{*located})
}

// PlanCmd represents the plan command
type PlanCmd struct {
	Input          string `arg:"" optional:"" help:"Scrapbook file, .md files are read as Markdown (default: stdin)"`
	Markdown       bool   `help:"Read the input as Markdown"`
	Filter         string `help:"CEL expression selecting commands (overrides plan.filter)"`
	AllowUnknown   bool   `help:"Plan methods that are not known shell methods"`
	AllowDangerous bool   `help:"Plan drops and unfiltered multi-document writes"`
}

// Run executes the plan command
func (cmd *PlanCmd) Run(ctx *Context) error {
	in, err := loadInput(ctx, cmd.Input, cmd.Markdown)
	if err != nil {
		return err
	}

	expression := cmd.Filter
	if expression == "" {
		expression = ctx.Config.Plan.Filter
	}

	commands, err := selectCommands(in.commands, expression)
	if err != nil {
		return err
	}

	options := ctx.Config.PlanOptions(ctx.Logger)
	options.AllowUnknown = options.AllowUnknown || cmd.AllowUnknown
	options.AllowDangerous = options.AllowDangerous || cmd.AllowDangerous

	results, err := dispatch.RunAll(ctx.Ctx, dispatch.DryRun, commands, options)
	if err != nil {
		return err
	}

	planned := 0
	for _, result := range results {
		if !result.Skipped() {
			planned++
		}
	}

	ctx.Logger.Debug("planned scrapbook", "source", in.name, "commands", len(commands), "planned", planned)

	return ctx.Formatter.Results(ctx.Stdout, in.name, results)
}
