package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/shibukawa/scrapbook"
	"github.com/shibukawa/scrapbook/formatter"
)

const version = "v0.1.0"

// Context represents the global context for commands
type Context struct {
	Ctx       context.Context
	Config    *scrapbook.Config
	Logger    *slog.Logger
	Formatter *formatter.Formatter
	Stdin     io.Reader
	Stdout    io.Writer
}

// CLI represents the command-line interface
type CLI struct {
	Config  string `help:"Configuration file path (default: scrapbook.yaml when present)"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress output except errors" short:"q"`
	Format  string `help:"Output format: text, json or yaml (overrides output.format)" short:"f"`
	NoColor bool   `help:"Disable colored output"`

	Parse   ParseCmd   `cmd:"" help:"Parse a scrapbook and print its commands"`
	Check   CheckCmd   `cmd:"" help:"Report lexical, syntax and value errors"`
	Locate  LocateCmd  `cmd:"" help:"Print the command at a position"`
	Plan    PlanCmd    `cmd:"" help:"Convert commands into operations without running them"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Stdout, "scrapbook "+version)
	return nil
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo

	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI

	exitCode := -1

	parser, err := kong.New(&cli,
		kong.Name("scrapbook"),
		kong.Description("Parse and check MongoDB shell scrapbooks"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := newLogger(stderr, cli.Verbose, cli.Quiet)

	config, err := scrapbook.LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return 1
	}

	format := config.Format()
	if cli.Format != "" {
		format, err = formatter.ParseFormat(cli.Format)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	appCtx := &Context{
		Ctx:       ctx,
		Config:    config,
		Logger:    logger,
		Formatter: formatter.New(format, config.Colored() && !cli.NoColor),
		Stdin:     stdin,
		Stdout:    stdout,
	}

	err = kctx.Run(appCtx)
	if err != nil {
		if !errors.Is(err, scrapbook.ErrScrapbookHasErrors) || !cli.Quiet {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}

		return 1
	}

	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
