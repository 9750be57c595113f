package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shibukawa/scrapbook/command"
	"github.com/shibukawa/scrapbook/filter"
	"github.com/shibukawa/scrapbook/markdownparser"
)

// input is a loaded scrapbook: a script file, a Markdown file or stdin.
type input struct {
	name     string
	document *markdownparser.Document // nil for plain scripts
	commands []command.Command
}

func isMarkdownFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// loadInput reads path ("" or "-" for stdin) and parses it.
func loadInput(ctx *Context, path string, markdown bool) (*input, error) {
	var (
		reader io.Reader
		name   string
	)

	if path == "" || path == "-" {
		reader = ctx.Stdin
		name = "<stdin>"
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		defer file.Close()

		reader = file
		name = path
		markdown = markdown || isMarkdownFile(path)
	}

	options := []command.Option{command.WithLogger(ctx.Logger)}

	if markdown {
		doc, err := markdownparser.Parse(reader, ctx.Config.Markdown.Languages, options...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		ctx.Logger.Debug("loaded markdown scrapbook", "source", name, "blocks", len(doc.Blocks))

		return &input{name: name, document: doc, commands: doc.Commands()}, nil
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return &input{name: name, commands: command.Parse(string(data), options...)}, nil
}

// selectCommands applies a CEL filter expression. An empty expression keeps all commands.
func selectCommands(commands []command.Command, expression string) ([]command.Command, error) {
	if expression == "" {
		return commands, nil
	}

	f, err := filter.New(expression)
	if err != nil {
		return nil, err
	}

	return f.Apply(commands)
}
