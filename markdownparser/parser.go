package markdownparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shibukawa/scrapbook/command"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter = errors.New("invalid front matter")
	ErrReadDocument       = errors.New("failed to read document")
)

// DefaultLanguages are the fence info strings treated as scrapbook code.
var DefaultLanguages = []string{"mongo", "mongodb", "javascript", "js"}

// Document is a Markdown file holding scrapbook code blocks.
type Document struct {
	Metadata map[string]any
	Title    string
	Blocks   []Block
}

// Block is one fenced scrapbook code block.
type Block struct {
	Language string
	Heading  string // nearest heading above the block
	// StartLine and EndLine are the 0-based document lines of the first and
	// last content line.
	StartLine int
	EndLine   int
	Source    string
	// Commands have their ranges shifted to document lines. Columns are
	// relative to the block content.
	Commands []command.Command
}

// Parse reads a Markdown document and parses every fenced block whose info
// string is one of languages (DefaultLanguages when empty).
func Parse(reader io.Reader, languages []string, opts ...command.Option) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadDocument, err)
	}

	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	metadata, body, offset, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}

	source := []byte(body)

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	doc := md.Parser().Parse(text.NewReader(source))

	result := &Document{Metadata: metadata}

	var heading string

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			heading = headingText(node, source)
			if node.Level == 1 && result.Title == "" {
				result.Title = heading
			}

			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			language := fenceLanguage(node, source)
			if !slices.Contains(languages, language) || node.Lines().Len() == 0 {
				return ast.WalkSkipChildren, nil
			}

			result.Blocks = append(result.Blocks, newBlock(node, source, language, heading, offset, opts))

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func newBlock(node *ast.FencedCodeBlock, source []byte, language, heading string, offset int, opts []command.Option) Block {
	lines := node.Lines()

	var code strings.Builder
	for i := range lines.Len() {
		segment := lines.At(i)
		code.Write(segment.Value(source))
	}

	startLine := bytes.Count(source[:lines.At(0).Start], []byte("\n")) + offset

	block := Block{
		Language:  language,
		Heading:   heading,
		StartLine: startLine,
		EndLine:   startLine + lines.Len() - 1,
		Source:    code.String(),
	}

	block.Commands = command.Parse(block.Source, opts...)
	command.Shift(block.Commands, startLine)

	return block
}

// fenceLanguage returns the first word of the info string, lower-cased.
func fenceLanguage(node *ast.FencedCodeBlock, source []byte) string {
	if node.Info == nil {
		return ""
	}

	fields := strings.Fields(string(node.Info.Segment.Value(source)))
	if len(fields) == 0 {
		return ""
	}

	return strings.ToLower(fields[0])
}

func headingText(heading *ast.Heading, source []byte) string {
	var result strings.Builder

	lines := heading.Lines()
	for i := range lines.Len() {
		segment := lines.At(i)
		result.Write(segment.Value(source))
	}

	return strings.TrimSpace(result.String())
}

// Commands returns the commands of all blocks in document order.
func (d *Document) Commands() []command.Command {
	var result []command.Command
	for _, block := range d.Blocks {
		result = append(result, block.Commands...)
	}

	return result
}

// CommandAt returns the command at pos when pos lies inside a scrapbook block.
func (d *Document) CommandAt(pos command.Position) *command.Command {
	for i := range d.Blocks {
		block := &d.Blocks[i]
		if pos.Line < block.StartLine || pos.Line > block.EndLine {
			continue
		}

		return command.Locate(block.Commands, &pos)
	}

	return nil
}
