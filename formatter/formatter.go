package formatter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/shibukawa/scrapbook/command"
	"github.com/shibukawa/scrapbook/dispatch"
)

// Sentinel errors
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(name)); format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Formatter renders commands, diagnostics and planned operations.
type Formatter struct {
	format Format

	location *color.Color
	title    *color.Color
	failure  *color.Color
	skipped  *color.Color
}

// New creates a formatter. Colors only apply to the text format.
func New(format Format, colored bool) *Formatter {
	f := &Formatter{
		format:   format,
		location: color.New(color.FgCyan),
		title:    color.New(color.Bold),
		failure:  color.New(color.FgRed),
		skipped:  color.New(color.FgYellow),
	}

	for _, c := range []*color.Color{f.location, f.title, f.failure, f.skipped} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return f
}

// Diagnostic is one error of a document.
type Diagnostic struct {
	Source string        `json:"source,omitempty" yaml:"source,omitempty"`
	Range  command.Range `json:"range" yaml:"range"`
	// Command is the text of the owning command, empty for errors outside of any statement.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Commands writes the commands parsed from source.
func (f *Formatter) Commands(w io.Writer, source string, commands []command.Command) error {
	if f.format != FormatText {
		return f.encode(w, commands)
	}

	for _, cmd := range commands {
		if cmd.Synthetic() {
			fmt.Fprintf(w, "%s %s\n", f.location.Sprint(locationOf(source, cmd.Range.Start)), f.skipped.Sprint("(no statement)"))
		} else {
			fmt.Fprintf(w, "%s %s\n", f.location.Sprint(locationOf(source, cmd.Range.Start)), f.title.Sprint(callName(cmd)))
		}

		for i, argument := range cmd.Arguments {
			fmt.Fprintf(w, "  arg %d: %s\n", i+1, oneLine(argument))
		}

		for _, description := range cmd.Errors {
			fmt.Fprintf(w, "  %s %s\n", f.failure.Sprint("error"), description)
		}
	}

	return nil
}

// Diagnostics writes the errors of all commands, in command order.
func (f *Formatter) Diagnostics(w io.Writer, source string, commands []command.Command) error {
	var diagnostics []Diagnostic

	for _, cmd := range commands {
		for _, description := range cmd.Errors {
			diagnostics = append(diagnostics, Diagnostic{
				Source:  source,
				Range:   description.Range,
				Command: cmd.Text,
				Message: description.Message,
			})
		}
	}

	if f.format != FormatText {
		if diagnostics == nil {
			diagnostics = []Diagnostic{}
		}

		return f.encode(w, diagnostics)
	}

	for _, diagnostic := range diagnostics {
		fmt.Fprintf(w, "%s: %s\n", f.location.Sprint(locationOf(source, diagnostic.Range.Start)), f.failure.Sprint(diagnostic.Message))
	}

	return nil
}

type planEntry struct {
	Range     command.Range   `json:"range"`
	Operation json.RawMessage `json:"operation,omitempty"`
	Skipped   string          `json:"skipped,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Results writes planned or executed operations. Values returned by the
// executor are rendered when they are Extended JSON strings.
func (f *Formatter) Results(w io.Writer, source string, results []dispatch.Result) error {
	if f.format == FormatText {
		for _, result := range results {
			location := f.location.Sprint(locationOf(source, result.Command.Range.Start))

			switch {
			case result.Skipped():
				fmt.Fprintf(w, "%s %s %v\n", location, f.skipped.Sprint("skipped:"), result.Err)
			case result.Err != nil:
				fmt.Fprintf(w, "%s %s %v\n", location, f.failure.Sprint("failed:"), result.Err)
			default:
				fmt.Fprintf(w, "%s %s [%s] %v\n", location, f.title.Sprint(result.Operation.Collection+"."+result.Operation.Method), result.Operation.Kind, result.Value)
			}
		}

		return nil
	}

	entries := make([]planEntry, 0, len(results))

	for _, result := range results {
		entry := planEntry{Range: result.Command.Range}

		switch {
		case result.Skipped():
			entry.Skipped = result.Err.Error()
		case result.Err != nil:
			entry.Error = result.Err.Error()
		default:
			text, err := result.Operation.ExtJSON()
			if err != nil {
				return err
			}

			entry.Operation = json.RawMessage(text)
		}

		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if f.format == FormatYAML {
		// keeps the key order of the Extended JSON documents
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		data = append(data, '\n')
	}

	_, err = w.Write(data)

	return err
}

func (f *Formatter) encode(w io.Writer, value any) error {
	switch f.format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)

		return encoder.Encode(value)
	case FormatYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		_, err = w.Write(data)

		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
	}
}

func locationOf(source string, pos command.Position) string {
	if source == "" {
		return pos.String()
	}

	return source + ":" + pos.String()
}

func callName(cmd command.Command) string {
	name := "db"
	if cmd.Collection != "" {
		name += "." + cmd.Collection
	}

	if cmd.Name != "" {
		name += "." + cmd.Name + "()"
	}

	if cmd.Chained {
		name += "..."
	}

	return name
}

// oneLine collapses whitespace runs so multi-line arguments fit one line.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
