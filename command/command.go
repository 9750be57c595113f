package command

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shibukawa/scrapbook/tokenizer"
)

// Position is a 0-based line and rune column in a scrapbook document.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

func fromToken(p tokenizer.Position) Position {
	return Position{Line: p.Line, Column: p.Column}
}

// Before reports whether p is strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}

	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Range is a span of source text. End is the position right after the last rune.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Contains reports whether p lies in the range, both ends included.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// containsHalfOpen excludes the end position.
func (r Range) containsHalfOpen(p Position) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

func (r Range) Empty() bool {
	return r.Start == r.End
}

func (r Range) shift(lines int) Range {
	r.Start.Line += lines
	r.End.Line += lines

	return r
}

// ErrorDescription is a diagnostic attached to a command.
type ErrorDescription struct {
	Range   Range  `json:"range" yaml:"range"`
	Message string `json:"message" yaml:"message"`
}

func (e ErrorDescription) String() string {
	return fmt.Sprintf("%s: %s", e.Range.Start, e.Message)
}

// Command is one statement of a scrapbook.
//
// Name and Arguments describe the first call of the statement only; further
// chained calls are reflected in Chained, and their argument errors in Errors. ArgumentObjects is
// parallel to Arguments and holds map[string]any{} for arguments that could not
// be materialized.
type Command struct {
	Range           Range              `json:"range" yaml:"range"`
	Text            string             `json:"text" yaml:"text"`
	Collection      string             `json:"collection,omitempty" yaml:"collection,omitempty"`
	Name            string             `json:"name,omitempty" yaml:"name,omitempty"`
	Arguments       []string           `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	ArgumentObjects []any              `json:"argumentObjects,omitempty" yaml:"argumentObjects,omitempty"`
	Errors          []ErrorDescription `json:"errors,omitempty" yaml:"errors,omitempty"`
	Chained         bool               `json:"chained" yaml:"chained"`
}

func (c *Command) HasErrors() bool {
	return len(c.Errors) > 0
}

// Synthetic reports whether the command only carries errors found outside of
// any statement.
func (c *Command) Synthetic() bool {
	return c.Range.Empty() && c.Text == "" && c.Name == "" && c.Collection == ""
}

func (c *Command) addError(r Range, message string) {
	c.Errors = append(c.Errors, ErrorDescription{Range: r, Message: message})
}

// Option configures Parse and Extract.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces the clock used by zero-argument Date, ISODate and ObjectId.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
