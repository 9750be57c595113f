package parser

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shibukawa/scrapbook/tokenizer"
)

// SyntaxError is one lexical or syntax error, positioned at the offending input.
type SyntaxError struct {
	Position  tokenizer.Position
	Offending string
	Message   string
	Err       error
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Position.Line+1, e.Position.Column+1)
}

func (e SyntaxError) Unwrap() error {
	return e.Err
}

// ErrorCollector is a tokenizer.ErrorListener that records errors in report order.
type ErrorCollector struct {
	errors []SyntaxError
}

var _ tokenizer.ErrorListener = (*ErrorCollector)(nil)

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

func (c *ErrorCollector) SyntaxError(pos tokenizer.Position, offending string, err error) {
	message := err.Error()

	var lexErr *tokenizer.LexError
	if errors.As(err, &lexErr) {
		message = fmt.Sprintf("%s %q", lexErr.Err, lexErr.Text)
	}

	c.errors = append(c.errors, SyntaxError{
		Position:  pos,
		Offending: offending,
		Message:   message,
		Err:       err,
	})
}

// Errors returns the errors in the order they were reported.
func (c *ErrorCollector) Errors() []SyntaxError {
	return slices.Clone(c.errors)
}

func (c *ErrorCollector) Len() int {
	return len(c.errors)
}

// Sorted returns the errors ordered by line, then column.
func (c *ErrorCollector) Sorted() []SyntaxError {
	return MergeErrors(c)
}

// MergeErrors combines the errors of several collectors into one list ordered
// by line, then column. Errors at the same position keep collector order.
func MergeErrors(collectors ...*ErrorCollector) []SyntaxError {
	var merged []SyntaxError
	for _, c := range collectors {
		if c != nil {
			merged = append(merged, c.errors...)
		}
	}

	slices.SortStableFunc(merged, func(a, b SyntaxError) int {
		if a.Position.Line != b.Position.Line {
			return a.Position.Line - b.Position.Line
		}
		return a.Position.Column - b.Position.Column
	})

	return merged
}
