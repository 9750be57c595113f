package parser

import "errors"

// Sentinel errors - Parser related
var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of input")

	// errRecover signals that a rule failed and the error was already reported.
	errRecover = errors.New("syntax error reported")
)
