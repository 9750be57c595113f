package dispatch

import "errors"

// Error definitions
var (
	ErrCommandHasErrors   = errors.New("command has errors")
	ErrNoOperation        = errors.New("command has no function call")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrDangerousOperation = errors.New("dangerous operation detected")
	ErrArgumentConversion = errors.New("argument cannot be converted to BSON")
	ErrExecution          = errors.New("operation execution failed")
)
