package command

import "errors"

// Sentinel errors for values that cannot be materialized
var (
	ErrUnparseable        = errors.New("unable to parse")
	ErrInvalidLiteral     = errors.New("invalid literal")
	ErrInvalidRegex       = errors.New("invalid regular expression")
	ErrInvalidRegexFlags  = errors.New("invalid regular expression flags")
	ErrInvalidObjectID    = errors.New("invalid ObjectId")
	ErrInvalidDate        = errors.New("invalid date")
	ErrUnknownConstructor = errors.New("unknown constructor")
	ErrTooManyArguments   = errors.New("too many arguments")
)

// ValueError is a materialization failure located at the offending value.
type ValueError struct {
	Range Range
	Err   error
}

func (e *ValueError) Error() string {
	return e.Err.Error()
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
