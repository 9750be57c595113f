package scrapbook

import "errors"

// Common errors used throughout the scrapbook tool
var (
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrConfigFileNotFound indicates an explicitly requested configuration file is missing.
	ErrConfigFileNotFound = errors.New("configuration file not found")
	// ErrScrapbookHasErrors indicates a checked scrapbook contains lexical, syntax or value errors.
	ErrScrapbookHasErrors = errors.New("scrapbook has errors")
	// ErrNoCommandAtPosition indicates no command could be located.
	ErrNoCommandAtPosition = errors.New("no command at position")
)
