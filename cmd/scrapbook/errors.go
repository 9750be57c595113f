package main

import "errors"

// Sentinel errors for command operations
var (
	ErrInvalidPosition = errors.New("line and column start at 1")
	ErrReadInput       = errors.New("failed to read input")
)
