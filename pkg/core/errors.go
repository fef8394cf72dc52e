package core

import "errors"

var (
	// ErrNoColumns is returned when an input has no header row.
	ErrNoColumns = errors.New("no header row")

	// ErrColumnNotFound is returned when a projection names an unknown column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidBatchSize is returned for batch sizes below one.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidSeparator is returned when the separator is not a single usable character.
	ErrInvalidSeparator = errors.New("separator must be a single character other than a quote or line break")

	// ErrUnknownEngine is returned when no opener is registered for an engine name.
	ErrUnknownEngine = errors.New("unknown engine")
)
