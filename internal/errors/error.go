// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when a lookup by product number finds no match.
	ErrProductNotFound = errors.New("product not found")

	// ErrStorageUnavailable is returned when the backing data file cannot be
	// read or parsed. It is fatal to the in-flight operation; callers must not retry.
	ErrStorageUnavailable = errors.New("product storage unavailable")
)
