package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoToolMatched indicates that no tool pattern applied to the question
	ErrNoToolMatched = errors.New("no tool matched")

	// ErrEmptyResponse indicates the language model returned no content
	ErrEmptyResponse = errors.New("empty model response")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
