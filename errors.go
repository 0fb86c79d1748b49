package gallery

import "errors"

var (
	// ErrNotFound is returned when an object or record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLarge is returned when an upload exceeds the configured size limit
	ErrTooLarge = errors.New("upload too large")
)
