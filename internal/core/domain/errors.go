package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFilter indicates a filter cannot be expressed on the chosen backend
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// ErrRecordSetChanged indicates a merge precondition failed: the records
	// matching the requested ids no longer match the request, most likely
	// because they have been merged before
	ErrRecordSetChanged = errors.New("record set changed")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")
)
