package store

import "errors"

// Sentinel errors returned by Store implementations. Services translate
// these into coded domain errors at the boundary.
var (
	// ErrNotFound means no live record exists with the given id.
	ErrNotFound = errors.New("media not found")

	// ErrEmptyTags means an UpdateTags call would leave a record with no
	// tags. The store rejects it before touching the row.
	ErrEmptyTags = errors.New("tags cannot be empty")
)
