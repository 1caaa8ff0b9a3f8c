package domain

import "errors"

var (
	// ErrInvalidChunkParams marks chunking parameters that would loop
	// forever or emit nothing (size <= 0 or overlap >= size).
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrMissingInput marks a request missing a required field; surfaced
	// to callers as a client error, never retried.
	ErrMissingInput = errors.New("missing required input")
)
