package dispatch

import "errors"

var (
	// ErrMissingFields rejects an inbound event missing required ids.
	ErrMissingFields = errors.New("missing required fields")

	// ErrNotAuthorized covers both an unknown ride and a cancel issued
	// by a non-owning requester; callers cannot tell the two apart.
	ErrNotAuthorized = errors.New("ride not found or not authorized")
)
