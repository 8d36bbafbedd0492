package ledger

import "errors"

var (
	ErrRideExists   = errors.New("ride already exists")
	ErrRideNotFound = errors.New("ride not found")
	ErrInvalidState = errors.New("ride is not pending")
)
