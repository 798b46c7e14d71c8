package certificates

import "errors"

// ErrNotFound means no certificate matched the lookup.
var ErrNotFound = errors.New("certificate not found")

// ErrInvalidInput means the caller supplied an unusable request.
var ErrInvalidInput = errors.New("invalid input")
