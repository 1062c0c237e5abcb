package source

import "errors"

// ErrNotFound is the default per-key error for a key that the source has no value for.
var ErrNotFound = errors.New("value not found in source")
