// Package kv provides the string-keyed, string-valued backends the todo store persists into.
// Every backend treats a value as an opaque string and reports a missing key with ErrNotFound,
// so callers can tell "never written" apart from a real failure.
package kv

import "errors"

// ErrNotFound returned by Get for a key that was never set
var ErrNotFound = errors.New("key not found")
