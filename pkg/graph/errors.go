package graph

import "errors"

// ErrAccessDenied is returned when a traversal seed memory exists but belongs
// to a different owner. A nonexistent seed yields an empty result instead, so
// callers can tell denial and absence apart.
var ErrAccessDenied = errors.New("memory belongs to a different owner")
