package database

import "errors"

// Sentinel errors returned by Store operations. Plain lookup misses are not
// errors: lookups return (nil, nil) when nothing matches, and ErrNotFound is
// reserved for structural misses such as an absent private group.
var (
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)
