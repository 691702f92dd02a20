package queue

import "errors"

// ErrNotFound is returned by mutating calls that reference an unknown item id.
var ErrNotFound = errors.New("queue item not found")

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")
