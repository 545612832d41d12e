package database

import "errors"

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")
