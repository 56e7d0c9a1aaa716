package repository

import "errors"

// ErrNotFound is returned by lookups whose callers asked for one specific record.
var ErrNotFound = errors.New("record not found")
