package repository

import "errors"

// ErrStaleStatus is returned when a conditional status update matched no row because the
// record moved to another status first.
var ErrStaleStatus = errors.New("record status changed concurrently")
