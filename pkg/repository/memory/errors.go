package memory

import "errors"

// ErrNotFound is returned when a requested entity does not exist in the
// caller's tenant.
var ErrNotFound = errors.New("not found")
