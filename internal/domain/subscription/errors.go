package subscription

import "errors"

// ErrNotFound is returned for sub-categories outside the provider's zone
var ErrNotFound = errors.New("sub-category not found in provider zone")
