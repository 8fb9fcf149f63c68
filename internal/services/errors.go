package services

import "errors"

// ErrInvalidCriteria wraps validator errors for dashboard filters.
var ErrInvalidCriteria = errors.New("invalid filter criteria")
