package errors

import "errors"

var ErrDependencyUnavailable = errors.New("overview dependency unavailable")
