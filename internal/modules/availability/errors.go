package availability

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrServiceNotFound = errors.New("service not found")
)
