package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateTitle  = errors.New("duplicate title")
	ErrInvalidArgument = errors.New("invalid argument")
)
