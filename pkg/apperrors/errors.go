package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrConnectionUnavailable = errors.New("database connection not available")
	ErrUnsupportedVizType    = errors.New("unsupported visualization type")
)
