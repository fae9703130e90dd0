package domain

import "errors"

// Error classes. Callers wrap these with fmt.Errorf("%w: ...") and match
// them with errors.Is; anything that matches none of them is internal.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthenticated")
	ErrNotFound     = errors.New("not found")
)
