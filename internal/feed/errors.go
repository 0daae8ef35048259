package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a site, page, or version does not exist
	// or has no resolvable current version.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCursor marks a pagination token that could not be decoded.
	// Feed methods recover from it by restarting at the first page; it is
	// exported so callers decoding tokens themselves can detect it.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ValidationError reports malformed caller input. It is always returned
// before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
