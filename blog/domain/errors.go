package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a slug does not resolve to any file. Route
// handlers decide the HTTP status; the repository never panics on a miss.
var ErrNotFound = errors.New("post: not found")

// ValidationError rejects a create whose frontmatter is missing required
// fields. It is returned before any filesystem write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("post: invalid %s: %s", e.Field, e.Reason)
}

// UnsupportedFormatError rejects an upload whose extension is not a
// recognized markdown format.
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("post: unsupported file extension: %s (only .md or .mdx allowed)", e.FileName)
}
