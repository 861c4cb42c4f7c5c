package content

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("post not found")
	ErrReservedID = errors.New("id is reserved for a page the site generates")
)

type NotFoundError struct{ ID string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("post %q not found", e.ID) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ParseError means a source file exists but cannot become a Post:
// malformed front matter, a missing or invalid required field, or an
// empty body. It is fatal to that one post only.
type ParseError struct {
	ID   string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse post %q (%s): %v", e.ID, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateIDError means two source files map to the same post id.
type DuplicateIDError struct {
	ID    string
	Paths []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate post id %q from %v", e.ID, e.Paths)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
