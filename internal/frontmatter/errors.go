package frontmatter

import (
	"errors"
	"fmt"
)

// Sentinel errors for front matter parsing.
var (
	ErrMissingFrontMatter = errors.New("missing front matter")
	ErrUnterminated       = errors.New("unterminated front matter block")
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidField       = errors.New("invalid field")
)

// Error reports a front matter failure for one page source.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("front matter %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
