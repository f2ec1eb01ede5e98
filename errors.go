package bakery

import (
	"errors"
	"fmt"
)

// Sentinel errors for site operations.
var (
	ErrNotDirectory    = errors.New("site path is not a directory")
	ErrPageRender      = errors.New("page rendering failed")
	ErrPageWrite       = errors.New("page output failed")
	ErrTemplateMissing = errors.New("page template not found")
)

// PageError reports a failure while loading, rendering or writing one page.
// Path is the page source, relative to the site directory.
type PageError struct {
	Path string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Path, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
