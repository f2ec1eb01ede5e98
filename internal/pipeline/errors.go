package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for content conversion.
var (
	ErrHTMLConversion    = errors.New("HTML conversion failed")
	ErrUnterminatedFence = errors.New("unterminated fenced code block")
	ErrUnexpectedEvent   = errors.New("unexpected event inside fenced code block")
	ErrUnknownTheme      = errors.New("unknown highlighting theme")
	ErrHighlight         = errors.New("syntax highlighting failed")
)

// MarkdownStructureError reports a failure of the Markdown parser or the
// highlighter while transforming a page.
type MarkdownStructureError struct {
	Tag string // fence tag involved, if any
	Err error
}

func (e *MarkdownStructureError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("markdown structure (fence %q): %v", e.Tag, e.Err)
	}
	return fmt.Sprintf("markdown structure: %v", e.Err)
}

func (e *MarkdownStructureError) Unwrap() error { return e.Err }
