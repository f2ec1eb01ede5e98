// Package latex splits raw page text into literal and equation spans and
// renders equation sources to HTML fragments.
//
// Two equation forms are recognized:
//
//	$$ ... $$      display (block) equation
//	\\( ... \\)    inline equation
//
// The escaped-parenthesis form is doubled because the text is still Markdown
// source at extraction time, where a single backslash would escape the paren.
package latex

import "strings"

// Equation delimiters.
const (
	BlockOpen   = "$$"
	BlockClose  = "$$"
	InlineOpen  = `\\(`
	InlineClose = `\\)`
)

// Kind classifies a Span.
type Kind int

const (
	Literal Kind = iota
	InlineEquation
	BlockEquation
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case InlineEquation:
		return "inline"
	case BlockEquation:
		return "block"
	default:
		return "unknown"
	}
}

// Span is a classified contiguous region of source text.
// For equations, Text holds the source between the delimiters.
type Span struct {
	Kind Kind
	Text string
}

// Display reports whether the span renders in display mode.
func (s Span) Display() bool {
	return s.Kind == BlockEquation
}

// Source returns the span as it appeared in the input, delimiters included.
func (s Span) Source() string {
	switch s.Kind {
	case InlineEquation:
		return InlineOpen + s.Text + InlineClose
	case BlockEquation:
		return BlockOpen + s.Text + BlockClose
	default:
		return s.Text
	}
}

// Reconstruct concatenates the source form of every span.
// For any successful Extract, Reconstruct(spans) equals the input.
func Reconstruct(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Source())
	}
	return b.String()
}

// HasEquations reports whether any span is an equation.
func HasEquations(spans []Span) bool {
	for _, s := range spans {
		if s.Kind != Literal {
			return true
		}
	}
	return false
}
