package latex

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnmatchedDelimiter indicates an equation was opened but never closed.
var ErrUnmatchedDelimiter = errors.New("invalid LaTeX delimiters")

// snippetLength caps how much source is quoted in error messages.
const snippetLength = 40

// DelimiterError reports an open marker with no matching close marker.
type DelimiterError struct {
	Offset    int    // byte offset of the open marker
	Open      string // the open marker that was found
	Remainder string // unmatched input, starting at the open marker
}

func (e *DelimiterError) Error() string {
	return fmt.Sprintf("%v: unmatched %q at offset %d near %q",
		ErrUnmatchedDelimiter, e.Open, e.Offset, snippet(e.Remainder))
}

func (e *DelimiterError) Unwrap() error { return ErrUnmatchedDelimiter }

// Extract splits text into spans in a single left-to-right scan.
//
// At each position the block marker is tried first, then the inline marker,
// then a literal run up to the next open marker. The first close marker ends
// an equation; equations do not nest. Parsing is all-or-nothing: an unmatched
// open marker fails the whole input and no spans are returned.
func Extract(text string) ([]Span, error) {
	var spans []Span
	pos := 0

	for pos < len(text) {
		rest := text[pos:]

		switch {
		case strings.HasPrefix(rest, BlockOpen):
			src, n, ok := delimited(rest, BlockOpen, BlockClose)
			if !ok {
				return nil, &DelimiterError{Offset: pos, Open: BlockOpen, Remainder: rest}
			}
			spans = append(spans, Span{Kind: BlockEquation, Text: src})
			pos += n

		case strings.HasPrefix(rest, InlineOpen):
			src, n, ok := delimited(rest, InlineOpen, InlineClose)
			if !ok {
				return nil, &DelimiterError{Offset: pos, Open: InlineOpen, Remainder: rest}
			}
			spans = append(spans, Span{Kind: InlineEquation, Text: src})
			pos += n

		default:
			n := nextOpenMarker(rest)
			spans = append(spans, Span{Kind: Literal, Text: rest[:n]})
			pos += n
		}
	}

	return spans, nil
}

// delimited reads open + body + close from the start of s and returns the
// body and the number of bytes consumed.
func delimited(s, open, close string) (body string, n int, ok bool) {
	end := strings.Index(s[len(open):], close)
	if end < 0 {
		return "", 0, false
	}
	body = s[len(open) : len(open)+end]
	return body, len(open) + end + len(close), true
}

// nextOpenMarker returns the length of the literal run at the start of s.
// s never starts with an open marker, so the result is at least 1 when s
// is non-empty.
func nextOpenMarker(s string) int {
	n := len(s)
	if i := strings.Index(s, BlockOpen); i >= 0 && i < n {
		n = i
	}
	if i := strings.Index(s, InlineOpen); i >= 0 && i < n {
		n = i
	}
	return n
}

// snippet shortens s for error messages without splitting a rune.
func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	count := 0
	for i := range s {
		if count == snippetLength {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
