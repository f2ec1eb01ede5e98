package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-bakery/internal/decode"
)

// MoreMarker separates the excerpt from the rest of the body.
const MoreMarker = "<!--more-->"

const (
	yamlDelimiter = "---"
	tomlDelimiter = "+++"
)

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Document is a parsed page source.
type Document struct {
	Title       string
	Description string
	Template    string
	Date        *time.Time
	Draft       bool
	Extra       map[string]any
	Body        string
	Excerpt     string // empty when the body has no more marker
}

// Parse splits data into front matter and body. format selects the decoder
// for "---" blocks; an empty format means YAML. path is only used in errors.
func Parse(path string, data []byte, format decode.Format) (*Document, error) {
	if format == "" {
		format = decode.YAML
	}
	doc, err := parse(data, format)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return doc, nil
}

func parse(data []byte, dashFormat decode.Format) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	first, rest, _ := strings.Cut(text, "\n")
	var format decode.Format
	switch strings.TrimRight(first, " \t") {
	case yamlDelimiter:
		format = dashFormat
	case tomlDelimiter:
		format = decode.TOML
	default:
		return nil, ErrMissingFrontMatter
	}
	delim := strings.TrimRight(first, " \t")

	block, body, ok := splitBlock(rest, delim)
	if !ok {
		return nil, fmt.Errorf("%w: no closing %q", ErrUnterminated, delim)
	}

	fields := make(map[string]any)
	if strings.TrimSpace(block) != "" {
		if err := decode.Unmarshal(format, []byte(block), &fields); err != nil {
			return nil, err
		}
	}

	doc := &Document{Extra: make(map[string]any)}
	if err := doc.assign(fields); err != nil {
		return nil, err
	}
	doc.Body, doc.Excerpt = splitExcerpt(body)
	return doc, nil
}

// splitBlock finds the closing delimiter line in s.
func splitBlock(s, delim string) (block, body string, ok bool) {
	offset := 0
	for offset <= len(s) {
		line, _, found := strings.Cut(s[offset:], "\n")
		if strings.TrimRight(line, " \t") == delim {
			end := offset + len(line)
			if found {
				end++
			}
			return s[:offset], s[end:], true
		}
		if !found {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}

// splitExcerpt removes the more marker line and returns the text before it
// as the excerpt. Marker lines inside fenced code are content.
func splitExcerpt(body string) (string, string) {
	lines := strings.SplitAfter(body, "\n")
	var fence string
	for i, line := range lines {
		if fence != "" {
			if closesFence(line, fence) {
				fence = ""
			}
			continue
		}
		if f := openingFence(line); f != "" {
			fence = f
			continue
		}
		if strings.TrimSpace(line) != MoreMarker {
			continue
		}
		excerpt := strings.Join(lines[:i], "")
		return excerpt + strings.Join(lines[i+1:], ""), strings.TrimRight(excerpt, "\n")
	}
	return body, ""
}

// openingFence returns the fence run (``` or ~~~, three or longer) that
// opens a fenced code block on line, or "".
func openingFence(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	if c == '`' && strings.Contains(trimmed[n:], "`") {
		return ""
	}
	return trimmed[:n]
}

// closesFence reports whether line closes a block opened by fence: the same
// character, at least as long, and nothing else on the line.
func closesFence(line, fence string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	trimmed = strings.TrimRight(trimmed, " \t\n")
	return len(trimmed) >= len(fence) && strings.Trim(trimmed, fence[:1]) == ""
}

func (d *Document) assign(fields map[string]any) error {
	var err error
	for key, value := range fields {
		switch key {
		case "title":
			d.Title, err = stringField(key, value)
		case "description":
			d.Description, err = stringField(key, value)
		case "template":
			d.Template, err = stringField(key, value)
		case "draft":
			b, ok := value.(bool)
			if !ok {
				err = fmt.Errorf("%w: draft must be a boolean, got %T", ErrInvalidField, value)
			}
			d.Draft = b
		case "date":
			var t time.Time
			t, err = dateField(value)
			d.Date = &t
		default:
			d.Extra[key] = value
		}
		if err != nil {
			return err
		}
	}

	if d.Title == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if d.Template == "" {
		return fmt.Errorf("%w: template", ErrMissingField)
	}
	return nil
}

func stringField(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidField, key, value)
	}
	return s, nil
}

func dateField(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case toml.LocalDateTime:
		return v.AsTime(time.UTC), nil
	case toml.LocalDate:
		return v.AsTime(time.UTC), nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: date %q is not a recognized date", ErrInvalidField, v)
	default:
		return time.Time{}, fmt.Errorf("%w: date must be a date, got %T", ErrInvalidField, value)
	}
}
