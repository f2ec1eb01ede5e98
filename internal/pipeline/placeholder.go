package pipeline

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-bakery/internal/latex"
)

// Equation placeholders use Unicode Private Use Area characters, which
// pass through goldmark unchanged and unescaped. Each placeholder carries
// the index of the equation span it stands for.
const (
	EquationStartPlaceholder = "\uE010" // U+E010
	EquationEndPlaceholder   = "\uE011" // U+E011
)

var (
	placeholderPattern = regexp.MustCompile(EquationStartPlaceholder + `(\d+)` + EquationEndPlaceholder)

	// Goldmark percent-encodes placeholders that end up in autolink URLs.
	encodedPlaceholderPattern = regexp.MustCompile(`%EE%80%90(\d+)%EE%80%91`)
)

// equationTable maps placeholders back to the equation spans of one page.
type equationTable struct {
	spans []latex.Span
}

// substitute replaces every equation span with a placeholder and records
// the span.
func substitute(spans []latex.Span) (string, *equationTable) {
	table := &equationTable{}
	var b strings.Builder
	for _, s := range spans {
		if s.Kind == latex.Literal {
			b.WriteString(s.Text)
			continue
		}
		b.WriteString(EquationStartPlaceholder)
		b.WriteString(strconv.Itoa(len(table.spans)))
		b.WriteString(EquationEndPlaceholder)
		table.spans = append(table.spans, s)
	}
	return b.String(), table
}

func (t *equationTable) lookup(index string) (latex.Span, bool) {
	i, err := strconv.Atoi(index)
	if err != nil || i >= len(t.spans) {
		return latex.Span{}, false
	}
	return t.spans[i], true
}

// revert puts the original delimited source back in place of
// placeholders. Used for code and attributes, where equations are not
// rendered.
func (t *equationTable) revert(s string) string {
	if len(t.spans) == 0 || !strings.Contains(s, EquationStartPlaceholder) {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		span, ok := t.lookup(placeholderPattern.FindStringSubmatch(m)[1])
		if !ok {
			return m
		}
		return span.Source()
	})
}

func (t *equationTable) revertBytes(b []byte) []byte {
	if b == nil || !bytes.Contains(b, []byte(EquationStartPlaceholder)) {
		return b
	}
	return []byte(t.revert(string(b)))
}

// restore renders every placeholder left in html. Percent-encoded
// placeholders sit in URLs and get their escaped source back instead. The
// first failing equation aborts.
func (t *equationTable) restore(html string, r latex.Renderer, macros latex.Macros) (string, error) {
	if len(t.spans) == 0 {
		return html, nil
	}
	html = encodedPlaceholderPattern.ReplaceAllStringFunc(html, func(m string) string {
		span, ok := t.lookup(encodedPlaceholderPattern.FindStringSubmatch(m)[1])
		if !ok {
			return m
		}
		return string(util.EscapeHTML(util.URLEscape([]byte(span.Source()), false)))
	})

	matches := placeholderPattern.FindAllStringSubmatchIndex(html, -1)
	if matches == nil {
		return html, nil
	}
	spans := make([]latex.Span, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		spans = append(spans, latex.Span{Kind: latex.Literal, Text: html[last:m[0]]})
		span, ok := t.lookup(html[m[2]:m[3]])
		if !ok {
			span = latex.Span{Kind: latex.Literal, Text: html[m[0]:m[1]]}
		}
		spans = append(spans, span)
		last = m[1]
	}
	spans = append(spans, latex.Span{Kind: latex.Literal, Text: html[last:]})
	return latex.RenderSpans(spans, r, macros)
}

// attributeReverter puts equation source back where goldmark copies text
// into attributes: link and image destinations and titles, and image alt
// text.
type attributeReverter struct {
	table *equationTable
}

func (a *attributeReverter) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	if len(a.table.spans) == 0 {
		return
	}
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			n.Destination = a.table.revertBytes(n.Destination)
			n.Title = a.table.revertBytes(n.Title)
		case *ast.Image:
			n.Destination = a.table.revertBytes(n.Destination)
			n.Title = a.table.revertBytes(n.Title)
			a.revertTexts(n, source)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func (a *attributeReverter) revertTexts(parent ast.Node, source []byte) {
	for c := parent.FirstChild(); c != nil; {
		next := c.NextSibling()
		if txt, ok := c.(*ast.Text); ok {
			value := txt.Segment.Value(source)
			if bytes.Contains(value, []byte(EquationStartPlaceholder)) {
				parent.ReplaceChild(parent, c, ast.NewString(a.table.revertBytes(value)))
			}
		} else {
			a.revertTexts(c, source)
		}
		c = next
	}
}

// headingIDs generates auto heading IDs from equation source rather than
// placeholders. IDs follow goldmark's own scheme: lowercase ASCII
// alphanumerics, dashes for spaces, a numeric suffix on collision.
type headingIDs struct {
	table  *equationTable
	values map[string]bool
}

var _ parser.IDs = (*headingIDs)(nil)

func newHeadingIDs(table *equationTable) *headingIDs {
	return &headingIDs{table: table, values: map[string]bool{}}
}

func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	value = util.TrimRightSpace(util.TrimLeftSpace(s.table.revertBytes(value)))
	result := []byte{}
	for i := 0; i < len(value); {
		v := value[i]
		l := util.UTF8Len(v)
		i += int(l)
		if l != 1 {
			continue
		}
		if util.IsAlphaNumeric(v) {
			if 'A' <= v && v <= 'Z' {
				v += 'a' - 'A'
			}
			result = append(result, v)
		} else if util.IsSpace(v) || v == '-' || v == '_' {
			result = append(result, '-')
		}
	}
	if len(result) == 0 {
		if kind == ast.KindHeading {
			result = []byte("heading")
		} else {
			result = []byte("id")
		}
	}
	if !s.values[string(result)] {
		s.values[string(result)] = true
		return result
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", result, i)
		if !s.values[id] {
			s.values[id] = true
			return []byte(id)
		}
	}
}

func (s *headingIDs) Put(value []byte) {
	s.values[string(value)] = true
}
