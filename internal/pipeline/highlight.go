package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is the highlighting style used when none is configured.
const DefaultTheme = "github"

// styleTable is a snapshot of chroma's style registry, built once and
// read-only afterwards.
var styleTable = sync.OnceValue(func() map[string]*chroma.Style {
	table := make(map[string]*chroma.Style, len(styles.Registry))
	for name, style := range styles.Registry {
		table[strings.ToLower(name)] = style
	}
	return table
})

// Themes returns the names of all available highlighting themes, sorted.
func Themes() []string {
	table := styleTable()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChromaHighlighter highlights code with chroma. It is safe for
// concurrent use.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// Compile-time interface check.
var _ Highlighter = (*ChromaHighlighter)(nil)

// NewChromaHighlighter looks up theme (case-insensitive). With classes set,
// output carries CSS classes instead of inline styles; see WriteCSS.
func NewChromaHighlighter(theme string, classes bool) (*ChromaHighlighter, error) {
	if theme == "" {
		theme = DefaultTheme
	}
	style, ok := styleTable()[strings.ToLower(theme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	return &ChromaHighlighter{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(classes)),
	}, nil
}

// Highlight implements Highlighter. Unknown languages report ok=false.
func (h *ChromaHighlighter) Highlight(code, lang string) (string, bool, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false, nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return b.String(), true, nil
}

// WriteCSS writes the stylesheet for class-based output.
func (h *ChromaHighlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
