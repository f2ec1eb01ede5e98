package bakery

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/alnah/go-bakery/internal/frontmatter"
	"github.com/alnah/go-bakery/internal/pipeline"
)

// indexName is the page rendered at the site root.
const indexName = "index"

// Page is one content file. Content and Excerpt hold Markdown until the
// page is rendered and HTML afterwards.
type Page struct {
	Title       string
	Description string
	Template    string
	Date        *time.Time
	Draft       bool
	Name        string // Path under content/ without extension, slash-separated
	Source      string // Path relative to the site directory
	Content     string
	Excerpt     string
	Extra       map[string]any

	rendered bool
}

// PageName derives a page name from a slash-separated path relative to the
// content directory.
func PageName(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

func newPage(name, source string, doc *frontmatter.Document) *Page {
	return &Page{
		Title:       doc.Title,
		Description: doc.Description,
		Template:    doc.Template,
		Date:        doc.Date,
		Draft:       doc.Draft,
		Name:        name,
		Source:      source,
		Content:     doc.Body,
		Excerpt:     doc.Excerpt,
		Extra:       doc.Extra,
	}
}

// Path is the page location relative to the site root: empty for the index
// page, "name/" otherwise.
func (p *Page) Path() string {
	if p.Name == indexName {
		return ""
	}
	return p.Name + "/"
}

// OutputPath is the slash-separated output file relative to the output
// directory.
func (p *Page) OutputPath() string {
	return p.Path() + "index.html"
}

// Rendered reports whether Content and Excerpt hold HTML.
func (p *Page) Rendered() bool { return p.rendered }

// Render converts Content and Excerpt to HTML in place. A page is rendered
// at most once; later calls are no-ops.
func (p *Page) Render(ctx context.Context, conv *pipeline.Converter) error {
	if p.rendered {
		return nil
	}
	content, err := conv.Convert(ctx, p.Content)
	if err != nil {
		return &PageError{Path: p.Source, Err: fmt.Errorf("%w: %w", ErrPageRender, err)}
	}
	var excerpt string
	if p.Excerpt != "" {
		if excerpt, err = conv.Convert(ctx, p.Excerpt); err != nil {
			return &PageError{Path: p.Source, Err: fmt.Errorf("%w: excerpt: %w", ErrPageRender, err)}
		}
	}
	p.Content, p.Excerpt, p.rendered = content, excerpt, true
	return nil
}

// comparePages orders pages newest first; undated pages follow dated ones,
// and ties break on name.
func comparePages(a, b *Page) int {
	switch {
	case a.Date != nil && b.Date != nil:
		if c := b.Date.Compare(*a.Date); c != 0 {
			return c
		}
	case a.Date != nil:
		return -1
	case b.Date != nil:
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}
