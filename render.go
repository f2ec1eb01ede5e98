package bakery

import (
	"html/template"
	"strings"
	"time"

	"github.com/alnah/go-bakery/internal/dateutil"
)

// PageData is the view of a page given to templates.
type PageData struct {
	Title       string
	Description string
	Date        *time.Time
	Draft       bool
	Name        string
	Path        string // Relative to the site root, "" for the index page
	URL         string // Absolute
	Content     template.HTML
	Excerpt     template.HTML
	Extra       map[string]any
}

// SiteData is the view of the site given to templates.
type SiteData struct {
	Title    string
	BaseURL  string
	FeedPath string
	Pages    []PageData // Newest first
}

// TemplateData is the root value every page template executes with.
type TemplateData struct {
	Page PageData
	Site SiteData
}

// absURL joins a site-relative path onto the base URL.
func absURL(baseURL, p string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(p, "/")
}

func (s *Site) pageData(p *Page) PageData {
	return PageData{
		Title:       p.Title,
		Description: p.Description,
		Date:        p.Date,
		Draft:       p.Draft,
		Name:        p.Name,
		Path:        p.Path(),
		URL:         absURL(s.Config.BaseURL, p.Path()),
		Content:     template.HTML(p.Content), // #nosec G203 -- rendered by the content pipeline
		Excerpt:     template.HTML(p.Excerpt), // #nosec G203 -- rendered by the content pipeline
		Extra:       p.Extra,
	}
}

func (s *Site) siteData() SiteData {
	pages := make([]PageData, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = s.pageData(p)
	}
	return SiteData{
		Title:    s.Config.Title,
		BaseURL:  s.Config.BaseURL,
		FeedPath: s.Config.Feed.Filename,
		Pages:    pages,
	}
}

// formatDateAs formats t with a format chosen in the template, such as
// {{ formatDate .Page.Date "long" }}. Nil times render as the empty string.
func formatDateAs(t *time.Time, format string) (string, error) {
	if t == nil {
		return "", nil
	}
	return dateutil.Format(*t, format)
}

// templateFuncs returns the site-specific template functions.
func (s *Site) templateFuncs() (template.FuncMap, error) {
	formatDate, err := dateutil.Formatter(s.Config.DateFormat)
	if err != nil {
		return nil, err
	}
	base := s.Config.BaseURL
	return template.FuncMap{
		"date":       formatDate,
		"formatDate": formatDateAs,
		"absURL":     func(p string) string { return absURL(base, p) },
	}, nil
}
