// Package feed renders the Atom feed of dated pages.
package feed

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/gorilla/feeds"
)

// ErrNoBaseURL indicates a feed without a site URL to anchor links on.
var ErrNoBaseURL = errors.New("feed requires a base URL")

// Site is the feed-level metadata.
type Site struct {
	Title   string
	BaseURL string
	Author  string
	FeedURL string // Absolute URL of the feed itself
}

// Entry is one dated page.
type Entry struct {
	Name        string // Page name, tie-break for equal dates
	Title       string
	Description string
	URL         string // Absolute page URL, used as id and link
	Date        time.Time
	Content     string // Rendered page HTML
	Excerpt     string // Rendered excerpt HTML, may be empty
}

// Build assembles the feed. Entries with a zero date are left out; the rest
// are ordered newest first, then by name. Relative links in entry content
// are resolved against the entry URL.
func Build(site Site, entries []Entry) (*feeds.Feed, error) {
	if site.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	dated := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.IsZero() {
			dated = append(dated, e)
		}
	}
	slices.SortStableFunc(dated, func(a, b Entry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	f := &feeds.Feed{
		Title: site.Title,
		Link:  &feeds.Link{Href: site.BaseURL},
		Id:    cmp.Or(site.FeedURL, site.BaseURL),
	}
	if site.Author != "" {
		f.Author = &feeds.Author{Name: site.Author}
	}
	if len(dated) > 0 {
		f.Updated = dated[0].Date
	}

	for _, e := range dated {
		content, err := AbsolutizeLinks(e.Content, e.URL)
		if err != nil {
			return nil, fmt.Errorf("feed entry %s: %w", e.Name, err)
		}
		summary := e.Description
		if e.Excerpt != "" {
			summary = PlainText(e.Excerpt)
		}
		f.Items = append(f.Items, &feeds.Item{
			Title:       e.Title,
			Link:        &feeds.Link{Href: e.URL},
			Id:          e.URL,
			Description: summary,
			Content:     content,
			Updated:     e.Date,
			Created:     e.Date,
		})
	}
	return f, nil
}

// Write renders the Atom document for entries to w.
func Write(w io.Writer, site Site, entries []Entry) error {
	f, err := Build(site, entries)
	if err != nil {
		return err
	}
	if err := f.WriteAtom(w); err != nil {
		return fmt.Errorf("writing atom feed: %w", err)
	}
	return nil
}
