package bakery

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-bakery/internal/config"
	"github.com/alnah/go-bakery/internal/fileutil"
	"github.com/alnah/go-bakery/internal/frontmatter"
)

// Site directory layout.
const (
	ContentDir   = "content"
	StaticDir    = "static"
	SassDir      = "sass"
	TemplatesDir = "templates"
	cssOutputDir = "css"
)

// pageExtension is the only content file type.
const pageExtension = ".md"

// Site is a site directory with its configuration and, once loaded, its
// pages sorted newest first.
type Site struct {
	Dir    string
	Config *config.Config
	Pages  []*Page

	fs      afero.Fs
	workers int
}

// OpenSite reads and validates the configuration of the site in dir.
func OpenSite(fsys afero.Fs, dir string) (*Site, error) {
	ok, err := afero.IsDir(fsys, dir)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	cfg, err := config.Load(fsys, dir)
	if err != nil {
		return nil, err
	}
	return &Site{Dir: dir, Config: cfg, fs: fsys, workers: ResolveWorkers(0)}, nil
}

// LoadSite opens the site in dir and loads its pages. Drafts are skipped
// unless drafts is set.
func LoadSite(ctx context.Context, fsys afero.Fs, dir string, drafts bool) (*Site, error) {
	s, err := OpenSite(fsys, dir)
	if err != nil {
		return nil, err
	}
	if err := s.LoadPages(ctx, drafts); err != nil {
		return nil, err
	}
	return s, nil
}

// Path joins slash-separated elements onto the site directory.
func (s *Site) Path(elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, s.Dir)
	for _, e := range elem {
		parts = append(parts, filepath.FromSlash(e))
	}
	return filepath.Join(parts...)
}

// OutputDir is the directory the build writes to.
func (s *Site) OutputDir() string { return s.Path(s.Config.OutputDir) }

// LoadPages parses every Markdown file under content/ in parallel and
// replaces s.Pages. The first failing page aborts the load.
func (s *Site) LoadPages(ctx context.Context, drafts bool) error {
	files, err := fileutil.ListFiles(s.fs, s.Path(ContentDir), pageExtension)
	if err != nil {
		return err
	}

	pages := make([]*Page, len(files))
	format := s.Config.FrontMatterFormat()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source := ContentDir + "/" + rel
			data, err := afero.ReadFile(s.fs, s.Path(source))
			if err != nil {
				return &PageError{Path: source, Err: err}
			}
			doc, err := frontmatter.Parse(source, data, format)
			if err != nil {
				return &PageError{Path: source, Err: err}
			}
			if doc.Draft && !drafts {
				return nil
			}
			pages[i] = newPage(PageName(rel), source, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pages = slices.DeleteFunc(pages, func(p *Page) bool { return p == nil })
	slices.SortFunc(pages, comparePages)
	s.Pages = pages
	return nil
}

// Page returns the page with the given name, or nil.
func (s *Site) Page(name string) *Page {
	for _, p := range s.Pages {
		if p.Name == name {
			return p
		}
	}
	return nil
}
