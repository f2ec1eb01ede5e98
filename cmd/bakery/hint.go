package main

import (
	"errors"
	"path/filepath"

	"github.com/alnah/go-bakery"
	"github.com/alnah/go-bakery/internal/assets"
	"github.com/alnah/go-bakery/internal/config"
	"github.com/alnah/go-bakery/internal/fileutil"
	"github.com/alnah/go-bakery/internal/frontmatter"
	"github.com/alnah/go-bakery/internal/hints"
	"github.com/alnah/go-bakery/internal/pipeline"
	"github.com/alnah/go-bakery/internal/style"
	"github.com/alnah/go-bakery/internal/templates"
)

// siteError attaches the site directory to a command error so hints can
// inspect the site.
type siteError struct {
	Dir string
	Err error
}

func (e *siteError) Error() string { return e.Err.Error() }
func (e *siteError) Unwrap() error { return e.Err }

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, env *Environment) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		var siteErr *siteError
		dir := ""
		if errors.As(err, &siteErr) {
			dir = siteErr.Dir
		}
		return hints.ForConfigNotFound(dir)
	case errors.Is(err, pipeline.ErrUnknownTheme):
		return hints.ForThemeNotFound(pipeline.Themes())
	case errors.Is(err, style.ErrSassUnavailable):
		return hints.ForSassBinary(sassBinary(err, env))
	case errors.Is(err, bakery.ErrTemplateMissing):
		return hints.ForTemplateNotFound(templateNames(err, env))
	case errors.Is(err, frontmatter.ErrMissingFrontMatter):
		return hints.ForFrontMatter()
	case errors.Is(err, assets.ErrStarterNotFound):
		return hints.ForStarterNotFound(assets.Starters())
	case errors.Is(err, fileutil.ErrUnsafeRemove):
		return hints.ForOutputDirectory()
	}
	return ""
}

// siteOf returns the site a build error came from, if any.
func siteOf(err error, env *Environment) *bakery.Site {
	var siteErr *siteError
	if !errors.As(err, &siteErr) {
		return nil
	}
	site, openErr := bakery.OpenSite(env.Fs, siteErr.Dir)
	if openErr != nil {
		return nil
	}
	return site
}

func sassBinary(err error, env *Environment) string {
	if site := siteOf(err, env); site != nil {
		return site.Config.Sass.Binary
	}
	return config.DefaultSassBinary
}

func templateNames(err error, env *Environment) []string {
	site := siteOf(err, env)
	if site == nil {
		return nil
	}
	set, loadErr := templates.Load(env.Fs, filepath.Join(site.Dir, bakery.TemplatesDir), nil)
	if loadErr != nil {
		return nil
	}
	return set.Names()
}
