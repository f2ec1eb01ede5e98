// Package templates loads a site's HTML templates and renders pages with
// them.
//
// Every file under the templates directory is parsed into one set and is
// addressed by its slash-separated path relative to that directory, so a
// template can include another with {{ template "partials/head.html" . }}.
package templates

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/alnah/go-bakery/internal/fileutil"
)

// Sentinel errors for template operations.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateParse    = errors.New("template parse failed")
	ErrTemplateExecute  = errors.New("template execution failed")
)

// Set is a parsed template set. It is safe for concurrent rendering.
type Set struct {
	root  *template.Template
	names []string
}

// BaseFuncs returns the functions every set gets. Funcs passed to Load
// override them by name.
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) }, // #nosec G203 -- site author content
		"safeURL":  func(s string) template.URL { return template.URL(s) },   // #nosec G203 -- site author content
	}
}

// Load parses every file under dir. funcs are added to BaseFuncs before
// parsing. A missing dir yields an empty set.
func Load(fsys afero.Fs, dir string, funcs template.FuncMap) (*Set, error) {
	all := BaseFuncs()
	for k, v := range funcs {
		all[k] = v
	}

	files, err := fileutil.ListFiles(fsys, dir)
	if err != nil {
		return nil, err
	}

	root := template.New("").Funcs(all)
	for _, name := range files {
		data, err := afero.ReadFile(fsys, filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
		}
	}
	return &Set{root: root, names: files}, nil
}

// Names lists the loaded template names, sorted.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// Has reports whether a template was loaded from a file called name.
func (s *Set) Has(name string) bool {
	_, ok := slices.BinarySearch(s.names, name)
	return ok
}

// Render executes the named template with data.
func (s *Set) Render(w io.Writer, name string, data any) error {
	if !s.Has(name) {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err := s.root.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTemplateExecute, name, err)
	}
	return nil
}
