package style

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/spf13/afero"
)

// DefaultBinary is the Dart Sass executable looked up on PATH.
const DefaultBinary = "sass"

// importScheme prefixes canonical URLs of files served by the resolver.
const importScheme = "bakery:///"

// SassOptions configures DartSass.
type SassOptions struct {
	Binary     string   // Dart Sass executable, DefaultBinary when empty
	Compressed bool     // Compressed output style
	LoadPaths  []string // Extra import roots, relative to the filesystem root
}

// DartSass compiles SCSS and indented Sass through one embedded Dart Sass
// process started on first use. It is safe for concurrent use.
type DartSass struct {
	fs   afero.Fs
	root string
	opts SassOptions

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass creates a compiler reading imports from fs. root is the
// directory source paths are relative to.
func NewDartSass(fs afero.Fs, root string, opts SassOptions) *DartSass {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	return &DartSass{fs: fs, root: path.Clean(filepath.ToSlash(root)), opts: opts}
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler != nil {
		return d.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: d.opts.Binary})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSassUnavailable, d.opts.Binary, err)
	}
	d.transpiler = t
	return t, nil
}

// Close stops the Dart Sass process if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

// Compile implements Compiler.
func (d *DartSass) Compile(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := d.start()
	if err != nil {
		return "", err
	}

	args := godartsass.Args{
		Source:         src.Content,
		URL:            importScheme + path.Join(d.root, src.Path),
		OutputStyle:    godartsass.OutputStyleExpanded,
		SourceSyntax:   godartsass.SourceSyntaxSCSS,
		ImportResolver: d.resolver(),
	}
	if d.opts.Compressed {
		args.OutputStyle = godartsass.OutputStyleCompressed
	}
	if strings.EqualFold(path.Ext(src.Path), ".sass") {
		args.SourceSyntax = godartsass.SourceSyntaxSASS
	}

	type result struct {
		css string
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := t.Execute(args)
		done <- result{css: res.CSS, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			var se godartsass.SassError
			if errors.As(r.err, &se) {
				return "", &CompileError{Path: src.Path, Err: errors.New(se.Message)}
			}
			return "", &CompileError{Path: src.Path, Err: r.err}
		}
		return r.css, nil
	}
}

func (d *DartSass) resolver() *importResolver {
	dirs := []string{d.root}
	for _, p := range d.opts.LoadPaths {
		dirs = append(dirs, path.Clean(p))
	}
	return &importResolver{fs: d.fs, dirs: dirs}
}

// importResolver serves @use, @forward and @import from an afero.Fs.
type importResolver struct {
	fs   afero.Fs
	dirs []string
}

// CanonicalizeURL maps an import URL to the canonical URL of an existing
// file, trying partial and index variants. An empty result leaves the URL
// to other importers.
func (r *importResolver) CanonicalizeURL(url string) (string, error) {
	if rest, ok := strings.CutPrefix(url, importScheme); ok {
		if p, found := r.find(rest); found {
			return importScheme + p, nil
		}
		return "", nil
	}
	if strings.Contains(url, ":") {
		return "", nil
	}
	for _, dir := range r.dirs {
		if p, found := r.find(path.Join(dir, url)); found {
			return importScheme + p, nil
		}
	}
	return "", nil
}

// Load reads a file previously returned by CanonicalizeURL.
func (r *importResolver) Load(canonicalizedURL string) (godartsass.Import, error) {
	p := strings.TrimPrefix(canonicalizedURL, importScheme)
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return godartsass.Import{}, err
	}
	return godartsass.Import{Content: string(data), SourceSyntax: syntaxOf(p)}, nil
}

// find returns the first existing candidate for an extensionless or
// explicit import path.
func (r *importResolver) find(p string) (string, bool) {
	for _, c := range candidates(p) {
		if ok, _ := afero.Exists(r.fs, c); ok {
			if dir, _ := afero.IsDir(r.fs, c); !dir {
				return c, true
			}
		}
	}
	return "", false
}

// candidates lists the files Sass would consider for an import path.
func candidates(p string) []string {
	dir, base := path.Split(p)
	if ext := path.Ext(base); ext == ".scss" || ext == ".sass" || ext == ".css" {
		return []string{p, dir + "_" + base}
	}
	var out []string
	for _, ext := range []string{".scss", ".sass", ".css"} {
		out = append(out, dir+base+ext, dir+"_"+base+ext)
	}
	for _, ext := range []string{".scss", ".sass", ".css"} {
		out = append(out, path.Join(p, "index"+ext), path.Join(p, "_index"+ext))
	}
	return out
}

func syntaxOf(p string) godartsass.SourceSyntax {
	switch strings.ToLower(path.Ext(p)) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}
