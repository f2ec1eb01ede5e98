package bakery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-bakery/internal/feed"
	"github.com/alnah/go-bakery/internal/fileutil"
	"github.com/alnah/go-bakery/internal/latex"
	"github.com/alnah/go-bakery/internal/pipeline"
	"github.com/alnah/go-bakery/internal/stage"
	"github.com/alnah/go-bakery/internal/style"
	"github.com/alnah/go-bakery/internal/templates"
	"github.com/alnah/go-bakery/internal/watch"
)

// Stage names of a build.
const (
	StageClean         stage.Name = "clean"
	StageLoadPages     stage.Name = "load_pages"
	StageRenderContent stage.Name = "render_content"
	StageCopyAssets    stage.Name = "copy_assets"
	StageCompileCSS    stage.Name = "compile_css"
	StageRenderHTML    stage.Name = "render_html"
	StageRenderFeed    stage.Name = "render_feed"
)

// HighlightCSSFile is written under css/ when highlighting uses classes.
const HighlightCSSFile = "highlight.css"

// Builder builds sites. Create with New; a Builder may run any number of
// builds, sequentially or concurrently on different sites.
type Builder struct {
	fs        afero.Fs
	logger    *slog.Logger
	workers   int
	equations latex.Renderer
	styles    style.Compiler
	debounce  time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithFs sets the filesystem sites are read from and written to.
// Default: the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(b *Builder) {
		if fsys != nil {
			b.fs = fsys
		}
	}
}

// WithLogger sets the logger. Stage progress is logged at debug level and
// build summaries at info level. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithWorkers caps per-stage parallelism. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithEquationRenderer replaces the default equation markup renderer.
func WithEquationRenderer(r latex.Renderer) Option {
	return func(b *Builder) { b.equations = r }
}

// WithStyleCompiler replaces the stylesheet compiler. Default: Dart Sass
// for .scss/.sass and minification for .css, configured from the site.
func WithStyleCompiler(c style.Compiler) Option {
	return func(b *Builder) { b.styles = c }
}

// WithDebounce sets the quiet period of Watch. Default: one second.
func WithDebounce(d time.Duration) Option {
	return func(b *Builder) { b.debounce = d }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		fs:       afero.NewOsFs(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: watch.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.workers = ResolveWorkers(b.workers)
	return b
}

// Report summarizes a build.
type Report struct {
	Site     *Site
	Pages    int
	Files    int
	Bytes    int64
	Duration time.Duration
	Stages   *stage.Result
}

func (r *Report) String() string {
	return fmt.Sprintf("built %d pages, %d files (%s) in %s",
		r.Pages, r.Files, humanize.Bytes(uint64(max(r.Bytes, 0))), r.Duration.Round(time.Millisecond))
}

// build is the state of one Build call.
type build struct {
	*Builder
	site   *Site
	drafts bool
	files  atomic.Int64
	bytes  atomic.Int64
}

// Build renders the site in dir into its output directory. Stages run
// concurrently as their prerequisites allow; a failing stage skips only
// its dependents. The error, if any, is a *stage.AggregateError naming
// every failed stage. The report is returned in every case once the
// configuration has loaded.
func (b *Builder) Build(ctx context.Context, dir string, drafts bool) (*Report, error) {
	start := time.Now()
	site, err := OpenSite(b.fs, dir)
	if err != nil {
		return nil, err
	}
	site.workers = b.workers

	run := &build{Builder: b, site: site, drafts: drafts}
	g, err := run.graph()
	if err != nil {
		return nil, err
	}

	res := stage.Run(ctx, g, stage.WithLogger(b.logger))
	report := &Report{
		Site:     site,
		Pages:    len(site.Pages),
		Files:    int(run.files.Load()),
		Bytes:    run.bytes.Load(),
		Duration: time.Since(start),
		Stages:   res,
	}

	if err := res.Err(); err != nil {
		b.logger.Error("build failed", "site", dir, "failed", len(res.Failures()), "skipped", len(res.Skipped()))
		for _, name := range res.Skipped() {
			b.logger.Debug("stage skipped", "stage", name, "blocked_by", res.BlockedBy(name))
		}
		return report, err
	}
	b.logger.Info(report.String(), "site", dir, "size", humanize.Bytes(uint64(max(report.Bytes, 0))))
	return report, nil
}

func (r *build) graph() (*stage.Graph, error) {
	return stage.NewGraph(
		stage.Stage{Name: StageClean, Run: r.clean},
		stage.Stage{Name: StageLoadPages, Run: r.loadPages},
		stage.Stage{Name: StageRenderContent, Deps: []stage.Name{StageLoadPages}, Run: r.renderContent},
		stage.Stage{Name: StageCopyAssets, Deps: []stage.Name{StageClean}, Run: r.copyAssets},
		stage.Stage{Name: StageCompileCSS, Deps: []stage.Name{StageClean}, Run: r.compileCSS},
		stage.Stage{Name: StageRenderHTML, Deps: []stage.Name{StageClean, StageRenderContent}, Run: r.renderHTML},
		stage.Stage{Name: StageRenderFeed, Deps: []stage.Name{StageClean, StageRenderContent}, Run: r.renderFeed},
	)
}

func (r *build) write(name string, data []byte) error {
	if err := fileutil.WriteFile(r.fs, name, data); err != nil {
		return err
	}
	r.files.Add(1)
	r.bytes.Add(int64(len(data)))
	return nil
}

func (r *build) clean(context.Context) error {
	return fileutil.ResetDir(r.fs, r.site.OutputDir())
}

func (r *build) loadPages(ctx context.Context) error {
	return r.site.LoadPages(ctx, r.drafts)
}

func (r *build) converter() (*pipeline.Converter, error) {
	cfg := r.site.Config
	hl, err := pipeline.NewChromaHighlighter(cfg.Theme, cfg.HighlightClasses)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithHighlighter(hl),
		pipeline.WithMacros(latex.Macros(cfg.Macros)),
		pipeline.WithEquationTag(cfg.EquationTag),
		pipeline.WithUnsafeHTML(cfg.UnsafeHTML),
	}
	if r.equations != nil {
		opts = append(opts, pipeline.WithEquationRenderer(r.equations))
	}
	return pipeline.NewConverter(opts...), nil
}

func (r *build) renderContent(ctx context.Context) error {
	conv, err := r.converter()
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, p := range r.site.Pages {
		g.Go(func() error { return p.Render(ctx, conv) })
	}
	return g.Wait()
}

func (r *build) copyAssets(ctx context.Context) error {
	files, err := fileutil.ListFiles(r.fs, r.site.Path(StaticDir))
	if err != nil {
		return err
	}
	out := r.site.OutputDir()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dst, err := fileutil.Join(out, rel)
			if err != nil {
				return err
			}
			n, err := fileutil.CopyFile(r.fs, r.site.Path(StaticDir, rel), dst)
			if err != nil {
				return err
			}
			r.files.Add(1)
			r.bytes.Add(n)
			return nil
		})
	}
	return g.Wait()
}

func (r *build) styleCompiler() (style.Compiler, func()) {
	if r.styles != nil {
		return r.styles, func() {}
	}
	cfg := r.site.Config.Sass
	loadPaths := make([]string, len(cfg.LoadPaths))
	for i, p := range cfg.LoadPaths {
		loadPaths[i] = r.site.Path(p)
	}
	sass := style.NewDartSass(r.fs, r.site.Path(SassDir), style.SassOptions{
		Binary:     cfg.Binary,
		Compressed: cfg.Compressed,
		LoadPaths:  loadPaths,
	})
	return style.Router{Sass: sass, CSS: style.CSS{Compressed: cfg.Compressed}}, func() {
		if err := sass.Close(); err != nil {
			r.logger.Warn("stopping dart sass", "error", err)
		}
	}
}

func (r *build) compileCSS(ctx context.Context) error {
	cfg := r.site.Config
	cssDir := path.Join(cfg.OutputDir, cssOutputDir)

	if cfg.HighlightClasses {
		hl, err := pipeline.NewChromaHighlighter(cfg.Theme, true)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := hl.WriteCSS(&buf); err != nil {
			return err
		}
		if err := r.write(r.site.Path(cssDir, HighlightCSSFile), buf.Bytes()); err != nil {
			return err
		}
	}
	if len(cfg.Sass.Targets) == 0 {
		return nil
	}

	compiler, closeCompiler := r.styleCompiler()
	defer closeCompiler()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for out, in := range cfg.Sass.Targets {
		g.Go(func() error {
			src, err := fileutil.Join(r.site.Path(SassDir), in)
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(r.fs, src)
			if err != nil {
				return fmt.Errorf("reading stylesheet: %w", err)
			}
			css, err := compiler.Compile(ctx, style.Source{Path: in, Content: string(data)})
			if err != nil {
				return err
			}
			dst, err := fileutil.Join(r.site.Path(cssDir), out)
			if err != nil {
				return err
			}
			return r.write(dst, []byte(css))
		})
	}
	return g.Wait()
}

func (r *build) renderHTML(ctx context.Context) error {
	funcs, err := r.site.templateFuncs()
	if err != nil {
		return err
	}
	set, err := templates.Load(r.fs, r.site.Path(TemplatesDir), funcs)
	if err != nil {
		return err
	}

	siteData := r.site.siteData()
	out := r.site.OutputDir()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range r.site.Pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !set.Has(p.Template) {
				return &PageError{Path: p.Source, Err: fmt.Errorf("%w: %w: %q",
					ErrTemplateMissing, templates.ErrTemplateNotFound, p.Template)}
			}
			var buf bytes.Buffer
			data := TemplateData{Page: siteData.Pages[i], Site: siteData}
			if err := set.Render(&buf, p.Template, data); err != nil {
				return &PageError{Path: p.Source, Err: err}
			}
			dst, err := fileutil.Join(out, p.OutputPath())
			if err != nil {
				return &PageError{Path: p.Source, Err: err}
			}
			if err := r.write(dst, buf.Bytes()); err != nil {
				return &PageError{Path: p.Source, Err: errors.Join(ErrPageWrite, err)}
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *build) renderFeed(context.Context) error {
	cfg := r.site.Config
	entries := make([]feed.Entry, 0, len(r.site.Pages))
	for _, p := range r.site.Pages {
		if p.Date == nil {
			continue
		}
		entries = append(entries, feed.Entry{
			Name:        p.Name,
			Title:       p.Title,
			Description: p.Description,
			URL:         absURL(cfg.BaseURL, p.Path()),
			Date:        *p.Date,
			Content:     p.Content,
			Excerpt:     p.Excerpt,
		})
	}

	var buf bytes.Buffer
	err := feed.Write(&buf, feed.Site{
		Title:   cfg.Title,
		BaseURL: absURL(cfg.BaseURL, ""),
		Author:  cfg.Feed.Author,
		FeedURL: absURL(cfg.BaseURL, cfg.Feed.Filename),
	}, entries)
	if err != nil {
		return err
	}
	dst, err := fileutil.Join(r.site.OutputDir(), cfg.Feed.Filename)
	if err != nil {
		return err
	}
	return r.write(dst, buf.Bytes())
}
