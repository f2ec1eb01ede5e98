// Package bakery builds static websites from Markdown.
//
// # Quick Start
//
// Create a builder and build a site directory:
//
//	b := bakery.New(bakery.WithLogger(slog.Default()))
//	report, err := b.Build(ctx, "mysite", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report)
//
// # Site Layout
//
// A site directory holds a configuration file (bakery.toml or bakery.yaml)
// and four source directories:
//
//	content/    Markdown pages with front matter
//	templates/  HTML templates, addressed by relative path
//	static/     files copied verbatim
//	sass/       stylesheets compiled per sass.targets
//
// Output goes to target/ (configurable). The page content/index.md renders
// to target/index.html and every other page content/NAME.md to
// target/NAME/index.html.
//
// # Build Stages
//
// A build is a graph of stages that run concurrently as their
// prerequisites complete:
//
//	clean           reset the output directory
//	load_pages      parse every page and its front matter
//	render_content  Markdown and equations to HTML     (after load_pages)
//	copy_assets     copy static/                       (after clean)
//	compile_css     compile stylesheets                (after clean)
//	render_html     execute page templates             (after clean, render_content)
//	render_feed     write the Atom feed                (after clean, render_content)
//
// A failed stage skips only the stages that depend on it. Build returns a
// *stage.AggregateError naming every failure, together with a Report that
// records the state of each stage.
//
// # Equations
//
// Inline equations are written as code spans wrapped in dollars
// (`$e^{i\pi}$`) or between \\( and \\); display equations use $$ $$
// or a fenced block tagged latex. Equations are rendered by a
// latex.Renderer, by default as KaTeX auto-render markup with the site
// macros expanded.
//
// # Watching
//
// Watch builds once, then rebuilds whenever a source file changes. Events
// are debounced and builds never overlap; changes arriving during a build
// are folded into the next one.
package bakery
