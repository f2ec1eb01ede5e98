package bakery

import (
	"context"
	"path/filepath"

	"github.com/alnah/go-bakery/internal/config"
	"github.com/alnah/go-bakery/internal/watch"
)

// Watch builds the site in dir, then rebuilds it whenever a source file
// changes until ctx is done. Build failures are logged and the loop keeps
// running, so a broken edit can be fixed in place. Watch returns nil on
// cancellation and an error only if the watcher cannot start or dies.
func (b *Builder) Watch(ctx context.Context, dir string, drafts bool) error {
	b.rebuild(ctx, dir, drafts, nil)

	out, err := b.watchOutputDir(dir)
	if err != nil {
		out = filepath.Join(dir, config.DefaultOutputDir)
	}
	w, err := watch.New(dir, out,
		watch.WithDebounce(b.debounce),
		watch.WithLogger(b.logger),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	b.logger.Info("watching for changes", "site", dir)
	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		// The output directory moves with the configuration; exclude the
		// new one before the build writes into it.
		if out, err := b.watchOutputDir(dir); err == nil {
			w.SetOutputDir(out)
		}
		b.rebuild(ctx, dir, drafts, paths)
		return nil
	})
}

func (b *Builder) rebuild(ctx context.Context, dir string, drafts bool, changed []string) {
	if len(changed) > 0 {
		b.logger.Info("change detected, rebuilding", "files", len(changed))
		b.logger.Debug("changed files", "paths", changed)
	}
	if _, err := b.Build(ctx, dir, drafts); err != nil && ctx.Err() == nil {
		b.logger.Error("rebuild failed", "error", err)
	}
}

// watchOutputDir reads the site configuration for the output directory to
// exclude from watching.
func (b *Builder) watchOutputDir(dir string) (string, error) {
	site, err := OpenSite(b.fs, dir)
	if err != nil {
		return "", err
	}
	return site.OutputDir(), nil
}
