package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-bakery"
)

// runBuildCmd builds a site once, or keeps rebuilding it with --watch.
func runBuildCmd(ctx context.Context, args []string, env *Environment) error {
	return runSiteCmd(ctx, "build", args, env)
}

// runWatchCmd is build --watch.
func runWatchCmd(ctx context.Context, args []string, env *Environment) error {
	return runSiteCmd(ctx, "watch", args, env)
}

func runSiteCmd(ctx context.Context, name string, args []string, env *Environment) error {
	f, dir, err := parseBuildFlags(name, args, env)
	if errors.Is(err, flag.ErrHelp) {
		runHelp([]string{name}, env)
		return err
	}
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common, loadEnvConfig(env).LogFormat)
	b := bakery.New(
		bakery.WithFs(env.Fs),
		bakery.WithLogger(logger),
		bakery.WithWorkers(f.workers),
		bakery.WithDebounce(f.debounce),
	)

	if f.watch {
		if err := b.Watch(ctx, dir, f.drafts); err != nil {
			return &siteError{Dir: dir, Err: err}
		}
		return nil
	}

	report, err := b.Build(ctx, dir, f.drafts)
	if err != nil {
		return &siteError{Dir: dir, Err: err}
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "%s -> %s\n", report, report.Site.OutputDir())
	}
	return nil
}
