package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-bakery/internal/assets"
	"github.com/alnah/go-bakery/internal/watch"
)

// ErrUsage wraps flag and argument errors.
var ErrUsage = errors.New("invalid usage")

// defaultSiteDir is used when no directory argument is given.
const defaultSiteDir = "."

// commonFlags holds flags shared across commands.
type commonFlags struct {
	quiet   bool
	verbose bool
}

// buildFlags holds flags for the build and watch commands.
type buildFlags struct {
	common   commonFlags
	drafts   bool
	watch    bool
	workers  int
	debounce time.Duration
}

// initFlags holds flags for the init command.
type initFlags struct {
	common  commonFlags
	title   string
	baseURL string
	starter string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show stage progress")
}

// addSiteFlags adds the flags shared by build and watch.
func addSiteFlags(fs *flag.FlagSet, f *buildFlags) {
	fs.BoolVarP(&f.drafts, "drafts", "d", false, "include draft pages")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers per stage (0 = auto)")
	fs.DurationVar(&f.debounce, "debounce", watch.DefaultDebounce, "quiet period before a rebuild")
}

// newBuildFlagSet creates the build FlagSet. The watch command shares it
// without the --watch switch.
func newBuildFlagSet(name string, f *buildFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addCommonFlags(fs, &f.common)
	addSiteFlags(fs, f)
	if name == "build" {
		fs.BoolVar(&f.watch, "watch", false, "rebuild when sources change")
	}
	return fs
}

// newInitFlagSet creates the init FlagSet.
func newInitFlagSet(f *initFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.title, "title", "My Site", "site title")
	fs.StringVar(&f.baseURL, "base-url", "http://localhost:8080/", "absolute site URL")
	fs.StringVar(&f.starter, "starter", assets.DefaultStarterName, "starter site to copy")
	return fs
}

// parseBuildFlags parses build or watch arguments and applies environment
// defaults. It returns the site directory.
func parseBuildFlags(name string, args []string, env *Environment) (*buildFlags, string, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet(name, f)
	if err := fs.Parse(args); err != nil {
		return nil, "", usageError(err)
	}
	applyEnvConfig(loadEnvConfig(env), f, func(name string) bool { return fs.Changed(name) })
	if name == "watch" {
		f.watch = true
	}
	if f.workers < 0 {
		return nil, "", fmt.Errorf("%w: --workers must not be negative", ErrUsage)
	}
	if f.debounce <= 0 {
		return nil, "", fmt.Errorf("%w: --debounce must be positive", ErrUsage)
	}
	dir, err := siteDir(fs.Args(), false)
	if err != nil {
		return nil, "", err
	}
	return f, dir, nil
}

// parseInitFlags parses init arguments. A directory is required.
func parseInitFlags(args []string) (*initFlags, string, error) {
	f := &initFlags{}
	fs := newInitFlagSet(f)
	if err := fs.Parse(args); err != nil {
		return nil, "", usageError(err)
	}
	dir, err := siteDir(fs.Args(), true)
	if err != nil {
		return nil, "", err
	}
	return f, dir, nil
}

// siteDir resolves the single optional directory argument.
func siteDir(positional []string, required bool) (string, error) {
	switch {
	case len(positional) > 1:
		return "", fmt.Errorf("%w: expected one directory, got %d arguments", ErrUsage, len(positional))
	case len(positional) == 1:
		return positional[0], nil
	case required:
		return "", fmt.Errorf("%w: missing directory argument", ErrUsage)
	default:
		return defaultSiteDir, nil
	}
}

func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// newLogger creates the CLI logger on w. --verbose selects debug level and
// --quiet error level; BAKERY_LOG_FORMAT=json selects JSON records.
func newLogger(w io.Writer, f commonFlags, format string) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
