package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-bakery/internal/assets"
)

// runInitCmd writes a starter site into a new or empty directory.
func runInitCmd(args []string, env *Environment) error {
	f, dir, err := parseInitFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		runHelp([]string{"init"}, env)
		return err
	}
	if err != nil {
		return err
	}

	written, err := assets.WriteStarter(env.Fs, dir, f.starter, assets.StarterVars{
		Title:   f.title,
		BaseURL: f.baseURL,
	})
	if err != nil {
		return err
	}

	if f.common.quiet {
		return nil
	}
	if f.common.verbose {
		for _, p := range written {
			fmt.Fprintf(env.Stdout, "  %s\n", p)
		}
	}
	fmt.Fprintf(env.Stdout, "Created site in %s (%d files)\n", dir, len(written))
	fmt.Fprintf(env.Stdout, "Run 'bakery watch %s' to start editing.\n", dir)
	return nil
}
