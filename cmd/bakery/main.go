package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if isVerbose(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args[1:], env)
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	warnUnknownEnvVars(env)

	cmd, rest := args[0], args[1:]
	var err error
	switch {
	case isCommand(cmd, "build"):
		err = runBuildCmd(ctx, rest, env)
	case isCommand(cmd, "watch"):
		err = runWatchCmd(ctx, rest, env)
	case isCommand(cmd, "init"):
		err = runInitCmd(rest, env)
	case isCommand(cmd, "doctor"):
		return runDoctorCmd(rest, env)
	case isCommand(cmd, "completion"):
		err = runCompletion(rest, env)
	case isCommand(cmd, "version", "--version"):
		fmt.Fprintf(env.Stdout, "bakery %s\n", Version)
		return ExitSuccess
	case isCommand(cmd, "help", "-h", "--help"):
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, env))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// isCommand reports whether arg names one of the given commands.
func isCommand(arg string, names ...string) bool {
	return slices.Contains(names, arg)
}

// isVerbose reports whether args request verbose output.
func isVerbose(args []string) bool {
	return slices.Contains(args, "-v") || slices.Contains(args, "--verbose")
}
