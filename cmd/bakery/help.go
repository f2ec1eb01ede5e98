package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bakery <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Build a site into its output directory")
	fmt.Fprintln(w, "  watch       Build, then rebuild when sources change")
	fmt.Fprintln(w, "  init        Create a starter site")
	fmt.Fprintln(w, "  doctor      Check the environment for build requirements")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'bakery help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bakery build [dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the site in dir (default: current directory).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -d, --drafts              Include draft pages")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers per stage (0 = auto)")
	fmt.Fprintln(w, "      --watch               Rebuild when sources change")
	fmt.Fprintln(w, "      --debounce <d>        Quiet period before a rebuild (default 1s)")
	printOutputFlags(w)
	printEnvVars(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bakery watch [dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the site, then rebuild it whenever a source changes.")
	fmt.Fprintln(w, "Changes under the output directory and editor scratch files are ignored.")
	fmt.Fprintln(w, "Stop with Ctrl+C.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -d, --drafts              Include draft pages")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers per stage (0 = auto)")
	fmt.Fprintln(w, "      --debounce <d>        Quiet period before a rebuild (default 1s)")
	printOutputFlags(w)
	printEnvVars(w)
}

// printInitUsage prints usage for the init command.
func printInitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bakery init <dir> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Create a starter site in dir. The directory must be missing or empty.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --title <s>           Site title")
	fmt.Fprintln(w, "      --base-url <url>      Absolute site URL")
	fmt.Fprintln(w, "      --starter <name>      Starter site (default: default)")
	printOutputFlags(w)
}

func printOutputFlags(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show stage progress")
}

func printEnvVars(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  BAKERY_WORKERS            Default for --workers")
	fmt.Fprintln(w, "  BAKERY_DEBOUNCE           Default for --debounce")
	fmt.Fprintln(w, "  BAKERY_DRAFTS             Default for --drafts (true/false)")
	fmt.Fprintln(w, "  BAKERY_LOG_FORMAT         Log format: text (default) or json")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "init":
		printInitUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: bakery doctor [dir] [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Dart Sass, the environment and, if present, the site configuration.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: bakery version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: bakery help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
