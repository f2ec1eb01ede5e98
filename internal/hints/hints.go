// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	info, err := os.Stat("/.dockerenv")
	return err == nil && !info.IsDir()
}

// ForSassBinary returns hints for a Dart Sass executable that could not be
// started. Detects CI/Docker environments and suggests how to provide one.
func ForSassBinary(binary string) string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if inCI || IsInContainer() {
		hints = append(hints, "install Dart Sass in the build image")
	} else {
		hints = append(hints, "install Dart Sass from https://sass-lang.com/install")
	}

	if binary == "" || binary == "sass" {
		hints = append(hints, "or set sass.binary to its full path")
	}

	return formatHints(hints)
}

// ForConfigNotFound returns a hint for a site directory without a config file.
func ForConfigNotFound(dir string) string {
	if dir == "" {
		dir = "."
	}
	return format("run 'bakery init " + dir + "' to create a starter site")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check the site directory is writable")
}

// ForThemeNotFound returns hints for unknown highlighting themes.
func ForThemeNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available themes: " + strings.Join(available, ", "))
}

// ForTemplateNotFound returns hints for pages naming a missing template.
func ForTemplateNotFound(available []string) string {
	if len(available) == 0 {
		return format("add HTML templates under templates/")
	}
	return format("available templates: " + strings.Join(available, ", "))
}

// ForStarterNotFound returns hints for an unknown init starter.
func ForStarterNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available starters: " + strings.Join(available, ", "))
}

// ForFrontMatter returns a hint for pages without a valid metadata block.
func ForFrontMatter() string {
	return format("start the page with a '---' or '+++' block setting title and template")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
