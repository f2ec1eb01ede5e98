package watch

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-bakery/internal/fileutil"
)

// ShouldRebuild reports whether a change to path can affect the build.
// Changes under outputDir, inside VCS metadata and to editor scratch files
// are ignored.
func ShouldRebuild(path, outputDir string) bool {
	if path == "" {
		return false
	}
	if outputDir != "" && fileutil.Within(outputDir, path) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		switch part {
		case ".git", ".hg", ".svn":
			return false
		}
	}
	return !isScratchFile(filepath.Base(path))
}

// isScratchFile matches backup, swap and lock files written by editors.
func isScratchFile(base string) bool {
	switch {
	case strings.HasSuffix(base, "~"):
		return true
	case strings.HasPrefix(base, ".#"):
		return true
	case len(base) > 1 && strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "4913": // vim write probe
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".swp", ".swx", ".swo", ".tmp":
		return true
	}
	return false
}
