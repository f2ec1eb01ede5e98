// Package fileutil provides filesystem helpers over afero used by the build
// stages.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// Sentinel errors for file utility operations.
var (
	ErrOutsideRoot  = errors.New("path escapes root directory")
	ErrUnsafeRemove = errors.New("refusing to remove directory")
)

// Permissions for created files and directories.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// WriteFile writes data to name, creating parent directories as needed.
func WriteFile(fsys afero.Fs, name string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(name), DirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := afero.WriteFile(fsys, name, data, FilePerm); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// ResetDir removes dir and everything under it, then recreates it empty.
// It refuses to remove the filesystem root or the current directory.
func ResetDir(fsys afero.Fs, dir string) error {
	clean := filepath.Clean(dir)
	if clean == "." || clean == string(filepath.Separator) || clean == "" {
		return fmt.Errorf("%w: %q", ErrUnsafeRemove, dir)
	}
	if err := fsys.RemoveAll(clean); err != nil {
		return fmt.Errorf("removing %s: %w", clean, err)
	}
	if err := fsys.MkdirAll(clean, DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", clean, err)
	}
	return nil
}

// ListFiles returns the slash-separated paths, relative to root, of regular
// files under root whose extension is one of exts (all files when exts is
// empty). A missing root yields no files. The result is sorted.
func ListFiles(fsys afero.Fs, root string, exts ...string) ([]string, error) {
	if ok, err := afero.DirExists(fsys, root); err != nil || !ok {
		return nil, err
	}

	var out []string
	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(filepath.Ext(p))) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	slices.Sort(out)
	return out, nil
}

// Create creates or truncates name, creating parent directories as needed.
func Create(fsys afero.Fs, name string) (afero.File, error) {
	if err := fsys.MkdirAll(filepath.Dir(name), DirPerm); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", name, err)
	}
	f, err := fsys.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return f, nil
}

// CopyFile copies src to dst, creating parent directories of dst.
func CopyFile(fsys afero.Fs, src, dst string) (int64, error) {
	in, err := fsys.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := Create(fsys, dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return n, nil
}

// Join joins a slash-separated relative path onto root and rejects results
// outside root.
func Join(root, rel string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
	if clean == "/" || strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	joined := filepath.Join(root, filepath.FromSlash(clean[1:]))
	if !Within(root, joined) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return joined, nil
}

// Within reports whether p is root or lies under it. Both are compared
// after cleaning; no symlinks are resolved.
func Within(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
