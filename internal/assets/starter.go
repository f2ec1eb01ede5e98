package assets

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/alnah/go-bakery/internal/fileutil"
)

//go:embed all:starters
var starters embed.FS

// DefaultStarterName is the starter used when none is named.
const DefaultStarterName = "default"

const templateSuffix = ".tmpl"

// StarterVars fills the .tmpl files of a starter.
type StarterVars struct {
	Title   string
	BaseURL string
}

// Starters lists the embedded starter names, sorted.
func Starters() []string {
	entries, err := starters.ReadDir("starters")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// WriteStarter copies the named starter into dir on fsys and returns the
// written paths relative to dir. dir must be missing or empty.
func WriteStarter(fsys afero.Fs, dir, name string, vars StarterVars) ([]string, error) {
	if name == "" {
		name = DefaultStarterName
	}
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	root := path.Join("starters", name)
	if _, err := fs.Stat(starters, root); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrStarterNotFound, name)
	}

	if empty, err := isEmptyDir(fsys, dir); err != nil {
		return nil, err
	} else if !empty {
		return nil, fmt.Errorf("%w: %s", ErrSiteExists, dir)
	}

	var written []string
	err := fs.WalkDir(starters, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := starters.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAssetRead, p, err)
		}

		rel := strings.TrimPrefix(p, root+"/")
		if strings.HasSuffix(rel, templateSuffix) {
			rel = strings.TrimSuffix(rel, templateSuffix)
			if data, err = render(p, data, vars); err != nil {
				return err
			}
		}

		if err := fileutil.WriteFile(fsys, filepath.Join(dir, filepath.FromSlash(rel)), data); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func render(name string, data []byte, vars StarterVars) ([]byte, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetRead, name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func isEmptyDir(fsys afero.Fs, dir string) (bool, error) {
	exists, err := afero.Exists(fsys, dir)
	if err != nil || !exists {
		return !exists, err
	}
	return afero.IsEmpty(fsys, dir)
}
