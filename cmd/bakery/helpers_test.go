package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// testEnv is an Environment over an in-memory filesystem.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, vars map[string]string) *testEnv {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Environment: &Environment{
			Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
			Stdout: stdout,
			Stderr: stderr,
			Fs:     afero.NewMemMapFs(),
			Getenv: func(k string) string { return vars[k] },
			Environ: func() []string {
				var kv []string
				for k, v := range vars {
					kv = append(kv, k+"="+v)
				}
				return kv
			},
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// writeSite writes files under dir.
func (e *testEnv) writeSite(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := afero.WriteFile(e.Fs, dir+"/"+name, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// minimalSite is a site that builds without Dart Sass.
var minimalSite = map[string]string{
	"bakery.toml": `
base_url = "https://example.com/"
title = "Example"
`,
	"content/index.md": `
---
title: Home
template: page.html
---
Welcome.
`,
	"content/posts/first.md": `
---
title: First
template: page.html
date: 2026-01-01
---
Hello $x^2$.
`,
	"templates/page.html": `<h1>{{ .Page.Title }}</h1>{{ .Page.Content }}`,
	"static/robots.txt":   "User-agent: *\n",
}
